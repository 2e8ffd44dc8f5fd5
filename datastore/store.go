package datastore

import (
	"context"
	"encoding/json"
	"time"
)

const (
	// ContentTypeJSON is the default content type of stored documents.
	ContentTypeJSON = "application/json"

	// DefaultListLimit caps List results when no limit is given.
	DefaultListLimit = 1000

	// MetaSuffix is the suffix of the LocalStore sidecar metadata file.
	MetaSuffix = ".meta"
)

// Metadata is a bag of caller-supplied string fields persisted alongside a document.
type Metadata map[string]string

// Clone returns a copy of m. A nil receiver yields an empty, non-nil map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DataStore is the backend-agnostic document store contract.
type DataStore interface {
	// Write serializes doc and persists it with its metadata under key.
	// It never returns an error; failures are reported in the result.
	Write(ctx context.Context, key string, doc any, opts ...WriteOption) WriteResult

	// Read returns the serialized document stored under key.
	// It returns (nil, nil) when the key does not exist.
	Read(ctx context.Context, key string) (json.RawMessage, error)

	// Exists reports whether a document is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the document and any associated metadata.
	// It never returns an error; failures are reported in the result.
	Delete(ctx context.Context, key string) DeleteResult

	// List returns the documents whose key starts with prefix, ordered by key.
	// A limit <= 0 selects DefaultListLimit.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)

	// GetMetadata returns the stored metadata and physical attributes of key,
	// or nil if the key does not exist.
	GetMetadata(ctx context.Context, key string) (*ObjectInfo, error)
}

// ObjectInfo describes a stored document. It is returned by GetMetadata and
// List, and is the on-disk shape of the LocalStore sidecar file.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	LastModified time.Time `json:"lastModified"`
	Metadata     Metadata  `json:"metadata"`
}

// WriteResult is the outcome of a Write.
type WriteResult struct {
	Success     bool      `json:"success"`
	Key         string    `json:"key"`
	Size        int64     `json:"size,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitzero"`
	Error       string    `json:"error,omitempty"`
}

// DeleteResult is the outcome of a Delete.
type DeleteResult struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
	Error   string `json:"error,omitempty"`
}

// WriteFailed builds an unsuccessful WriteResult from err.
func WriteFailed(key string, err error) WriteResult {
	return WriteResult{Key: key, Error: err.Error()}
}

// DeleteFailed builds an unsuccessful DeleteResult from err.
func DeleteFailed(key string, err error) DeleteResult {
	return DeleteResult{Key: key, Error: err.Error()}
}

// WriteOption configures a single Write.
type WriteOption func(*WriteOptions)

// WriteOptions holds the resolved options of a Write.
type WriteOptions struct {
	Metadata    Metadata
	ContentType string
}

// WithMetadata attaches metadata to the written document.
func WithMetadata(m Metadata) WriteOption {
	return func(o *WriteOptions) {
		o.Metadata = m
	}
}

// WithContentType declares the content type of the written document.
// An empty value keeps ContentTypeJSON.
func WithContentType(ct string) WriteOption {
	return func(o *WriteOptions) {
		if ct != "" {
			o.ContentType = ct
		}
	}
}

// ApplyWriteOptions resolves opts against the defaults. The returned
// Metadata is always a private copy.
func ApplyWriteOptions(opts ...WriteOption) WriteOptions {
	o := WriteOptions{ContentType: ContentTypeJSON}
	for _, fn := range opts {
		fn(&o)
	}
	o.Metadata = o.Metadata.Clone()
	return o
}

// NormalizeLimit maps a non-positive limit to DefaultListLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
