package remote

import (
	"context"
	"errors"

	"github.com/hupe1980/terrastore/datastore"
)

// ErrObjectNotFound is returned by a Provider when a requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Provider abstracts raw object I/O on a cloud blob service.
// Keys passed to a Provider are physical keys (folder included).
type Provider interface {
	// Name identifies the provider in logs and errors (e.g. "s3").
	Name() string

	// Stat returns the attributes and native metadata of key.
	// Returns ErrObjectNotFound if the key does not exist.
	Stat(ctx context.Context, key string) (datastore.ObjectInfo, error)

	// Get retrieves the content of key.
	// Returns ErrObjectNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes data to key. metadata is nil when there is none to attach.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error

	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns up to limit objects whose key starts with prefix.
	List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error)
}
