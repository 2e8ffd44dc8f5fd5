package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/datastore/remote"
)

// Config holds the GCS connection settings.
type Config struct {
	Bucket string

	// CredentialsFile is a path to a service account key file.
	CredentialsFile string

	// CredentialsJSON is an inline service account key. It takes precedence
	// over CredentialsFile.
	CredentialsJSON []byte
}

// Provider implements remote.Provider for Google Cloud Storage.
type Provider struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// New creates a GCS client for the configured bucket.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Bucket == "" {
		return nil, connErr(errors.New("gcs: bucket is required"))
	}

	var opts []option.ClientOption
	switch {
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, connErr(fmt.Errorf("gcs: create client: %w", err))
	}
	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *storage.Client, bucket string) *Provider {
	return &Provider{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
	}
}

// Name implements remote.Provider.
func (p *Provider) Name() string { return "gcs" }

// Bucket returns the bucket name.
func (p *Provider) Bucket() string { return p.name }

// Stat implements remote.Provider.
func (p *Provider) Stat(ctx context.Context, key string) (datastore.ObjectInfo, error) {
	attrs, err := p.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return datastore.ObjectInfo{}, translate(err)
	}
	return toObjectInfo(attrs), nil
}

// Get implements remote.Provider.
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := p.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs read body: %w", err)
	}
	return data, nil
}

// Put implements remote.Provider.
func (p *Provider) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	w := p.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs put write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs put close: %w", err)
	}
	return nil
}

// Delete implements remote.Provider.
func (p *Provider) Delete(ctx context.Context, key string) error {
	err := p.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete: %w", err)
	}
	return nil
}

// List implements remote.Provider.
func (p *Provider) List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	var out []datastore.ObjectInfo
	it := p.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for len(out) < limit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list: %w", err)
		}
		out = append(out, toObjectInfo(attrs))
	}
	return out, nil
}

// Close releases the client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func toObjectInfo(attrs *storage.ObjectAttrs) datastore.ObjectInfo {
	meta := make(datastore.Metadata, len(attrs.Metadata))
	for k, v := range attrs.Metadata {
		meta[k] = v
	}
	return datastore.ObjectInfo{
		Key:          attrs.Name,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated.UTC(),
		Metadata:     meta,
	}
}

func translate(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %w", remote.ErrObjectNotFound, err)
	}
	return err
}

func connErr(err error) error {
	return datastore.NewError("open", "", datastore.CodeConnection, err)
}

var _ remote.Provider = (*Provider)(nil)
