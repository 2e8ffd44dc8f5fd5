package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/datastore/remote"
)

// Config holds the connection settings of a MinIO deployment.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Provider implements remote.Provider for MinIO and S3-compatible storage.
type Provider struct {
	client *minio.Client
	bucket string
}

// New connects to the configured endpoint. Missing settings fail fast with
// a connection error; no request is made until the first operation.
func New(cfg Config) (*Provider, error) {
	switch {
	case cfg.Endpoint == "":
		return nil, connErr(errors.New("minio: endpoint is required"))
	case cfg.Bucket == "":
		return nil, connErr(errors.New("minio: bucket is required"))
	case cfg.AccessKey == "" || cfg.SecretKey == "":
		return nil, connErr(errors.New("minio: access key and secret key are required"))
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, connErr(fmt.Errorf("minio: create client: %w", err))
	}
	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *minio.Client, bucket string) *Provider {
	return &Provider{client: client, bucket: bucket}
}

// Name implements remote.Provider.
func (p *Provider) Name() string { return "minio" }

// Bucket returns the bucket name.
func (p *Provider) Bucket() string { return p.bucket }

// Stat implements remote.Provider.
func (p *Provider) Stat(ctx context.Context, key string) (datastore.ObjectInfo, error) {
	info, err := p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return datastore.ObjectInfo{}, translate(err)
	}
	return toObjectInfo(info), nil
}

// Get implements remote.Provider.
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := p.client.GetObject(ctx, p.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

// Put implements remote.Provider.
func (p *Provider) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	return err
}

// Delete implements remote.Provider.
func (p *Provider) Delete(ctx context.Context, key string) error {
	err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List implements remote.Provider. User metadata is included where the
// server supports the MinIO listing extension.
func (p *Provider) List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []datastore.ObjectInfo
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: true,
		MaxKeys:      min(limit, 1000),
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, toObjectInfo(obj))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func toObjectInfo(info minio.ObjectInfo) datastore.ObjectInfo {
	meta := datastore.Metadata{}
	for k, v := range info.UserMetadata {
		meta[k] = v
	}
	return datastore.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified.UTC(),
		Metadata:     meta,
	}
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func translate(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", remote.ErrObjectNotFound, err)
	}
	return err
}

func connErr(err error) error {
	return datastore.NewError("open", "", datastore.CodeConnection, err)
}

var _ remote.Provider = (*Provider)(nil)
