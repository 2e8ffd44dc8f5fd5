package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/datastore/remote"
)

// Client is the subset of the S3 API used by Provider.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds the S3 connection settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Provider implements remote.Provider for S3.
type Provider struct {
	client Client
	bucket string
}

// New loads the AWS configuration and creates a provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Bucket == "" {
		return nil, connErr(errors.New("s3: bucket is required"))
	}
	if cfg.Region == "" {
		return nil, connErr(errors.New("s3: region is required"))
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, connErr(errors.New("s3: access key and secret key must be set together"))
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, connErr(fmt.Errorf("s3: load config: %w", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, bucket string) *Provider {
	return &Provider{client: client, bucket: bucket}
}

// Name implements remote.Provider.
func (p *Provider) Name() string { return "s3" }

// Bucket returns the bucket name.
func (p *Provider) Bucket() string { return p.bucket }

// Stat implements remote.Provider.
func (p *Provider) Stat(ctx context.Context, key string) (datastore.ObjectInfo, error) {
	head, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return datastore.ObjectInfo{}, translate(err)
	}

	info := datastore.ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(head.ContentLength),
		ContentType: aws.ToString(head.ContentType),
		Metadata:    datastore.Metadata{},
	}
	if head.LastModified != nil {
		info.LastModified = head.LastModified.UTC()
	}
	for k, v := range head.Metadata {
		info.Metadata[k] = v
	}
	return info, nil
}

// Get implements remote.Provider.
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body: %w", err)
	}
	return data, nil
}

// Put implements remote.Provider.
func (p *Provider) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      metadata,
	})
	return err
}

// Delete implements remote.Provider. S3 reports success for missing keys.
func (p *Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	return err
}

// List implements remote.Provider. ListObjectsV2 does not return user
// metadata, so listed entries carry none.
func (p *Provider) List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	var out []datastore.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(p.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(int32(min(limit, 1000))),
	})
	for paginator.HasMorePages() && len(out) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			info := datastore.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = obj.LastModified.UTC()
			}
			out = append(out, info)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func translate(err error) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %w", remote.ErrObjectNotFound, err)
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %w", remote.ErrObjectNotFound, err)
	}
	return err
}

func connErr(err error) error {
	return datastore.NewError("open", "", datastore.CodeConnection, err)
}

var _ remote.Provider = (*Provider)(nil)
