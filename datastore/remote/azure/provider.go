package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/datastore/remote"
)

// Config holds the Azure Blob Storage connection settings.
type Config struct {
	Container   string
	AccountName string
	AccountKey  string

	// ServiceURL overrides the account endpoint, e.g. for Azurite.
	ServiceURL string
}

// Provider implements remote.Provider for Azure Blob Storage.
type Provider struct {
	client    *azblob.Client
	container string
}

// New creates an Azure client for the configured container.
func New(cfg Config) (*Provider, error) {
	if cfg.Container == "" {
		return nil, connErr(errors.New("azure: container is required"))
	}
	if cfg.AccountName == "" {
		return nil, connErr(errors.New("azure: account name is required"))
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}

	var (
		client *azblob.Client
		err    error
	)
	if cfg.AccountKey != "" {
		cred, credErr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if credErr != nil {
			return nil, connErr(fmt.Errorf("azure: shared key credential: %w", credErr))
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, connErr(fmt.Errorf("azure: default credential: %w", credErr))
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, connErr(fmt.Errorf("azure: create client: %w", err))
	}
	return NewWithClient(client, cfg.Container), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *azblob.Client, containerName string) *Provider {
	return &Provider{client: client, container: containerName}
}

// Name implements remote.Provider.
func (p *Provider) Name() string { return "azure" }

// Container returns the container name.
func (p *Provider) Container() string { return p.container }

// Stat implements remote.Provider.
func (p *Provider) Stat(ctx context.Context, key string) (datastore.ObjectInfo, error) {
	bc := p.client.ServiceClient().NewContainerClient(p.container).NewBlobClient(key)
	props, err := bc.GetProperties(ctx, nil)
	if err != nil {
		return datastore.ObjectInfo{}, translate(err)
	}

	info := datastore.ObjectInfo{
		Key:         key,
		Size:        deref(props.ContentLength),
		ContentType: deref(props.ContentType),
		Metadata:    fromAzureMetadata(props.Metadata),
	}
	if props.LastModified != nil {
		info.LastModified = props.LastModified.UTC()
	}
	return info, nil
}

// Get implements remote.Provider.
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := p.client.DownloadStream(ctx, p.container, key, nil)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure read body: %w", err)
	}
	return data, nil
}

// Put implements remote.Provider.
func (p *Provider) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := p.client.UploadStream(ctx, p.container, key, bytes.NewReader(data), &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
		Metadata:    toAzureMetadata(metadata),
	})
	if err != nil {
		return fmt.Errorf("azure put: %w", err)
	}
	return nil
}

// Delete implements remote.Provider.
func (p *Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteBlob(ctx, p.container, key, nil)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("azure delete: %w", err)
	}
	return nil
}

// List implements remote.Provider.
func (p *Provider) List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	var out []datastore.ObjectInfo
	pager := p.client.NewListBlobsFlatPager(p.container, &azblob.ListBlobsFlatOptions{
		Prefix:     to.Ptr(prefix),
		Include:    container.ListBlobsInclude{Metadata: true},
		MaxResults: to.Ptr(int32(min(limit, 5000))),
	})
	for pager.More() && len(out) < limit {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure list: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			out = append(out, toObjectInfo(item))
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func toObjectInfo(item *container.BlobItem) datastore.ObjectInfo {
	info := datastore.ObjectInfo{
		Key:      *item.Name,
		Metadata: fromAzureMetadata(item.Metadata),
	}
	if props := item.Properties; props != nil {
		info.Size = deref(props.ContentLength)
		info.ContentType = deref(props.ContentType)
		if props.LastModified != nil {
			info.LastModified = props.LastModified.UTC()
		}
	}
	return info
}

func toAzureMetadata(m map[string]string) map[string]*string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]*string, len(m))
	for k, v := range m {
		out[k] = to.Ptr(v)
	}
	return out
}

func fromAzureMetadata(m map[string]*string) datastore.Metadata {
	out := make(datastore.Metadata, len(m))
	for k, v := range m {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func isNotFound(err error) bool {
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return true
	}
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
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
