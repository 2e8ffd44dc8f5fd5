package azure

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/datastore/remote"
	"github.com/hupe1980/terrastore/testutil"
)

// Well-known Azurite development account.
const (
	azuriteAccount = "devstoreaccount1"
	azuriteKey     = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

func TestNew_FailsFast(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"NoContainer", Config{AccountName: azuriteAccount, AccountKey: azuriteKey}},
		{"NoAccount", Config{Container: "plans", AccountKey: azuriteKey}},
		{"MalformedKey", Config{Container: "plans", AccountName: azuriteAccount, AccountKey: "%%%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, datastore.ErrConnection)
		})
	}
}

func TestNew_SharedKey(t *testing.T) {
	p, err := New(Config{Container: "plans", AccountName: azuriteAccount, AccountKey: azuriteKey})
	require.NoError(t, err)
	assert.Equal(t, "azure", p.Name())
	assert.Equal(t, "plans", p.Container())
}

func TestTranslate(t *testing.T) {
	notFound := &azcore.ResponseError{StatusCode: http.StatusNotFound}
	assert.ErrorIs(t, translate(notFound), remote.ErrObjectNotFound)

	coded := &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "BlobNotFound"}
	assert.True(t, isNotFound(coded))

	forbidden := &azcore.ResponseError{StatusCode: http.StatusForbidden}
	assert.False(t, isNotFound(forbidden))

	plain := errors.New("dial tcp: refused")
	assert.Same(t, plain, translate(plain))
}

func TestMetadataConversion(t *testing.T) {
	assert.Nil(t, toAzureMetadata(nil))
	assert.Nil(t, toAzureMetadata(map[string]string{}))

	az := toAzureMetadata(map[string]string{"location": "arizona"})
	require.Contains(t, az, "location")
	assert.Equal(t, "arizona", *az["location"])

	back := fromAzureMetadata(map[string]*string{"location": to.Ptr("arizona"), "empty": nil})
	assert.Equal(t, datastore.Metadata{"location": "arizona"}, back)
	assert.NotNil(t, fromAzureMetadata(nil))
}

func TestToObjectInfo(t *testing.T) {
	info := toObjectInfo(&container.BlobItem{
		Name: to.Ptr("tenant/arizona/territory-data.json"),
		Properties: &container.BlobProperties{
			ContentLength: to.Ptr(int64(12)),
			ContentType:   to.Ptr("application/json"),
		},
	})
	assert.Equal(t, "tenant/arizona/territory-data.json", info.Key)
	assert.Equal(t, int64(12), info.Size)
	assert.Equal(t, "application/json", info.ContentType)
	assert.True(t, info.LastModified.IsZero())
	assert.NotNil(t, info.Metadata)
}

// TestIntegration_Azurite requires a running Azurite blob endpoint with an
// existing container. Skip if AZURITE_BLOB_URL is not set.
func TestIntegration_Azurite(t *testing.T) {
	url := os.Getenv("AZURITE_BLOB_URL")
	if url == "" {
		t.Skip("Skipping Azure integration test: AZURITE_BLOB_URL not set")
	}

	p, err := New(Config{
		Container:   "test-terrastore",
		AccountName: azuriteAccount,
		AccountKey:  azuriteKey,
		ServiceURL:  url,
	})
	require.NoError(t, err)

	testutil.RunConformance(t, func(t *testing.T) datastore.DataStore {
		s, err := remote.New(p, remote.WithFolder(strings.ReplaceAll(t.Name(), "/", "-")))
		require.NoError(t, err)
		return s
	})
}
