package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/terrastore/datastore"
)

// Factory creates a fresh, empty store for a single subtest.
type Factory func(t *testing.T) datastore.DataStore

// TerritoryDoc is the reference territory document used across tests.
func TerritoryDoc() map[string]any {
	return map[string]any{"zip": "85021", "area": "West", "accounts": 150}
}

// Normalize round-trips v through encoding/json so that values can be
// compared with decoded documents (numbers become float64 and so on).
func Normalize(t testing.TB, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

// Decode unmarshals a stored document into a generic value.
func Decode(t testing.TB, raw json.RawMessage) any {
	t.Helper()
	require.NotNil(t, raw, "document is absent")
	var out any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// RunConformance runs the shared DataStore contract tests.
func RunConformance(t *testing.T, newStore Factory) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("Absence", func(t *testing.T) { testAbsence(t, newStore(t)) })
	t.Run("ExistsReadConsistency", func(t *testing.T) { testExistsRead(t, newStore(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newStore(t)) })
	t.Run("PrefixListing", func(t *testing.T) { testPrefixListing(t, newStore(t)) })
	t.Run("ListLimit", func(t *testing.T) { testListLimit(t, newStore(t)) })
	t.Run("Metadata", func(t *testing.T) { testMetadata(t, newStore(t)) })
	t.Run("InvalidKeys", func(t *testing.T) { testInvalidKeys(t, newStore(t)) })
	t.Run("EndToEnd", func(t *testing.T) { testEndToEnd(t, newStore(t)) })
}

func testRoundTrip(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	docs := map[string]any{
		"object":  TerritoryDoc(),
		"nested":  map[string]any{"zips": []any{"85021", "85022"}, "owner": map[string]any{"id": 7, "active": true}},
		"array":   []any{1, "two", 3.5, nil, false},
		"string":  "plain",
		"number":  42.25,
		"boolean": true,
		"empty":   map[string]any{},
		"unicode": map[string]any{"name": "Zürich – Nord", "emoji": "📍"},
	}

	for name, doc := range docs {
		key := fmt.Sprintf("roundtrip/%s.json", name)
		res := s.Write(ctx, key, doc)
		require.True(t, res.Success, "write %s: %s", name, res.Error)
		assert.Equal(t, key, res.Key)
		assert.Positive(t, res.Size)
		assert.Equal(t, datastore.ContentTypeJSON, res.ContentType)
		assert.False(t, res.Timestamp.IsZero())

		raw, err := s.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, Normalize(t, doc), Decode(t, raw), name)
	}
}

func testAbsence(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	key := "nowhere/territory-data.json"

	raw, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, raw)

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := s.GetMetadata(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, info)

	list, err := s.List(ctx, "nowhere/", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testExistsRead(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	for i := range 5 {
		key := fmt.Sprintf("consistency/doc-%d.json", i)
		require.True(t, s.Write(ctx, key, map[string]any{"i": i}).Success)
	}
	for i := range 7 {
		key := fmt.Sprintf("consistency/doc-%d.json", i)
		ok, err := s.Exists(ctx, key)
		require.NoError(t, err)
		raw, err := s.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, ok, raw != nil, key)
	}
}

func testOverwrite(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	key := "arizona/customer-data.json"

	require.True(t, s.Write(ctx, key, map[string]any{"version": 1, "stale": true}).Success)
	require.True(t, s.Write(ctx, key, map[string]any{"version": 2}).Success)

	raw, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"version": float64(2)}, Decode(t, raw))

	list, err := s.List(ctx, "arizona/", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, key, list[0].Key)
}

func testPrefixListing(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	keys := []string{
		"arizona/territory-data.json",
		"miami/territory-data.json",
		"arizona/scenarios/plan-a.json",
		"arizona-east/territory-data.json",
	}
	for _, k := range keys {
		require.True(t, s.Write(ctx, k, TerritoryDoc()).Success, k)
	}

	list, err := s.List(ctx, "arizona/", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"arizona/scenarios/plan-a.json", "arizona/territory-data.json"}, listedKeys(list))

	list, err = s.List(ctx, "miami/", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"miami/territory-data.json"}, listedKeys(list))

	list, err = s.List(ctx, "arizona/scenarios/", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"arizona/scenarios/plan-a.json"}, listedKeys(list))

	list, err = s.List(ctx, "", 0)
	require.NoError(t, err)
	got := listedKeys(list)
	assert.Len(t, got, len(keys))
	assert.IsIncreasing(t, got)
	assert.ElementsMatch(t, keys, got)
}

func testListLimit(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	for i := range 5 {
		require.True(t, s.Write(ctx, fmt.Sprintf("limit/doc-%d.json", i), i).Success)
	}

	list, err := s.List(ctx, "limit/", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"limit/doc-0.json", "limit/doc-1.json"}, listedKeys(list))

	list, err = s.List(ctx, "limit/", 0)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func testMetadata(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	key := "arizona/upload-data.json"
	meta := datastore.Metadata{"location": "arizona", "uploadedBy": "ops", "version": "3"}

	res := s.Write(ctx, key, TerritoryDoc(),
		datastore.WithMetadata(meta),
		datastore.WithContentType("application/vnd.territory+json"))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "application/vnd.territory+json", res.ContentType)

	// Mutating the caller's map must not affect what was stored.
	meta["location"] = "changed"

	info, err := s.GetMetadata(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, key, info.Key)
	assert.Equal(t, res.Size, info.Size)
	assert.Equal(t, "application/vnd.territory+json", info.ContentType)
	assert.Equal(t, "arizona", MetaValue(info.Metadata, "location"))
	assert.Equal(t, "ops", MetaValue(info.Metadata, "uploadedBy"))
	assert.Equal(t, "3", MetaValue(info.Metadata, "version"))
	assert.False(t, info.LastModified.IsZero())

	list, err := s.List(ctx, "arizona/", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "arizona", MetaValue(list[0].Metadata, "location"))
}

func testInvalidKeys(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	for _, key := range []string{
		"", "/abs/doc.json", "../escape.json", "a/../../b.json", "doc.json.meta",
		"a//b.json", "./c.json", "x/./y.json", "dir/", ".",
	} {
		res := s.Write(ctx, key, TerritoryDoc())
		assert.False(t, res.Success, key)
		assert.NotEmpty(t, res.Error, key)

		_, err := s.Read(ctx, key)
		assert.ErrorIs(t, err, datastore.ErrInvalidKey, key)
		assert.Equal(t, datastore.CodeInvalidKey, datastore.CodeOf(err), key)

		assert.False(t, s.Delete(ctx, key).Success, key)
	}
}

func testEndToEnd(t *testing.T, s datastore.DataStore) {
	ctx := context.Background()
	key := "arizona/territory-data.json"
	doc := TerritoryDoc()

	res := s.Write(ctx, key, doc, datastore.WithMetadata(datastore.Metadata{
		"location": "arizona",
		"dataType": "territory",
	}))
	require.True(t, res.Success, res.Error)

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	raw, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Normalize(t, doc), Decode(t, raw))

	list, err := s.List(ctx, "arizona/", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, key, list[0].Key)

	info, err := s.GetMetadata(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Positive(t, info.Size)
	assert.Equal(t, datastore.ContentTypeJSON, info.ContentType)
	assert.Equal(t, "arizona", MetaValue(info.Metadata, "location"))
	assert.Equal(t, "territory", MetaValue(info.Metadata, "dataType"))

	del := s.Delete(ctx, key)
	assert.True(t, del.Success, del.Error)

	raw, err = s.Read(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func listedKeys(list []datastore.ObjectInfo) []string {
	keys := make([]string, 0, len(list))
	for _, o := range list {
		keys = append(keys, o.Key)
	}
	return keys
}

// MetaValue looks up a metadata key ignoring case. Blob services may return
// header-derived keys canonicalized.
func MetaValue(m datastore.Metadata, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
