package datastore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Capacity(t *testing.T) {
	ctx := context.Background()
	// {"v":"xxxxxxxxxx"} is 18 bytes.
	small := map[string]string{"v": strings.Repeat("x", 10)}
	s := NewMemoryStore(WithMaxSizeBytes(40))

	res := s.Write(ctx, "a.json", small)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(18), res.Size)

	res = s.Write(ctx, "b.json", small)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(36), s.Usage())

	// 36 + 18 > 40
	res = s.Write(ctx, "c.json", small)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(CodeCapacityExceeded))
	assert.Equal(t, int64(36), s.Usage())

	raw, err := s.Read(ctx, "c.json")
	require.NoError(t, err)
	assert.Nil(t, raw)

	// Previously stored documents are unchanged.
	raw, err = s.Read(ctx, "a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"xxxxxxxxxx"}`, string(raw))
}

func TestMemoryStore_CapacityOverwriteReleasesOldSize(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMaxSizeBytes(20))

	require.True(t, s.Write(ctx, "a.json", map[string]string{"v": strings.Repeat("x", 10)}).Success)

	// Replacing the 18-byte entry with another 18-byte entry fits.
	require.True(t, s.Write(ctx, "a.json", map[string]string{"v": strings.Repeat("y", 10)}).Success)
	assert.Equal(t, int64(18), s.Usage())

	// Growing it past the cap fails and keeps the old value.
	res := s.Write(ctx, "a.json", map[string]string{"v": strings.Repeat("z", 20)})
	assert.False(t, res.Success)

	raw, err := s.Read(ctx, "a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"yyyyyyyyyy"}`, string(raw))
}

func TestMemoryStore_DeleteAbsentSucceeds(t *testing.T) {
	// MemoryStore deletes are idempotent; LocalStore reports failure instead
	// (see TestLocalStore_DeleteAbsentFails).
	s := NewMemoryStore()
	res := s.Delete(context.Background(), "never/written.json")
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
}

func TestMemoryStore_DeleteReleasesCapacity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMaxSizeBytes(20))

	require.True(t, s.Write(ctx, "a.json", map[string]string{"v": strings.Repeat("x", 10)}).Success)
	require.False(t, s.Write(ctx, "b.json", map[string]string{"v": strings.Repeat("x", 10)}).Success)

	require.True(t, s.Delete(ctx, "a.json").Success)
	assert.Zero(t, s.Usage())
	assert.True(t, s.Write(ctx, "b.json", map[string]string{"v": strings.Repeat("x", 10)}).Success)
}

func TestMemoryStore_ReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.True(t, s.Write(ctx, "a.json", map[string]int{"n": 1}).Success)

	raw, err := s.Read(ctx, "a.json")
	require.NoError(t, err)
	raw[0] = '['

	raw, err = s.Read(ctx, "a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(raw))
}

func TestMemoryStore_UnserializableDocument(t *testing.T) {
	s := NewMemoryStore()
	res := s.Write(context.Background(), "a.json", map[string]any{"ch": make(chan int)})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(CodeSerialize))
}

func TestMemoryStore_Clock(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time { return fixed }))

	res := s.Write(context.Background(), "a.json", 1)
	require.True(t, res.Success)
	assert.Equal(t, fixed, res.Timestamp)

	info, err := s.GetMetadata(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Equal(t, fixed, info.LastModified)
}
