package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "arizona")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "territory-data.json")
	require.NoError(t, lfs.WriteFile(fpath, []byte("hello"), 0o644))

	data, err := lfs.ReadFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := lfs.Stat(fpath)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, lfs.Remove(fpath))
	_, err = lfs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_Rules(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)

	meta := filepath.Join(tmp, "doc.json.meta")
	data := filepath.Join(tmp, "doc.json")

	ffs.AddRule(".meta", Fault{Ops: OpRemove})

	require.NoError(t, ffs.WriteFile(data, []byte("{}"), 0o644))
	require.NoError(t, ffs.WriteFile(meta, []byte("{}"), 0o644))

	assert.ErrorIs(t, ffs.Remove(meta), ErrInjected)
	assert.NoError(t, ffs.Remove(data))

	ffs.ClearRules()
	assert.NoError(t, ffs.Remove(meta))
}

func TestFaultyFS_CustomErrorAndLongestSuffix(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	errDisk := errors.New("disk full")

	ffs.AddRule(".json", Fault{Ops: OpRead})
	ffs.AddRule("territory-data.json", Fault{Ops: OpRead, Err: errDisk})

	path := filepath.Join(tmp, "territory-data.json")
	require.NoError(t, ffs.WriteFile(path, []byte("{}"), 0o644))

	_, err := ffs.ReadFile(path)
	assert.ErrorIs(t, err, errDisk)

	_, err = ffs.ReadFile(filepath.Join(tmp, "other.json"))
	assert.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_TornWrite(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".meta", Fault{Ops: OpWrite, FailAfterBytes: 3})

	path := filepath.Join(tmp, "doc.json.meta")
	err := ffs.WriteFile(path, []byte(`{"size":12}`), 0o644)
	require.ErrorIs(t, err, ErrInjected)

	torn, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"s`, string(torn))
}
