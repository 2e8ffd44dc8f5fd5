package terrastore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/terrastore"
	"github.com/hupe1980/terrastore/datastore"
)

func useMemoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_STORE_TYPE", "memory")
	t.Setenv("DATA_STORE_MAX_SIZE", "")
	require.NoError(t, terrastore.ResetDefault())
	t.Cleanup(func() { _ = terrastore.ResetDefault() })
}

func TestDefault_IsShared(t *testing.T) {
	useMemoryEnv(t)
	ctx := context.Background()

	a, err := terrastore.Default(ctx)
	require.NoError(t, err)
	b, err := terrastore.Default(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)

	res := terrastore.StoreLocationData(ctx, "arizona", "territory", map[string]any{"zip": "85021"}, nil)
	require.True(t, res.Success, res.Error)

	raw, err := terrastore.LoadLocationData(ctx, "arizona", "territory")
	require.NoError(t, err)
	assert.JSONEq(t, `{"zip":"85021"}`, string(raw))
}

func TestResetDefault_Isolates(t *testing.T) {
	useMemoryEnv(t)
	ctx := context.Background()

	first, err := terrastore.Default(ctx)
	require.NoError(t, err)
	require.True(t, terrastore.StoreLocationData(ctx, "arizona", "territory", 1, nil).Success)

	require.NoError(t, terrastore.ResetDefault())

	second, err := terrastore.Default(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	// The fresh memory store starts empty.
	raw, err := terrastore.LoadLocationData(ctx, "arizona", "territory")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestSetDefault_Injects(t *testing.T) {
	useMemoryEnv(t)
	ctx := context.Background()

	store := datastore.NewMemoryStore()
	terrastore.SetDefault(store)

	id, res := terrastore.StoreScenario(ctx, "arizona", "baseline", map[string]int{"reps": 3}, nil)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "baseline", id)

	ok, err := store.Exists(ctx, "arizona/scenarios/baseline.json")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := terrastore.ListScenarios(ctx, "arizona")
	require.NoError(t, err)
	assert.Equal(t, []string{"baseline"}, ids)

	backup, err := terrastore.CreateBackup(ctx, "arizona", "territory")
	require.NoError(t, err)
	assert.False(t, backup.Created)
}

func TestDefault_ConfigError(t *testing.T) {
	t.Setenv("DATA_STORE_TYPE", "remote")
	t.Setenv("DATA_STORE_REMOTE_PROVIDER", "")
	require.NoError(t, terrastore.ResetDefault())
	t.Cleanup(func() { _ = terrastore.ResetDefault() })

	_, err := terrastore.Default(context.Background())
	assert.ErrorIs(t, err, datastore.ErrConnection)

	res := terrastore.StoreLocationData(context.Background(), "arizona", "territory", 1, nil)
	assert.False(t, res.Success)

	_, err = terrastore.LoadLocationData(context.Background(), "arizona", "territory")
	var de *terrastore.DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, datastore.CodeConnection, de.Code)
}
