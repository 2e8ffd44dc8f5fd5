package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--type", "local", "--path", dir}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestPutGetStat(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, `{"name":"Phoenix","reps":3}`, "put", "arizona/territory-data.json", "-m", "owner=ops")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote arizona/territory-data.json")

	out, err = run(t, dir, "", "get", "arizona/territory-data.json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Phoenix"`)

	out, err = run(t, dir, "", "stat", "arizona/territory-data.json")
	require.NoError(t, err)
	assert.Contains(t, out, `"owner": "ops"`)
	assert.Contains(t, out, "application/json")
}

func TestPutFromFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(src, []byte(`[1,2,3]`), 0o600))

	_, err := run(t, dir, "", "put", "miami/customers-data.json", src)
	require.NoError(t, err)

	out, err := run(t, dir, "", "ls", "miami/")
	require.NoError(t, err)
	assert.Contains(t, out, "miami/customers-data.json")
}

func TestPutRejectsInvalidJSON(t *testing.T) {
	_, err := run(t, t.TempDir(), "not json", "put", "a.json")
	require.Error(t, err)
}

func TestGetMissing(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "get", "nope.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, `{}`, "put", "a.json")
	require.NoError(t, err)

	out, err := run(t, dir, "", "rm", "a.json")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted a.json")

	out, err = run(t, dir, "", "ls")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBackupAndRestore(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "", "backup", "arizona", "territory")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to back up")

	_, err = run(t, dir, `{"v":1}`, "put", "arizona/territory-data.json")
	require.NoError(t, err)

	out, err = run(t, dir, "", "backup", "arizona", "territory")
	require.NoError(t, err)
	assert.Contains(t, out, "backed up arizona/territory-data.json to backups/arizona/territory-")

	out, err = run(t, dir, "", "backups", "arizona", "territory")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	backupKey := strings.Fields(lines[0])[0]

	_, err = run(t, dir, `{"v":2}`, "put", "arizona/territory-data.json")
	require.NoError(t, err)

	out, err = run(t, dir, "", "restore", backupKey)
	require.NoError(t, err)
	assert.Contains(t, out, "restored arizona/territory-data.json")

	out, err = run(t, dir, "", "get", "arizona/territory-data.json")
	require.NoError(t, err)
	assert.Contains(t, out, `"v": 1`)
}

func TestScenarios(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, `{"name":"base"}`, "put", "arizona/scenarios/s1.json")
	require.NoError(t, err)
	_, err = run(t, dir, `{"name":"alt"}`, "put", "arizona/scenarios/s2.json")
	require.NoError(t, err)

	out, err := run(t, dir, "", "scenarios", "arizona")
	require.NoError(t, err)
	assert.Equal(t, "s1\ns2\n", out)
}

func TestInvalidBackend(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--type", "tape", "ls"})
	require.Error(t, root.Execute())
}
