package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("github.token", "ghp_test"))
	require.NoError(t, store.Set("docs.max_tokens", 4096))
	require.NoError(t, store.Set("webhook.enabled", true))

	assert.Equal(t, "ghp_test", store.GetString("github.token"))
	assert.Equal(t, 4096, store.GetInt("docs.max_tokens"))
	assert.True(t, store.GetBool("webhook.enabled"))
}

func TestConfigStore_MissingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("nope"))
	assert.Zero(t, store.GetInt("nope"))
	assert.False(t, store.GetBool("nope"))
	assert.Nil(t, store.GetStringSlice("nope"))
}

func TestConfigStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("storage.data_dir", "/var/lib/gitscribe"))
	require.NoError(t, store.Set("docs.cli_args", []string{"--json", "--quiet"}))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/gitscribe", reopened.GetString("storage.data_dir"))
	assert.Equal(t, []string{"--json", "--quiet"}, reopened.GetStringSlice("docs.cli_args"))
}

func TestConfigStore_NestedTOMLFlattens(t *testing.T) {
	dir := t.TempDir()
	toml := "[github]\ntoken = \"ghp_nested\"\n\n[docs]\nrunner = \"cli\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "ghp_nested", store.GetString("github.token"))
	assert.Equal(t, "cli", store.GetString("docs.runner"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("github.token", "ghp_secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "token file is owner-only")
}
