package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func readBack(t *testing.T, path string) Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestSet_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir", "config.yaml")

	require.NoError(t, Set(path, "reader.width", "72"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "reader:\n  width: 72\n", string(data))
	require.Equal(t, 72, readBack(t, path).Reader.Width)
}

func TestSet_PreservesCommentsAndOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, Set(path, "ui.show_status_bar", "false"))
	require.NoError(t, Set(path, "reader.tab_size", "8"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Peruse Configuration")
	require.Contains(t, string(data), "# Rows kept around the current row")

	cfg := readBack(t, path)
	require.False(t, cfg.UI.ShowStatusBar)
	require.Equal(t, 8, cfg.Reader.TabSize)
	require.Equal(t, 4096, cfg.Reader.BlockSize)
	require.Equal(t, "utf-8", cfg.Encoding)
}

func TestSet_AddsMissingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("encoding: koi8-r\n"), 0o600))

	require.NoError(t, Set(path, "flags.prefetch", "false"))

	cfg := readBack(t, path)
	require.Equal(t, "koi8-r", cfg.Encoding)
	require.False(t, cfg.Flags["prefetch"])
}

func TestSet_ReplacesScalarSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader: fast\n"), 0o600))

	require.NoError(t, Set(path, "reader.cache_size", "10"))
	require.Equal(t, 10, readBack(t, path).Reader.CacheSize)
}

func TestSet_Errors(t *testing.T) {
	dir := t.TempDir()
	require.ErrorContains(t, Set(filepath.Join(dir, "a.yaml"), "reader..width", "1"), "invalid config key")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("reader: [unclosed\n"), 0o600))
	require.ErrorContains(t, Set(bad, "reader.width", "1"), "parsing config")

	list := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(list, []byte("- a\n- b\n"), 0o600))
	require.ErrorContains(t, Set(list, "reader.width", "1"), "not a mapping")
}

func TestSet_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, Set(path, "encoding", "utf-16le"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
