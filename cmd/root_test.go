package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/peruse/internal/book"
	"github.com/zjrosen/peruse/internal/testutil"
)

type env struct {
	dir    string
	config string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{dir: dir, config: filepath.Join(dir, "config.yaml")}
	data := "# test config\ndata_dir: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(e.config, []byte(data), 0o600))
	return e
}

// run executes the root command. Flag variables outlive a single execution,
// so they are reset first.
func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, debug, logLevel = "", false, ""
	listJSON, listWidth = false, 80

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStats(t *testing.T) {
	e := newEnv(t)
	path := testutil.WriteFile(t, "book.txt", "one two\nthree\n")

	out, err := e.run(t, "stats", path)
	require.NoError(t, err)
	require.Equal(t, "book.txt\n  lines  2\n  words  3\n  chars  14\n", out)
}

func TestStats_MissingFile(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "stats", filepath.Join(e.dir, "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestTOC_JSON(t *testing.T) {
	e := newEnv(t)
	path := testutil.NewBuilder(t).WithStandardNovel().Write("novel.sfb")

	out, err := e.run(t, "toc", path, "--json")
	require.NoError(t, err)

	var toc []struct {
		Label    string `json:"label"`
		Children []struct {
			Label string `json:"label"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &toc))
	require.Len(t, toc, 2)
	require.Equal(t, "Part One", toc[0].Label)
	require.Len(t, toc[0].Children, 2)
	require.Equal(t, "Chapter 1", toc[0].Children[0].Label)
	require.Equal(t, "Part Two", toc[1].Label)
}

func TestTOC_Text(t *testing.T) {
	e := newEnv(t)
	path := testutil.NewBuilder(t).
		Heading(1, "Part One").
		Heading(2, "A chapter with a rather long title").
		Write("novel.sfb")

	out, err := e.run(t, "toc", path, "--wrap", "20")
	require.NoError(t, err)
	require.Equal(t, "Part One\n  A chapter with a\n  rather long title\n", out)
}

func TestTOC_PlainIsEmpty(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "toc", testutil.WriteFile(t, "plain.txt", ">\tnot a heading"), "--json")
	require.NoError(t, err)
	require.JSONEq(t, "[]", out)
}

func TestRecentAndBookmarks(t *testing.T) {
	e := newEnv(t)
	path := testutil.WriteFile(t, "book.txt", testutil.Numbered(3))

	out, err := e.run(t, "recent")
	require.NoError(t, err)
	require.Empty(t, out)

	key, err := book.Key(path)
	require.NoError(t, err)
	lib := testutil.NewLibraryAt(t, filepath.Join(e.dir, "data"))
	require.NoError(t, lib.Touch(context.Background(), key, path, "plain"))
	require.NoError(t, lib.Close())

	out, err = e.run(t, "recent", "--json")
	require.NoError(t, err)
	var books []struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 1)
	require.Equal(t, path, books[0].Path)
	require.Equal(t, "plain", books[0].Kind)

	out, err = e.run(t, "bookmarks", path, "--json")
	require.NoError(t, err)
	require.JSONEq(t, "[]", out)
}

func TestRead_NothingRecent(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t)
	require.ErrorIs(t, err, errNoBook)
}

func TestConfigSet(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "config", "set", "reader.width", "72")
	require.NoError(t, err)
	require.Equal(t, "reader.width = 72\n", out)

	data, err := os.ReadFile(e.config)
	require.NoError(t, err)
	require.Contains(t, string(data), "# test config")
	require.Contains(t, string(data), "reader:\n  width: 72\n")

	out, err = e.run(t, "config", "path")
	require.NoError(t, err)
	require.Equal(t, e.config+"\n", out)
}

func TestInvalidConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.config, []byte("reader:\n  tab_size: 0\n"), 0o600))

	_, err := e.run(t, "recent")
	require.ErrorContains(t, err, "invalid configuration")
}

func TestBookOptions(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg.Encoding = "koi8-r"
	cfg.Reader.TabSize = 8
	cfg.Reader.CacheSize = 50
	cfg.Reader.BlockSize = 1024
	cfg.Reader.BlockCount = 2
	cfg.Reader.Width = 0

	opts := bookOptions()
	require.Equal(t, "koi8-r", opts.Encoding)
	require.Equal(t, 8, opts.TabSize)
	require.Equal(t, 50, opts.CacheSize)
	require.Equal(t, book.DefaultOptions().Width, opts.Width)

	cfg.Reader.Width = 60
	require.Equal(t, 60, bookOptions().Width)
}
