package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/peruse/internal/library"
)

// NewLibrary opens a library in a temporary directory, closed when the test
// ends.
func NewLibrary(t *testing.T) *library.Library {
	t.Helper()
	return NewLibraryAt(t, filepath.Join(t.TempDir(), "data"))
}

// NewLibraryAt opens a library in dir, closed when the test ends.
func NewLibraryAt(t *testing.T, dir string) *library.Library {
	t.Helper()
	lib, err := library.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}
