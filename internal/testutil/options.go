package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// FileOption transforms file content before it is written.
type FileOption func(t *testing.T, data []byte) []byte

// CRLF ends lines with \r\n.
func CRLF() FileOption {
	return func(_ *testing.T, data []byte) []byte {
		return bytes.ReplaceAll(data, []byte("\n"), []byte("\r\n"))
	}
}

// UTF16LE encodes the content as UTF-16 little endian with a byte order
// mark.
func UTF16LE() FileOption {
	return func(t *testing.T, data []byte) []byte {
		t.Helper()
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		out, err := enc.Bytes(data)
		require.NoError(t, err)
		return out
	}
}

// Windows1251 encodes the content as Windows-1251 Cyrillic.
func Windows1251() FileOption {
	return func(t *testing.T, data []byte) []byte {
		t.Helper()
		out, err := charmap.Windows1251.NewEncoder().Bytes(data)
		require.NoError(t, err)
		return out
	}
}
