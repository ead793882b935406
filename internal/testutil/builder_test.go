package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestBuilder_String(t *testing.T) {
	got := NewBuilder(t).
		Title("T").
		Heading(2, "Chapter").
		Paragraph("one", "two").
		Block('P', "a rose", "is a rose").
		Row('@', "Anon").
		String()

	require.Equal(t, "|\tT\n>>\tChapter\none\ntwo\nP>\na rose\nis a rose\nP$\n@\tAnon\n", got)
}

func TestBuilder_Empty(t *testing.T) {
	require.Empty(t, NewBuilder(t).String())
}

func TestBuilder_StandardNovel(t *testing.T) {
	got := NewBuilder(t).WithStandardNovel().String()
	require.Contains(t, got, ">>>\tA Deep Scene\n")
	require.Contains(t, got, "|\tThe Book\n>\tPart One\n")
}

func TestWriteFile_Options(t *testing.T) {
	path := WriteFile(t, "a.txt", "a\nb\n", CRLF())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a\r\nb\r\n", string(data))

	data, err = os.ReadFile(WriteFile(t, "b.txt", "hi", UTF16LE()))
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, data)

	data, err = os.ReadFile(WriteFile(t, "c.txt", "мир", Windows1251()))
	require.NoError(t, err)
	require.Len(t, data, 3)
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	require.NoError(t, err)
	require.Equal(t, "мир", string(decoded))
}

func TestBuilder_Write(t *testing.T) {
	path := NewBuilder(t).Paragraph("only").Write("one.sfb")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "only\n", string(data))
}

func TestNumbered(t *testing.T) {
	require.Equal(t, "line 1\nline 2\n", Numbered(2))
	require.Empty(t, Numbered(0))
}
