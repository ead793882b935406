package book

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/peruse/internal/bookmark"
	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/log"
	"github.com/zjrosen/peruse/internal/pubsub"
	"github.com/zjrosen/peruse/internal/testutil"
)

const novel = "|\tThe Book\n" +
	">\tPart One\n" +
	">>\tChapter 1\n" +
	"It was the best of times.\n" +
	">>\tChapter 2\n" +
	">>\tIn Which Nothing Happens\n" +
	"It was the worst of times.\n" +
	">\tPart Two\n" +
	">>>\tA Deep Scene\n" +
	"The end.\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, name, content)
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.BlockSize = 8
	opts.BlockCount = 2
	opts.CacheSize = 4
	return opts
}

func openBook(t *testing.T, path string, opts Options) *Book {
	t.Helper()
	b, err := Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func rowTexts(t *testing.T, b *Book) []string {
	t.Helper()
	var out []string
	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		rows, err := cursor.Collect(c)
		for _, r := range rows {
			out = append(out, r.Text())
		}
		return err
	}))
	return out
}

func TestKindOf(t *testing.T) {
	require.Equal(t, Formatted, KindOf("a/b/book.sfb"))
	require.Equal(t, Formatted, KindOf("BOOK.SFB"))
	require.Equal(t, Plain, KindOf("book.txt"))
	require.Equal(t, Plain, KindOf("README"))
	require.Equal(t, "formatted", Formatted.String())
}

func TestOpen_Plain(t *testing.T) {
	path := writeFile(t, "notes.txt", "first line\r\nsecond\r\n\r\nlast")
	b := openBook(t, path, smallOptions())

	require.Equal(t, Plain, b.Kind())
	require.Equal(t, "notes.txt", b.Name())
	require.Equal(t, []string{"first line", "second", "", "last"}, rowTexts(t, b))
}

func TestOpen_Formatted(t *testing.T) {
	b := openBook(t, writeFile(t, "novel.sfb", novel), smallOptions())

	rows := rowTexts(t, b)
	require.Equal(t, "The Book", rows[0])
	require.Equal(t, "The end.", rows[len(rows)-1])
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"), DefaultOptions())
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(writeFile(t, "empty.txt", ""), DefaultOptions())
	require.ErrorIs(t, err, ErrEmptyBook)
}

func TestSetWidth_KeepsParagraph(t *testing.T) {
	opts := smallOptions()
	opts.Width = 10
	b := openBook(t, writeFile(t, "p.txt", "intro\naaa bbb ccc ddd eee\nafter"), opts)

	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		_, err := cursor.Skip(c, 3)
		require.Equal(t, "eee", c.Current().Text())
		return err
	}))

	require.NoError(t, b.SetWidth(80))
	require.Equal(t, 80, b.Width())
	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		require.Equal(t, "aaa bbb ccc ddd eee", c.Current().Text())
		require.NoError(t, c.Prev())
		require.Equal(t, "intro", c.Current().Text())
		return nil
	}))
}

func TestReload_RestoresPosition(t *testing.T) {
	path := writeFile(t, "live.txt", "one\ntwo\nthree\n")
	b := openBook(t, path, smallOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Events().Subscribe(ctx)

	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		_, err := cursor.Skip(c, 1)
		return err
	}))

	require.NoError(t, os.WriteFile(path, []byte("one\nTWO\nthree\nfour\n"), 0o600))
	require.NoError(t, b.Reload())

	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		require.Equal(t, "TWO", c.Current().Text())
		require.NoError(t, c.Next())
		require.NoError(t, c.Next())
		require.Equal(t, "four", c.Current().Text())
		return nil
	}))

	select {
	case ev := <-events:
		require.Equal(t, pubsub.Reloaded, ev.Type)
		require.Equal(t, path, ev.Payload.Path)
	case <-time.After(time.Second):
		require.Fail(t, "no reload event")
	}
}

func TestReload_FallsBackToStart(t *testing.T) {
	path := writeFile(t, "shrink.txt", strings.Repeat("line\n", 20)+"tail")
	b := openBook(t, path, smallOptions())

	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		_, err := cursor.Skip(c, 20)
		require.Equal(t, "tail", c.Current().Text())
		return err
	}))

	require.NoError(t, os.WriteFile(path, []byte("short\nfile"), 0o600))
	require.NoError(t, b.Reload())
	require.Equal(t, []string{"short", "file"}, rowTexts(t, b))
}

func TestTOCPositionsRestoreIntoRows(t *testing.T) {
	path := writeFile(t, "novel.sfb", novel)
	opts := smallOptions()
	toc, err := BuildTOC(path, opts)
	require.NoError(t, err)

	b := openBook(t, path, opts)
	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		part2 := toc[1]
		require.NoError(t, c.SetPosition(part2.Position))
		require.Equal(t, "Part Two", c.Current().Text())
		require.NoError(t, c.Prev())
		require.Equal(t, "It was the worst of times.", c.Current().Text())
		return nil
	}))
}

func TestBuildTOC(t *testing.T) {
	toc, err := BuildTOC(writeFile(t, "novel.sfb", novel), smallOptions())
	require.NoError(t, err)

	var got []string
	bookmark.Walk(toc, func(b bookmark.Bookmark, depth int) {
		got = append(got, strings.Repeat("  ", depth)+b.Label)
		require.True(t, b.ID.IsValid())
	})
	require.Equal(t, []string{
		"Part One",
		"  Chapter 1",
		"  Chapter 2\nIn Which Nothing Happens",
		"Part Two",
		"  A Deep Scene",
		"    A Deep Scene",
	}, got)
}

func TestBook_TOCLeavesRowsInPlace(t *testing.T) {
	b := openBook(t, writeFile(t, "novel.sfb", novel), smallOptions())
	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		_, err := cursor.Skip(c, 2)
		return err
	}))
	before := b.Rows()

	toc, err := b.TOC()
	require.NoError(t, err)
	require.Len(t, toc, 2)
	require.Same(t, before, b.Rows())
	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		require.Equal(t, "Chapter 1", c.Current().Text())
		return nil
	}))
}

func TestBuildTOC_Plain(t *testing.T) {
	toc, err := BuildTOC(writeFile(t, "plain.txt", ">\tnot a heading here"), smallOptions())
	require.NoError(t, err)
	require.Empty(t, toc)
}

func TestKey(t *testing.T) {
	path := writeFile(t, "keyed.txt", "content")
	k1, err := Key(path)
	require.NoError(t, err)
	k2, err := Key(path)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.True(t, strings.HasSuffix(k1, "-keyed.txt"))
	require.Regexp(t, `^[0-9A-F]{8}-[0-9A-F]{8}-keyed\.txt$`, k1)

	require.NoError(t, os.WriteFile(path, []byte("longer content"), 0o600))
	k3, err := Key(path)
	require.NoError(t, err)
	require.NotEqual(t, k1, k3)

	_, err = Key(filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
}

func TestCount(t *testing.T) {
	c, err := Count(writeFile(t, "count.txt", "one two\nthree\n\n  four  "), smallOptions())
	require.NoError(t, err)
	require.Equal(t, Counts{Lines: 4, Words: 4, Chars: 23}, c)

	c, err = Count(writeFile(t, "blank.txt", "   \n"), smallOptions())
	require.NoError(t, err)
	require.Equal(t, int64(0), c.Words)
}

func TestTracedBook(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	opts := smallOptions()
	opts.Tracer = tp.Tracer("test")
	b := openBook(t, writeFile(t, "t.txt", "a\nb\nc"), opts)

	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		_, err := cursor.Skip(c, 2)
		return err
	}))

	stats, ok := b.Stats()
	require.True(t, ok)
	require.Equal(t, int64(2), stats.Next)
	require.Len(t, rec.Ended(), 2)
	require.Equal(t, "cursor.rows.next", rec.Ended()[0].Name())

	plain := openBook(t, writeFile(t, "u.txt", "a"), smallOptions())
	_, ok = plain.Stats()
	require.False(t, ok)
}

func TestLoggedBook(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf, log.LevelDebug)
	t.Cleanup(func() { log.InitWriter(io.Discard, log.LevelWarn) })

	opts := smallOptions()
	opts.LogCursors = true
	b := openBook(t, writeFile(t, "t.txt", "a\nb\nc"), opts)

	require.NoError(t, b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		_, err := cursor.Skip(c, 2)
		return err
	}))
	require.Contains(t, buf.String(), "[DEBUG] [cursor] cursor call layer=layout op=next")
}
