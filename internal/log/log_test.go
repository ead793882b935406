package log

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo,
		"warn": LevelWarn, "Warning": LevelWarn, " error ": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.ErrorContains(t, err, "unknown log level")
}

func TestLog_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelInfo)
	t.Cleanup(func() { current.Store(nil) })

	Debug(CatCursor, "hidden")
	Warn(CatCursor, "position reset", "layer", "rows", "orphan")
	ErrorErr(CatBook, "reload failed", nil)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[WARN] [cursor] position reset layer=rows orphan=<missing>\n")
	require.Contains(t, out, "[ERROR] [book] reload failed error=<nil>\n")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { current.Store(nil) })

	SetEnabled(false)
	Info(CatViewer, "quiet")
	require.Empty(t, buf.String())

	SetEnabled(true)
	SetMinLevel(LevelError)
	Info(CatViewer, "still quiet")
	require.Empty(t, buf.String())
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { current.Store(nil) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewListener(ctx)
	require.NotNil(t, l)

	done := make(chan LogEvent, 1)
	go func() {
		if ev, ok := l.Listen()().(LogEvent); ok {
			done <- ev
		}
	}()
	require.Eventually(t, func() bool {
		Info(CatWatcher, "book changed")
		select {
		case ev := <-done:
			require.Contains(t, ev.Payload, "[INFO] [watcher] book changed")
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestFormat(t *testing.T) {
	at := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)
	require.Equal(t, "2025-12-06T10:45:00 [DEBUG] [cache] hit key=a size=3\n",
		format(at, LevelDebug, CatCache, "hit", []any{"key", "a", "size", 3}))
	require.Equal(t, "2025-12-06T10:45:00 [INFO] [book] opened\n",
		format(at, LevelInfo, CatBook, "opened", nil))
}

func TestNewListener_NoLogger(t *testing.T) {
	current.Store(nil)
	require.Nil(t, NewListener(context.Background()))
}
