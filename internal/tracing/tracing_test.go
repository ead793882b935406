package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/peruse/internal/cursor"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(DefaultConfig())
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())

	_, span := p.Tracer().Start(context.Background(), "ignored")
	require.False(t, span.IsRecording())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "carrier-pigeon"})
	require.ErrorContains(t, err, "unsupported exporter")

	_, err = NewProvider(Config{Enabled: true, Exporter: ExporterFile})
	require.ErrorContains(t, err, "file_path required")
}

func TestNewProvider_NoExporterStillRecords(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: ExporterNone})
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	require.True(t, p.Enabled())
	_, span := p.Tracer().Start(context.Background(), "recorded")
	require.True(t, span.IsRecording())
	span.End()
}

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []SpanRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r SpanRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		out = append(out, r)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestFileExporter_WritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "spans.jsonl")
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.FilePath = path
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	ctx, parent := p.Tracer().Start(context.Background(), "page")
	_, child := p.Tracer().Start(ctx, "row")
	child.SetAttributes(attribute.Int("rows", 3))
	child.SetStatus(codes.Error, "out of range")
	child.End()
	parent.End()
	require.NoError(t, p.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	require.Equal(t, "row", records[0].Name)
	require.Equal(t, "ERROR", records[0].Status)
	require.Equal(t, "out of range", records[0].StatusMsg)
	require.Equal(t, float64(3), records[0].Attributes["rows"])
	require.Equal(t, records[1].SpanID, records[0].ParentID)
	require.Equal(t, "UNSET", records[1].Status)
}

func TestFileExporter_TracedCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.jsonl")
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.FilePath = path
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	items, err := cursor.NewArray([]string{"a", "b"})
	require.NoError(t, err)
	c := cursor.NewTraced[string](context.Background(), items, p.Tracer(), "lines")
	require.NoError(t, c.Next())
	require.True(t, errors.Is(c.Next(), cursor.ErrOutOfRange))
	require.NoError(t, p.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	require.Equal(t, "cursor.lines.next", records[0].Name)
	require.Equal(t, "UNSET", records[0].Status)
	require.Equal(t, "ERROR", records[1].Status)
	require.Equal(t, "lines", records[1].Attributes[cursor.AttrLayer])
}

func TestFileExporter_ShutdownTwice(t *testing.T) {
	e, err := NewFileExporter(filepath.Join(t.TempDir(), "x.jsonl"))
	require.NoError(t, err)
	require.NoError(t, e.Shutdown(context.Background()))
	require.NoError(t, e.Shutdown(context.Background()))
	require.Error(t, e.ExportSpans(context.Background(), nil))
}
