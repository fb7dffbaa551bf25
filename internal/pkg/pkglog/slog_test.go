package pkglog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func TestNewLoggerAddsServiceAndCID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "ohlcclean", slog.LevelInfo)

	ctx := SetCorrelationID(context.Background(), "cid-abc")
	logger.InfoContext(ctx, "dataset processed", "rows", 3)

	line := decodeLine(t, &buf)
	if line["service"] != "ohlcclean" {
		t.Fatalf("expected service=ohlcclean, got %v", line["service"])
	}
	if line["_cID"] != "cid-abc" {
		t.Fatalf("expected _cID=cid-abc, got %v", line["_cID"])
	}
	if line["severity"] != "INFO" {
		t.Fatalf("expected severity=INFO, got %v", line["severity"])
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("expected ts key in %v", line)
	}
	if _, ok := line["file"]; !ok {
		t.Fatalf("expected file key in %v", line)
	}
}

func TestNewLoggerSkipsMissingCID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "ohlcclean", slog.LevelInfo).With("dataset_id", "ds-1")

	logger.InfoContext(context.Background(), "hello")

	line := decodeLine(t, &buf)
	if _, ok := line["_cID"]; ok {
		t.Fatalf("did not expect _cID to be set")
	}
	if line["service"] != "ohlcclean" || line["dataset_id"] != "ds-1" {
		t.Fatalf("expected service and dataset_id attrs, got %v", line)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "ohlcclean", slog.LevelWarn)

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}
