package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLoggerToTagsServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "mcp", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "meeting_id", "m1")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected a single json record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "kept" || record["service"] != "mcp" || record["meeting_id"] != "m1" {
		t.Fatalf("unexpected record: %v", record)
	}
}
