package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStreamLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("FiltersByLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStreamLogger(&buf, FormatText, WarnLevel)

		logger.Debug(ctx, "debug", nil)
		logger.Info(ctx, "info", nil)
		logger.Warn(ctx, "skipping original", Fields{"path": "./x.jpg"})
		logger.Error(ctx, "delete failed", errors.New("permission denied"), nil)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
		}
		if !strings.Contains(lines[0], "[WARN] skipping original path=./x.jpg") {
			t.Errorf("line = %q", lines[0])
		}
		if !strings.Contains(lines[1], `error="permission denied"`) {
			t.Errorf("line = %q, want quoted error", lines[1])
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStreamLogger(&buf, FormatJSON, DebugLevel).WithFields(Fields{"run_id": "r1"})
		logger.Debug(ctx, "walk", Fields{"files": 3})

		var entry map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("Failed to parse JSON log: %v", err)
		}
		if entry["level"] != "DEBUG" || entry["run_id"] != "r1" || entry["files"] != float64(3) {
			t.Errorf("entry = %v", entry)
		}
	})

	t.Run("CloseKeepsWriter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStreamLogger(&buf, FormatText, InfoLevel)
		if err := logger.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		logger.Info(ctx, "still writing", nil)
		if !strings.Contains(buf.String(), "still writing") {
			t.Error("StreamLogger should keep writing after Close")
		}
	})
}
