package infra

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production")
	logger.Debug().Msg("hidden")
	logger.Info().Str("note_id", "n1").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" || entry["note_id"] != "n1" || entry["service"] != "notesrelay" {
		t.Fatalf("unexpected entry %#v", entry)
	}
}
