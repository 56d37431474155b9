package lognotify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"shelter-partner/internal/domain/animals"
	"shelter-partner/internal/platform/logger"
)

func TestNotifier_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	n := New(logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf}))

	err := n.Notify(context.Background(), animals.Event{
		Outcome:    animals.OutcomeFailed,
		SocietyID:  "soc-1",
		AnimalType: animals.AnimalTypeCat,
		AnimalID:   "c-1",
		Reason:     "store write failed",
	})
	if err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected json line, got %q", buf.String())
	}
	if entry["level"] != "error" || entry["outcome"] != "failed" || entry["reason"] != "store write failed" {
		t.Fatalf("unexpected entry %#v", entry)
	}
}
