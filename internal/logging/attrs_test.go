package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"reelforge/internal/logging"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	return record
}

func TestWarnWithContextFillsMissingFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "music skipped", "background_music",
		logging.ContentDir("/tmp/short"),
		logging.String(logging.FieldImpact, "video has no music"),
	)

	record := decodeRecord(t, &buf)
	if record["level"] != "WARN" || record[logging.FieldEventType] != "background_music" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record[logging.FieldContentDir] != "/tmp/short" {
		t.Fatalf("content dir missing from %+v", record)
	}
	if record[logging.FieldImpact] != "video has no music" {
		t.Fatalf("caller impact overwritten: %+v", record)
	}
	if hint, _ := record[logging.FieldErrorHint].(string); hint == "" {
		t.Fatalf("expected default error hint in %+v", record)
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.ErrorWithContext(logger, "speech failed", "stage_failed",
		logging.String(logging.FieldErrorHint, "check the speech API key"),
	)

	record := decodeRecord(t, &buf)
	if record["level"] != "ERROR" || record[logging.FieldErrorHint] != "check the speech API key" {
		t.Fatalf("unexpected record %+v", record)
	}
	if _, ok := record[logging.FieldImpact]; ok {
		t.Fatalf("error lines carry no default impact: %+v", record)
	}
}

func TestContextHelpersTolerateNilLogger(t *testing.T) {
	logging.WarnWithContext(nil, "ignored", "noop")
	logging.ErrorWithContext(nil, "ignored", "noop")
	logging.NewComponentLogger(nil, "catalog").Info("dropped")
}
