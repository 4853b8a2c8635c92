package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad log line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestLoggerWritesSessionLog(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "test-session")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	if err := logger.Info(CategoryChat, "message_sent", "sent message", map[string]any{"chars": 42}); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := readEvents(t, filepath.Join(dir, "sessions", "test-session.jsonl"))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Category != CategoryChat || ev.EventType != "message_sent" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.SessionID != "test-session" {
		t.Errorf("session ID not filled in: %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not filled in")
	}
}

func TestLoggerMirrorsErrors(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "s")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Error(CategoryMCP, "connect_failed", "boom", nil)
	logger.Info(CategoryMCP, "connected", "ok", nil)
	logger.Close()

	errs := readEvents(t, filepath.Join(dir, "errors.jsonl"))
	if len(errs) != 1 {
		t.Fatalf("expected only errors in errors.jsonl, got %d events", len(errs))
	}
	if errs[0].EventType != "connect_failed" {
		t.Errorf("unexpected error event: %+v", errs[0])
	}
}

func TestLoggerMinLevel(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "s")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.SetMinLevel(LevelWarn)

	logger.Debug(CategoryBus, "published", "", nil)
	logger.Info(CategoryBus, "published", "", nil)
	logger.Warn(CategoryBus, "subscriber_lagged", "", nil)
	logger.Close()

	events := readEvents(t, filepath.Join(dir, "sessions", "s.jsonl"))
	if len(events) != 1 {
		t.Fatalf("expected 1 event above min level, got %d", len(events))
	}
	if events[0].Level != LevelWarn {
		t.Errorf("expected warn event, got %+v", events[0])
	}
}

func TestDiscardLoggerIsSafe(t *testing.T) {
	logger := Discard()
	if err := logger.Info(CategoryUI, "noop", "", nil); err != nil {
		t.Errorf("Discard Info: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Discard Close: %v", err)
	}

	var nilLogger *Logger
	if err := nilLogger.Log(Event{Level: LevelInfo}); err != nil {
		t.Errorf("nil logger Log: %v", err)
	}
}
