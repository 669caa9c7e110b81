package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestWriteAndReadEvents(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer writer.Close()

	evt := NewEvent("session-1", KindMessage)
	evt.Role = "user"
	evt.Content = "How many vacation days do I have left?"
	if err := writer.WriteEvent(evt); err != nil {
		t.Fatalf("WriteEvent failed: %v", err)
	}

	toolEvt := NewEvent("session-1", KindToolCall)
	toolEvt.ToolName = "get_balance"
	toolEvt.ToolCallID = "call_1"
	if err := writer.WriteEvent(toolEvt); err != nil {
		t.Fatalf("WriteEvent failed: %v", err)
	}

	path := writer.GetCurrentLogFile()
	if path == "" {
		t.Fatal("expected a current log file path")
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if events[0].Kind != KindMessage || events[0].Role != "user" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[0].SessionID != "session-1" {
		t.Errorf("expected session-1, got %s", events[0].SessionID)
	}
	if events[0].ID == "" || events[0].ID == events[1].ID {
		t.Error("expected unique non-empty event IDs")
	}
	if events[1].ToolName != "get_balance" {
		t.Errorf("unexpected tool name: %s", events[1].ToolName)
	}
}

func TestLogFileNameUsesDate(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer writer.Close()

	want := "events-" + time.Now().Format("2006-01-02") + ".jsonl"
	if got := filepath.Base(writer.GetCurrentLogFile()); got != want {
		t.Errorf("expected log file %s, got %s", want, got)
	}
}

func TestListLogFiles(t *testing.T) {
	dir := t.TempDir()

	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := writer.WriteEvent(NewEvent("session-1", KindSession)); err != nil {
		t.Fatalf("WriteEvent failed: %v", err)
	}
	writer.Close()

	files, err := ListLogFiles(dir)
	if err != nil {
		t.Fatalf("ListLogFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 log file, got %d", len(files))
	}
	if !strings.HasPrefix(filepath.Base(files[0]), "events-") {
		t.Errorf("unexpected log file name: %s", files[0])
	}
}

func TestReadEventsWithoutTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events-2025-01-01.jsonl")

	content := `{"id":"a","session_id":"s","timestamp":"2025-01-01T00:00:00Z","kind":"message","role":"user","content":"hi"}` + "\n" +
		`{"id":"b","session_id":"s","timestamp":"2025-01-01T00:00:01Z","kind":"message","role":"assistant","content":"hello"}`

	if err := writeFile(path, content); err != nil {
		t.Fatalf("failed to seed log file: %v", err)
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Role != "assistant" {
		t.Errorf("unexpected final event: %+v", events[1])
	}
}

func TestClosedWriterIsSafeToCloseAgain(t *testing.T) {
	writer, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
