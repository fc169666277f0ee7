package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PolarWolf314/sealnote/internal/events"
	"github.com/PolarWolf314/sealnote/internal/keys"
	logger "github.com/PolarWolf314/sealnote/internal/logging"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r := NewRecorder(filepath.Join(t.TempDir(), "nested", "audit.jsonl"), logger.Logger{})
	r.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 45, 123456000, time.UTC) }
	return r
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestLog_CreatesFile(t *testing.T) {
	r := newTestRecorder(t)

	r.Log(Entry{Operation: "encrypt", Files: []string{"note.md"}})

	info, err := os.Stat(r.Path())
	if os.IsNotExist(err) {
		t.Fatalf("Audit log file was not created")
	}
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %o", info.Mode().Perm())
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	r := newTestRecorder(t)

	r.Log(Entry{Operation: "encrypt"})
	r.Log(Entry{Operation: "decrypt"})

	lines := readLines(t, r.Path())
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
}

func TestLog_FillsDefaults(t *testing.T) {
	r := newTestRecorder(t)
	r.user, r.host = "alice", "laptop"

	r.Log(Entry{Operation: "encrypt"})

	entries, err := ReadEntries(r.Path())
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Timestamp != "2024-01-15T10:30:45.123456Z" {
		t.Errorf("Unexpected timestamp %q", e.Timestamp)
	}
	if len(e.ID) != 36 {
		t.Errorf("Expected uuid entry id, got %q", e.ID)
	}
	if e.User != "alice" || e.Host != "laptop" {
		t.Errorf("Expected user and host to be filled, got %+v", e)
	}
}

func TestLog_OmitsEmptyFields(t *testing.T) {
	r := newTestRecorder(t)

	r.Log(Entry{Operation: "decrypt"})

	lines := readLines(t, r.Path())
	var raw map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &raw); err != nil {
		t.Fatalf("Entry is not valid JSON: %v", err)
	}
	for _, field := range []string{"key_id", "keys_count", "files"} {
		if _, ok := raw[field]; ok {
			t.Errorf("Expected %s to be omitted, got %v", field, raw[field])
		}
	}
}

func TestLog_UnwritablePathDoesNotPanic(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	r := NewRecorder(filepath.Join(blocker, "audit.jsonl"), logger.Logger{})
	r.Log(Entry{Operation: "encrypt"})
}

func TestRecorder_AttachRecordsEvents(t *testing.T) {
	r := newTestRecorder(t)
	bus := events.NewBus(logger.Logger{})
	r.Attach(bus)

	bus.Publish(events.KeyListUpdated{Keys: []keys.Record{{ID: "a"}, {ID: "b"}}})
	bus.Publish(events.KeyCreated{KeyID: "b"})
	bus.Publish(events.AuthorizationRequested{KeyID: "a"})
	bus.Publish(events.KeyDeleted{KeyID: "a"})

	entries, err := ReadEntries(r.Path())
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}

	want := []Entry{
		{Operation: "key-list-updated", KeysCount: 2},
		{Operation: "key-created", KeyID: "b"},
		{Operation: "authorization-requested", KeyID: "a"},
		{Operation: "key-deleted", KeyID: "a"},
	}
	for i, w := range want {
		got := entries[i]
		if got.Operation != w.Operation || got.KeyID != w.KeyID || got.KeysCount != w.KeysCount {
			t.Errorf("Entry %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestRecorder_Detach(t *testing.T) {
	r := newTestRecorder(t)
	bus := events.NewBus(logger.Logger{})
	r.Attach(bus)
	r.Detach()

	bus.Publish(events.KeyCreated{KeyID: "x"})

	entries, err := ReadEntries(r.Path())
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries after Detach, got %d", len(entries))
	}
}

func TestParseEntries_ValidData(t *testing.T) {
	data := []byte(`{"ts":"2024-01-15T10:30:45.123456Z","id":"1","user":"alice","op":"key-created","key_id":"abc"}
{"ts":"2024-01-15T10:31:00.000000Z","id":"2","user":"alice","op":"encrypt","files":["a.md","b.md"]}
`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].KeyID != "abc" {
		t.Errorf("Expected key id abc, got %q", entries[0].KeyID)
	}
	if len(entries[1].Files) != 2 {
		t.Errorf("Expected 2 files, got %v", entries[1].Files)
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"op":"key-created"}
not json
{"op":"key-deleted"`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestParseEntries_EmptyData(t *testing.T) {
	entries, err := ParseEntries(nil)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if entries != nil {
		t.Errorf("Expected nil, got %v", entries)
	}
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if entries != nil {
		t.Errorf("Expected nil, got %v", entries)
	}
}
