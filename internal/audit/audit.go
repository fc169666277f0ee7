package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PolarWolf314/sealnote/internal/events"
	logger "github.com/PolarWolf314/sealnote/internal/logging"
	"github.com/PolarWolf314/sealnote/internal/utils"
	"github.com/google/uuid"
)

// TimestampFormat is RFC3339 in UTC with microseconds.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`
	ID        string `json:"id"`   // Unique entry id.
	User      string `json:"user"` // System user running the command.
	Host      string `json:"host,omitempty"`
	Operation string `json:"op"` // Event kind or command name.

	// Optional fields depending on operation.
	KeyID     string   `json:"key_id,omitempty"`     // For key and authorization events.
	KeysCount int      `json:"keys_count,omitempty"` // For key-list-updated.
	Files     []string `json:"files,omitempty"`      // For encrypt/decrypt.
}

// Subscribable hands out event bus subscriptions.
type Subscribable interface {
	Subscribe() *events.Subscriber
}

// Recorder appends entries to a JSON Lines file. Writing is best-effort:
// failures are logged and never returned.
type Recorder struct {
	path string
	log  logger.Logger
	now  func() time.Time
	user string
	host string

	mu  sync.Mutex
	sub *events.Subscriber
}

// NewRecorder creates a recorder writing to path.
func NewRecorder(path string, log logger.Logger) *Recorder {
	id := utils.CurrentIdentity()
	return &Recorder{path: path, log: log, now: time.Now, user: id.User, host: id.Host}
}

// Path returns the audit log location.
func (r *Recorder) Path() string {
	return r.path
}

// Attach subscribes to every lifecycle event published through src.
func (r *Recorder) Attach(src Subscribable) {
	sub := src.Subscribe()
	for _, k := range []events.Kind{
		events.KindKeyListUpdated,
		events.KindKeyCreated,
		events.KindKeyDeleted,
		events.KindAuthorizationRequested,
	} {
		sub.On(k, r.Record)
	}

	r.mu.Lock()
	if r.sub != nil {
		r.sub.Dispose()
	}
	r.sub = sub
	r.mu.Unlock()

	sub.Start()
}

// Detach stops recording events.
func (r *Recorder) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		r.sub.Dispose()
		r.sub = nil
	}
}

// Record turns an event into an entry and appends it.
func (r *Recorder) Record(ev events.Event) {
	entry := Entry{Operation: ev.Kind().String()}
	switch e := ev.(type) {
	case events.KeyListUpdated:
		entry.KeysCount = len(e.Keys)
	case events.KeyCreated:
		entry.KeyID = e.KeyID
	case events.KeyDeleted:
		entry.KeyID = e.KeyID
	case events.AuthorizationRequested:
		entry.KeyID = e.KeyID
	}
	r.Log(entry)
}

// Log appends an entry to the audit log, filling in the timestamp, id,
// user and host when unset.
func (r *Recorder) Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = r.now().UTC().Format(TimestampFormat)
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.User == "" {
		entry.User = r.user
	}
	if entry.Host == "" {
		entry.Host = r.host
	}

	data, err := json.Marshal(entry)
	if err != nil {
		r.log.Warnf("Failed to encode audit entry: %v", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		r.log.Warnf("Failed to create audit log directory: %v", err)
		return
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		r.log.Warnf("Failed to open audit log: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		r.log.Warnf("Failed to write audit log: %v", err)
	}
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
