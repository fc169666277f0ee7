package workflows

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/sealnote/internal/audit"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Path is the audit log file.
	Path string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// KeyID filters entries by key id prefix.
	KeyID string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrNoFilesFound if no audit log exists.
// Returns ErrInvalidDateFormat if the date format is invalid.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	data, err := os.ReadFile(opts.Path)
	if os.IsNotExist(err) {
		return nil, kerrors.ErrNoFilesFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	entries, err := audit.ParseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parsing audit log: %w", err)
	}

	keep, err := opts.predicates()
	if err != nil {
		return nil, err
	}

	filtered := make([]audit.Entry, 0, len(entries))
	for _, e := range entries {
		if matchesAll(e, keep) {
			filtered = append(filtered, e)
		}
	}

	// The limit keeps the most recent entries.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[len(filtered)-opts.Limit:]
	}
	if opts.Reverse {
		slices.Reverse(filtered)
	}

	return &LogResult{Entries: filtered, TotalEntriesBeforeFilter: len(entries)}, nil
}

type entryPredicate func(audit.Entry) bool

func matchesAll(e audit.Entry, preds []entryPredicate) bool {
	for _, p := range preds {
		if !p(e) {
			return false
		}
	}
	return true
}

// predicates turns the filter options into entry tests.
func (opts LogOptions) predicates() ([]entryPredicate, error) {
	var preds []entryPredicate

	if opts.Operations != "" {
		wanted := make(map[string]bool)
		for _, op := range strings.Split(opts.Operations, ",") {
			if op = strings.ToLower(strings.TrimSpace(op)); op != "" {
				wanted[op] = true
			}
		}
		preds = append(preds, func(e audit.Entry) bool {
			return wanted[strings.ToLower(e.Operation)]
		})
	}

	if opts.KeyID != "" {
		prefix := strings.TrimSuffix(opts.KeyID, "...")
		preds = append(preds, func(e audit.Entry) bool {
			return e.KeyID != "" && strings.HasPrefix(e.KeyID, prefix)
		})
	}

	if opts.Since != "" {
		since, err := time.Parse(dateLayout, opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Since)
		}
		preds = append(preds, func(e audit.Entry) bool {
			t, err := parseTimestamp(e.Timestamp)
			return err == nil && !t.Before(since)
		})
	}

	if opts.Until != "" {
		until, err := time.Parse(dateLayout, opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Until)
		}
		// Until is inclusive of the whole day.
		end := until.AddDate(0, 0, 1)
		preds = append(preds, func(e audit.Entry) bool {
			t, err := parseTimestamp(e.Timestamp)
			return err == nil && t.Before(end)
		})
	}

	return preds, nil
}

const dateLayout = "2006-01-02"

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(audit.TimestampFormat, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS format.
func FormatDateTime(ts string) string {
	t, err := parseTimestamp(ts)
	if err != nil {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails formats the details for a log entry.
func FormatDetails(e audit.Entry) string {
	switch {
	case len(e.Files) > 3:
		return fmt.Sprintf("%d files", len(e.Files))
	case len(e.Files) > 0:
		return strings.Join(e.Files, ", ")
	case e.KeyID != "":
		return keys.ShortID(e.KeyID)
	case e.Operation == "key-list-updated":
		return fmt.Sprintf("%d keys", e.KeysCount)
	default:
		return ""
	}
}
