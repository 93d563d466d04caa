package ui

import (
	"fmt"
	"os"
	"sync"

	"appforge/internal/pipeline"
)

// LineWriter prints one plain line per log status change, for
// non-interactive terminals and CI output.
type LineWriter struct {
	mu   sync.Mutex
	seen map[string]pipeline.EntryStatus
}

// NewLineWriter creates a LineWriter.
func NewLineWriter() *LineWriter {
	return &LineWriter{seen: make(map[string]pipeline.EntryStatus)}
}

// OnEntries prints a line for every entry whose status changed since the
// previous snapshot.
func (w *LineWriter) OnEntries(entries []pipeline.LogEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range entries {
		if prev, ok := w.seen[e.ID]; ok && prev == e.Status {
			continue
		}
		w.seen[e.ID] = e.Status
		fmt.Fprintln(os.Stderr, formatEntryLine(e))
	}
}

func formatEntryLine(e pipeline.LogEntry) string {
	switch e.Status {
	case pipeline.EntryRunning:
		if e.Detail != "" {
			return fmt.Sprintf("  [->] %s (%s)", e.Message, e.Detail)
		}
		return fmt.Sprintf("  [->] %s", e.Message)
	case pipeline.EntryCompleted:
		return fmt.Sprintf("  [ok] %s", e.Message)
	default:
		return fmt.Sprintf("  [..] %s", e.Message)
	}
}
