package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"appforge/internal/check"
)

// ErrEntryNotFound reports a MarkCompleted call for an id that was never
// appended. It signals a sequencing bug upstream, not a user condition.
var ErrEntryNotFound = errors.New("log entry not found")

// EntryStatus is the visible state of a log entry. Entries are born
// running and flip to completed exactly once; there is no pending state.
type EntryStatus string

const (
	EntryRunning   EntryStatus = "running"
	EntryCompleted EntryStatus = "completed"
)

// LogEntry is the observable record of one step's execution within a run.
type LogEntry struct {
	ID        string
	Message   string
	Detail    string
	Status    EntryStatus
	CreatedAt time.Time
}

// LogChangeKind describes what happened to the log.
type LogChangeKind uint8

const (
	LogReset LogChangeKind = iota + 1
	EntryAppended
	EntryMarkedCompleted
)

// LogChange is a single mutation of the log, published to subscribers.
type LogChange struct {
	Kind  LogChangeKind
	Entry LogEntry // zero value for LogReset
}

const logSubscriberBufferCap = 64

// LogStore holds the ordered, append-only log for the current run and
// fans every mutation out to subscribers. It is owned and exclusively
// mutated by the Sequencer; screens only read.
type LogStore struct {
	mu      sync.Mutex
	entries []LogEntry
	subs    map[uint64]chan LogChange
	nextSub uint64
}

// NewLogStore returns an empty store.
func NewLogStore() *LogStore {
	return &LogStore{subs: make(map[uint64]chan LogChange)}
}

// Reset clears all entries. Idempotent; invoked at run start.
func (s *LogStore) Reset() {
	s.mu.Lock()
	s.entries = s.entries[:0]
	s.publishLocked(LogChange{Kind: LogReset})
	s.mu.Unlock()
}

// Append adds an entry, which must already be running. At most one entry
// may be running at a time; violating that is a sequencing bug.
func (s *LogStore) Append(entry LogEntry) {
	check.Assertf(entry.Status == EntryRunning, "append entry %s with status %s", entry.ID, entry.Status)

	s.mu.Lock()
	for _, e := range s.entries {
		check.Assertf(e.Status != EntryRunning, "append %s while %s still running", entry.ID, e.ID)
	}
	s.entries = append(s.entries, entry)
	s.publishLocked(LogChange{Kind: EntryAppended, Entry: entry})
	s.mu.Unlock()
}

// MarkCompleted flips the named entry to completed. An unknown id returns
// ErrEntryNotFound.
func (s *LogStore) MarkCompleted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		s.entries[i].Status = EntryCompleted
		s.publishLocked(LogChange{Kind: EntryMarkedCompleted, Entry: s.entries[i]})
		return nil
	}
	return ErrEntryNotFound
}

// Entries returns a snapshot copy of the log in append order.
func (s *LogStore) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *LogStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Subscribe registers an observer and returns the current snapshot plus a
// change channel. The channel is buffered and never blocks the store; the
// subscription ends (and the channel closes) when ctx is done.
func (s *LogStore) Subscribe(ctx context.Context) ([]LogEntry, <-chan LogChange) {
	ch := make(chan LogChange, logSubscriberBufferCap)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	snapshot := append([]LogEntry(nil), s.entries...)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(id)
	}()

	return snapshot, ch
}

// publishLocked sends a change to every subscriber without blocking.
// Caller must hold s.mu.
func (s *LogStore) publishLocked(change LogChange) {
	for _, sub := range s.subs {
		select {
		case sub <- change:
		default:
		}
	}
}

func (s *LogStore) unsubscribe(id uint64) {
	s.mu.Lock()
	ch, ok := s.subs[id]
	if ok {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
}
