package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry wraps an appended event with its position in the log.
type Entry struct {
	Seq        int       `json:"seq"`
	ID         uuid.UUID `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	Event      Event     `json:"-"`
}

// MarshalJSON flattens the entry into {seq, id, recorded_at, kind, description, data}.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seq         int       `json:"seq"`
		ID          uuid.UUID `json:"id"`
		RecordedAt  time.Time `json:"recorded_at"`
		Kind        Kind      `json:"kind"`
		Description string    `json:"description"`
		Undoable    bool      `json:"undoable"`
		Data        Event     `json:"data"`
	}{
		Seq:         e.Seq,
		ID:          e.ID,
		RecordedAt:  e.RecordedAt,
		Kind:        e.Event.Kind(),
		Description: Describe(e.Event),
		Undoable:    IsUndoable(e.Event),
		Data:        e.Event,
	})
}

// Log is an append-only, insertion ordered event log. Readers may run on other
// goroutines than the single writer.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{now: func() time.Time { return time.Now().UTC() }}
}

// Append records e at the end of the log and returns its entry.
func (l *Log) Append(e Event) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Seq:        len(l.entries) + 1,
		ID:         uuid.New(),
		RecordedAt: l.now(),
		Event:      e,
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Snapshot returns the events in insertion order. The slice is a copy.
func (l *Log) Snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.entries))
	for i, entry := range l.entries {
		out[i] = entry.Event
	}
	return out
}

// Entries returns a copy of all entries in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
