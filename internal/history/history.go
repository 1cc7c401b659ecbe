// Package history keeps an in-memory, append-only log of completed
// research queries.
package history

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLast is the number of entries shown when a caller does not ask
// for a specific count.
const DefaultLast = 5

// Entry records one completed query.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	Summary   string    `json:"summary"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Entry) clone() Entry {
	e.Sources = slices.Clone(e.Sources)
	return e
}

// Log is safe for concurrent use. Entries are never reordered or removed.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// New creates an empty Log.
func New() *Log {
	return &Log{now: time.Now}
}

// Push appends a copy of e. A zero ID is replaced with a time-ordered
// UUID and a zero CreatedAt with the current time. The stored entry is
// returned.
func (l *Log) Push(e Entry) Entry {
	e = e.clone()
	if e.ID == uuid.Nil {
		e.ID = newID()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.clock()
	}
	l.entries = append(l.entries, e)
	return e.clone()
}

// Last returns up to n of the most recent entries, oldest first.
func (l *Log) Last(n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	start := max(len(l.entries)-n, 0)
	return cloneAll(l.entries[start:])
}

// All returns a snapshot of every entry in insertion order.
func (l *Log) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.entries)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) clock() time.Time {
	if l.now == nil {
		return time.Now()
	}
	return l.now()
}

func cloneAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}

// newID prefers UUIDv7 so IDs sort by creation time.
func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
