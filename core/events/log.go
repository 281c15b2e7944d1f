package events

import "sync"

// Entry is the flattened form of an event retained by the log.
type Entry struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Log is a bounded in-memory event sink. It satisfies Emitter and keeps the
// most recent entries for the RPC read surface; older entries are dropped.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// NewLog creates a log retaining up to limit entries. A non-positive limit
// falls back to 256.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = 256
	}
	return &Log{limit: limit}
}

// Emit records the event, evicting the oldest entry when the log is full.
func (l *Log) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Type: evt.EventType(), Attributes: evt.Attributes()})
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
}

// Recent returns up to n of the most recent entries, newest last. A
// non-positive n returns everything retained.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}
