package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CommentaryEntry is one line of the chat-like commentary log.
type CommentaryEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentaryLog keeps the last capacity entries in insertion order.
type CommentaryLog struct {
	mu       sync.RWMutex
	entries  []CommentaryEntry
	start    int // index of the oldest entry once the ring is full
	capacity int

	now func() time.Time
}

// NewCommentaryLog creates a log holding at most capacity entries.
// A capacity below one is raised to one.
func NewCommentaryLog(capacity int) *CommentaryLog {
	if capacity < 1 {
		capacity = 1
	}
	return &CommentaryLog{
		entries:  make([]CommentaryEntry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Append adds a line, evicting the oldest one when the log is full.
func (l *CommentaryLog) Append(text, origin string) {
	e := CommentaryEntry{
		ID:        uuid.NewString(),
		Text:      text,
		Origin:    origin,
		CreatedAt: l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, e)
		return
	}
	l.entries[l.start] = e
	l.start = (l.start + 1) % l.capacity
}

// Entries returns the log oldest first.
func (l *CommentaryLog) Entries() []CommentaryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]CommentaryEntry, 0, len(l.entries))
	out = append(out, l.entries[l.start:]...)
	out = append(out, l.entries[:l.start]...)
	return out
}

// Last returns the newest entry.
func (l *CommentaryLog) Last() (CommentaryEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return CommentaryEntry{}, false
	}
	i := (l.start + len(l.entries) - 1) % len(l.entries)
	return l.entries[i], true
}

// Len returns the number of entries held.
func (l *CommentaryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
