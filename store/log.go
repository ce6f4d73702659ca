package store

import (
	"sync"
	"time"
)

// Log entry kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

// Entry is one usage-log record.
type Entry struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"type"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
}

// Filter selects and pages log entries. Kind empty means all kinds.
// Page is 1-based.
type Filter struct {
	Kind  string
	Page  int
	Limit int
}

// Page is one page of query results, newest first.
type Page struct {
	Entries    []Entry `json:"logs"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}

// LogStore is the usage-log capability handed to the workflow and the HTTP
// layer. Implementations must tolerate concurrent appends from unrelated
// sessions.
type LogStore interface {
	Append(kind, message, details string)
	Query(f Filter) Page
}

// Ring is a bounded FIFO log store: once capacity is reached the oldest
// entry is evicted. IDs are monotonic across evictions.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
	nextID  uint64
}

// DefaultLogCapacity matches the original service's bound.
const DefaultLogCapacity = 1000

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Ring{
		entries: make([]Entry, 0, capacity),
		cap:     capacity,
		nextID:  1,
	}
}

func (r *Ring) Append(kind, message, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == r.cap {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:r.cap-1]
	}
	r.entries = append(r.entries, Entry{
		ID:        r.nextID,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Message:   message,
		Details:   details,
	})
	r.nextID++
}

func (r *Ring) Query(f Filter) Page {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	r.mu.Lock()
	matched := make([]Entry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- { // newest first
		if f.Kind == "" || r.entries[i].Kind == f.Kind {
			matched = append(matched, r.entries[i])
		}
	}
	r.mu.Unlock()

	total := len(matched)
	totalPages := (total + f.Limit - 1) / f.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}

	return Page{
		Entries:    matched[start:end],
		Total:      total,
		Page:       f.Page,
		TotalPages: totalPages,
	}
}
