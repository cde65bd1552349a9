// Package history implements the checkpoint stack behind undo and redo.
// Entries are full document snapshots indexed by a cursor: the entry at
// the cursor always reflects the current state, undo moves the cursor
// back, and recording after an undo discards the abandoned tail. The
// stack is bounded; when full, the oldest entries fall off the back.
package history

import (
	"sync"
	"time"

	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/selection"
)

// DefaultLimit is the checkpoint capacity used when none is configured.
const DefaultLimit = 100

// Entry is one checkpoint: the registry, selection, and scene state as of
// a completed command.
type Entry struct {
	Description string
	Layers      []*layer.Record
	Selection   selection.Snapshot
	Scene       []byte
	At          time.Time
}

// Stack is the bounded checkpoint stack. All methods are thread-safe.
type Stack struct {
	mu      sync.RWMutex
	entries []*Entry
	at      int
	limit   int
}

// New creates an empty stack holding at most limit entries.
func New(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack{at: -1, limit: limit}
}

// Push records a checkpoint as the new current state. Any entries ahead
// of the cursor are discarded first; if the stack then exceeds its limit
// the oldest entries are dropped.
func (h *Stack) Push(e *Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.At.IsZero() {
		e.At = time.Now()
	}

	// Abandon the redo tail.
	h.entries = h.entries[:h.at+1]
	h.entries = append(h.entries, e)
	h.at = len(h.entries) - 1

	if excess := len(h.entries) - h.limit; excess > 0 {
		kept := make([]*Entry, len(h.entries)-excess)
		copy(kept, h.entries[excess:])
		h.entries = kept
		h.at -= excess
	}
}

// Undo steps the cursor back and returns the entry to restore. It reports
// false at the oldest retained state.
func (h *Stack) Undo() (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.at <= 0 {
		return nil, false
	}
	h.at--
	return h.entries[h.at], true
}

// Redo steps the cursor forward and returns the entry to restore. It
// reports false at the newest state.
func (h *Stack) Redo() (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.at >= len(h.entries)-1 {
		return nil, false
	}
	h.at++
	return h.entries[h.at], true
}

// CanUndo reports whether a state older than the current one is retained.
func (h *Stack) CanUndo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.at > 0
}

// CanRedo reports whether an undone state is available ahead of the
// cursor.
func (h *Stack) CanRedo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.at < len(h.entries)-1
}

// Current returns the entry at the cursor, or nil when nothing has been
// recorded.
func (h *Stack) Current() *Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.at < 0 {
		return nil
	}
	return h.entries[h.at]
}

// Len returns the number of retained entries.
func (h *Stack) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Position returns the cursor index, -1 when empty.
func (h *Stack) Position() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.at
}

// Limit returns the configured capacity.
func (h *Stack) Limit() int {
	return h.limit
}

// Descriptions returns the entry descriptions oldest-first.
func (h *Stack) Descriptions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Description
	}
	return out
}

// Clear drops all entries.
func (h *Stack) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.at = -1
}
