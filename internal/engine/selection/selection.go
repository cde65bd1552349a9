// Package selection tracks which layers are selected and the registry
// position of the most recent click, which anchors range selection.
// Selection order is click order, not stacking order.
package selection

import (
	"slices"
	"sync"

	"github.com/dshills/strata/internal/engine/layer"
)

// NoAnchor marks the absence of a range anchor.
const NoAnchor = -1

// Set is the mutable selection state. All methods are thread-safe.
type Set struct {
	mu     sync.RWMutex
	ids    []layer.ID
	anchor int
}

// Snapshot is an immutable copy of selection state for history entries.
type Snapshot struct {
	IDs    []layer.ID
	Anchor int
}

// New creates an empty selection.
func New() *Set {
	return &Set{anchor: NoAnchor}
}

// SelectOnly makes id the sole selected layer and anchors at its registry
// position.
func (s *Set) SelectOnly(id layer.ID, position int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = []layer.ID{id}
	s.anchor = position
}

// Toggle flips membership of id, anchoring at its registry position. It
// reports whether the id is selected afterward.
func (s *Set) Toggle(id layer.ID, position int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.anchor = position
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Replace swaps in a whole new selection, used for range selection. The
// anchor keeps pointing at the position the range was grown from.
func (s *Set) Replace(ids []layer.ID, anchor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = slices.Clone(ids)
	s.anchor = anchor
}

// Clear empties the selection and drops the anchor.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.anchor = NoAnchor
}

// Remove drops id from the selection if present. When the removed layer
// sat at the anchored position the anchor is cleared; anchors behind the
// removed position shift forward so they keep naming the same layer.
func (s *Set) Remove(id layer.ID, position int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
	switch {
	case s.anchor == position:
		s.anchor = NoAnchor
	case s.anchor > position:
		s.anchor--
	}
}

// AdjustForMove updates the anchor after a registry reorder from one
// position to another, keeping it attached to the same layer.
func (s *Set) AdjustForMove(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.anchor == NoAnchor:
	case s.anchor == from:
		s.anchor = to
	case from < s.anchor && to >= s.anchor:
		s.anchor--
	case from > s.anchor && to <= s.anchor:
		s.anchor++
	}
}

// Contains reports whether id is selected.
func (s *Set) Contains(id layer.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.ids, id)
}

// IDs returns the selected ids in click order.
func (s *Set) IDs() []layer.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ids)
}

// Count returns the number of selected layers.
func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Anchor returns the registry position of the last click, or NoAnchor.
func (s *Set) Anchor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchor
}

// Snapshot captures the selection for a history entry.
func (s *Set) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{IDs: slices.Clone(s.ids), Anchor: s.anchor}
}

// Restore replaces the selection with a snapshot.
func (s *Set) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = slices.Clone(snap.IDs)
	s.anchor = snap.Anchor
}
