package layer

import (
	"errors"
	"slices"
	"sync"
)

// Errors returned by registry operations.
var (
	ErrNotFound        = errors.New("layer not found")
	ErrIndexOutOfRange = errors.New("layer index out of range")
	ErrDuplicateID     = errors.New("duplicate layer id")
)

// Registry is the ordered collection of top-level layer records. Position
// 0 is the front of the canvas; the registry's order is authoritative for
// renderer z-order. All methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	records []*Record
	index   map[ID]*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[ID]*Record)}
}

// Len returns the number of top-level records.
func (rg *Registry) Len() int {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return len(rg.records)
}

// Insert places a record at the given position, clamped to [0, Len].
// It returns the actual position used.
func (rg *Registry) Insert(rec *Record, at int) (int, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	if _, exists := rg.index[rec.ID]; exists {
		return 0, ErrDuplicateID
	}
	if at < 0 {
		at = 0
	}
	if at > len(rg.records) {
		at = len(rg.records)
	}
	rg.records = slices.Insert(rg.records, at, rec)
	rg.index[rec.ID] = rec
	return at, nil
}

// Remove takes the record with the given id out of the registry and
// returns it along with the position it held.
func (rg *Registry) Remove(id ID) (*Record, int, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	idx := rg.indexOfLocked(id)
	if idx < 0 {
		return nil, 0, ErrNotFound
	}
	rec := rg.records[idx]
	rg.records = slices.Delete(rg.records, idx, idx+1)
	delete(rg.index, id)
	return rec, idx, nil
}

// Get returns the record with the given id.
func (rg *Registry) Get(id ID) (*Record, error) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	rec, ok := rg.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Has reports whether a record with the given id exists.
func (rg *Registry) Has(id ID) bool {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	_, ok := rg.index[id]
	return ok
}

// At returns the record at the given position.
func (rg *Registry) At(index int) (*Record, error) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	if index < 0 || index >= len(rg.records) {
		return nil, ErrIndexOutOfRange
	}
	return rg.records[index], nil
}

// IndexOf returns the position of the record with the given id.
func (rg *Registry) IndexOf(id ID) (int, error) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	idx := rg.indexOfLocked(id)
	if idx < 0 {
		return 0, ErrNotFound
	}
	return idx, nil
}

func (rg *Registry) indexOfLocked(id ID) int {
	return slices.IndexFunc(rg.records, func(r *Record) bool { return r.ID == id })
}

// Move relocates the record at from to position to, with to clamped to
// the valid range. It returns the clamped destination and whether the
// order actually changed. An out-of-range from is reported as unmoved.
func (rg *Registry) Move(from, to int) (int, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	n := len(rg.records)
	if from < 0 || from >= n {
		return from, false
	}
	if to < 0 {
		to = 0
	}
	if to >= n {
		to = n - 1
	}
	if from == to {
		return to, false
	}

	rec := rg.records[from]
	rg.records = slices.Delete(rg.records, from, from+1)
	rg.records = slices.Insert(rg.records, to, rec)
	return to, true
}

// Records returns the top-level records front-first. The slice is a copy;
// the records are shared.
func (rg *Registry) Records() []*Record {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return slices.Clone(rg.records)
}

// IDs returns the record ids front-first.
func (rg *Registry) IDs() []ID {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	ids := make([]ID, len(rg.records))
	for i, r := range rg.records {
		ids[i] = r.ID
	}
	return ids
}

// Snapshot returns deep copies of all records front-first, suitable for
// history entries.
func (rg *Registry) Snapshot() []*Record {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	snap := make([]*Record, len(rg.records))
	for i, r := range rg.records {
		snap[i] = r.Clone()
	}
	return snap
}

// Restore replaces the registry contents with deep copies of the given
// snapshot.
func (rg *Registry) Restore(snapshot []*Record) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	rg.records = make([]*Record, len(snapshot))
	rg.index = make(map[ID]*Record, len(snapshot))
	for i, r := range snapshot {
		cp := r.Clone()
		rg.records[i] = cp
		rg.index[cp.ID] = cp
	}
}

// MaskReferents returns the records whose ClipMaskID references the given
// mask id, front-first.
func (rg *Registry) MaskReferents(maskID ID) []*Record {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	var refs []*Record
	for _, r := range rg.records {
		if r.ClipMaskID == maskID {
			refs = append(refs, r)
		}
	}
	return refs
}
