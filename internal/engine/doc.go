// Package engine implements the layer and editing-history engine behind
// the document editor. It owns three pieces of authoritative state and
// coordinates every mutation across them:
//
//   - the layer registry, an ordered list of records whose order is the
//     renderer z-order (front is index 0)
//   - the selection model, a click-ordered id set plus the registry
//     position of the last click, which anchors range selection
//   - the history stack, bounded full-state checkpoints with a cursor,
//     giving undo, redo, and branch pruning
//
// The engine never draws. A render.Adapter receives scene commands and
// hands back opaque node handles that records store; the in-memory
// adapter in render/memscene serves tests and headless use. Commands
// mutate the renderer first and commit the model second, so a failed
// renderer call leaves the model untouched.
//
// # Commands
//
// Layer CRUD, stacking-order moves, selection, clip masks, grouping,
// duplication, and the single-slot clipboard are all engine commands.
// Each completed state-changing command records one history checkpoint;
// selection-only changes do not checkpoint but are captured inside
// every snapshot so undo restores them. Continuous interactions wrap
// their updates in BeginGesture/EndGesture to coalesce into a single
// checkpoint.
//
// # Observation
//
// Commands publish typed events on a synchronous bus after the engine
// lock is released. Subscribe with exact topics or wildcard patterns:
//
//	eng.Subscribe("layer.*", func(ctx context.Context, ev event.Event) error {
//	    ...
//	    return nil
//	})
//
// # Errors
//
// Failed commands return *OpError wrapping one of the sentinel errors
// ErrNotFound, ErrInvalidOperation, or ErrUnsupportedShape, so callers
// can branch with errors.Is while logging the full operation context.
//
// All exported methods are safe for concurrent use.
package engine
