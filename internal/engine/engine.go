package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/engine/id"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/selection"
	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// Engine is the facade over the layer registry, selection model, history
// stack, and renderer adapter. See the package documentation for the
// command model.
type Engine struct {
	mu    sync.RWMutex
	reg   *layer.Registry
	sel   *selection.Set
	hist  *history.Stack
	scene render.Adapter
	bus   *event.Bus
	log   *slog.Logger
	newID id.Generator

	clipboard *clipboardSlot
	gesture   *gestureState
	applying  bool

	addSeq      int
	dupOffset   geom.Point
	pasteOffset geom.Point

	// queued holds events accumulated during a command, dispatched after
	// the engine lock is released so handlers can call back in.
	queued []queuedEvent
}

type queuedEvent struct {
	topic   event.Topic
	payload any
}

type gestureState struct {
	desc  string
	depth int
	dirty bool
}

// New creates an engine driving the given renderer adapter and records
// the baseline history checkpoint.
func New(scene render.Adapter, opts ...Option) (*Engine, error) {
	if scene == nil {
		return nil, fmt.Errorf("engine: nil renderer adapter")
	}

	e := &Engine{
		reg:         layer.NewRegistry(),
		sel:         selection.New(),
		hist:        history.New(DefaultHistoryLimit),
		scene:       scene,
		bus:         event.NewBus(),
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:       id.Sequential("layer"),
		dupOffset:   geom.Point{X: DefaultDuplicateOffset, Y: DefaultDuplicateOffset},
		pasteOffset: geom.Point{X: DefaultPasteOffset, Y: DefaultPasteOffset},
	}
	for _, opt := range opts {
		opt(e)
	}

	blob, err := scene.SerializeScene()
	if err != nil {
		return nil, fmt.Errorf("engine: baseline snapshot: %w", err)
	}
	e.hist.Push(&history.Entry{
		Description: "New document",
		Layers:      e.reg.Snapshot(),
		Selection:   e.sel.Snapshot(),
		Scene:       blob,
	})
	return e, nil
}

// Subscribe registers an observer for engine events. Patterns may use
// "*" for one topic segment and "**" for any tail.
func (e *Engine) Subscribe(pattern event.Topic, handler event.HandlerFunc) (*event.Subscription, error) {
	return e.bus.Subscribe(pattern, handler)
}

// Bus returns the engine's event bus for components that publish or
// observe alongside the engine.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// ===== Queries =====

// LayerCount returns the number of top-level layers.
func (e *Engine) LayerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reg.Len()
}

// Layers returns copies of the top-level records, front-first.
func (e *Engine) Layers() []layer.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := e.reg.Snapshot()
	out := make([]layer.Record, len(snap))
	for i, r := range snap {
		out[i] = *r
	}
	return out
}

// Layer returns a copy of the record with the given id.
func (e *Engine) Layer(lid layer.ID) (layer.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.reg.Get(lid)
	if err != nil {
		return layer.Record{}, opErrID("layer", lid, err)
	}
	return *rec.Clone(), nil
}

// LayerAt returns a copy of the record at the given position.
func (e *Engine) LayerAt(index int) (layer.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.reg.At(index)
	if err != nil {
		return layer.Record{}, opErrIndex("layerAt", index, err)
	}
	return *rec.Clone(), nil
}

// IndexOf returns the registry position of the given id.
func (e *Engine) IndexOf(lid layer.ID) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, err := e.reg.IndexOf(lid)
	if err != nil {
		return 0, opErrID("indexOf", lid, err)
	}
	return idx, nil
}

// ===== Internal plumbing =====

// queue schedules an event for dispatch once the engine lock releases.
func (e *Engine) queue(topic event.Topic, payload any) {
	e.queued = append(e.queued, queuedEvent{topic: topic, payload: payload})
}

// drain takes the queued events. Called with the lock held, immediately
// before releasing it.
func (e *Engine) drain() []queuedEvent {
	evs := e.queued
	e.queued = nil
	return evs
}

// dispatch publishes drained events. Called without the lock so handlers
// may issue engine commands.
func (e *Engine) dispatch(evs []queuedEvent) {
	for _, ev := range evs {
		if err := e.bus.Publish(context.Background(), ev.topic, ev.payload); err != nil {
			e.log.Warn("event handler failed", "topic", ev.topic, "error", err)
		}
	}
}

// run executes a command under the engine lock, then dispatches the
// events the command queued.
func (e *Engine) run(fn func() error) error {
	e.mu.Lock()
	err := fn()
	evs := e.drain()
	e.mu.Unlock()
	e.dispatch(evs)
	return err
}

// checkpoint records a history entry for a completed mutation. Inside a
// gesture it only marks the gesture dirty; during history application it
// does nothing.
func (e *Engine) checkpoint(desc string) {
	if e.applying {
		return
	}
	if e.gesture != nil {
		e.gesture.dirty = true
		return
	}
	e.record(desc)
}

func (e *Engine) record(desc string) {
	blob, err := e.scene.SerializeScene()
	if err != nil {
		// The mutation stands; only this checkpoint is lost.
		e.log.Error("scene snapshot failed, checkpoint skipped", "op", desc, "error", err)
		return
	}
	e.hist.Push(&history.Entry{
		Description: desc,
		Layers:      e.reg.Snapshot(),
		Selection:   e.sel.Snapshot(),
		Scene:       blob,
	})
	e.queue(event.TopicHistoryCheckpoint, event.CheckpointRecorded{
		Description: desc,
		Position:    e.hist.Position(),
		Retained:    e.hist.Len(),
	})
}

// syncProxy tells the renderer which nodes the multi-selection proxy
// spans. One or zero selected layers dismantle it.
func (e *Engine) syncProxy() {
	ids := e.sel.IDs()
	var handles []render.NodeID
	if len(ids) >= 2 {
		handles = make([]render.NodeID, 0, len(ids))
		for _, lid := range ids {
			rec, err := e.reg.Get(lid)
			if err != nil {
				continue
			}
			handles = append(handles, rec.Node)
		}
	}
	if err := e.scene.SetSelectionProxy(handles); err != nil {
		e.log.Warn("selection proxy update failed", "error", err)
	}
}

// selectionChanged refreshes the proxy and queues the selection event.
func (e *Engine) selectionChanged() {
	e.syncProxy()
	e.queue(event.TopicSelectionChanged, event.SelectionChanged{
		IDs:    e.sel.IDs(),
		Anchor: e.sel.Anchor(),
	})
}
