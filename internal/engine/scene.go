package engine

import (
	"slices"

	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// Resync rebuilds the renderer scene from the registry, the recovery
// path for a renderer that has drifted from the model. Every record gets
// a fresh node; ids, order, clip relations, and selection all survive.
// Resync is not itself a history checkpoint.
func (e *Engine) Resync() error {
	return e.run(func() error {
		if err := e.scene.RestoreScene(nil); err != nil {
			return opErr("resync", "", err)
		}
		recs := e.reg.Records()
		if err := e.materializeSet(recs); err != nil {
			return opErr("resync", "", err)
		}
		for i, rec := range recs {
			if err := e.scene.SetZOrder(rec.Node, i); err != nil {
				return opErrID("resync", rec.ID, err)
			}
		}
		e.syncProxy()
		e.log.Info("scene resynchronized", "layers", len(recs))
		e.queue(event.TopicDocumentReset, event.DocumentReset{Reason: "resync"})
		return nil
	})
}

// materializeSet creates renderer nodes for every record in the set,
// recursively for group children, overwriting any handles the records
// carried. Records serving as masks come up hidden and locked, and clip
// relations are rebound once all nodes exist. On error every node this
// call created is removed again.
func (e *Engine) materializeSet(recs []*layer.Record) error {
	var added []render.NodeID

	fail := func(err error) error {
		for _, n := range added {
			if rmErr := e.scene.RemoveNode(n); rmErr != nil {
				e.log.Error("materialize rollback failed", "node", n, "error", rmErr)
			}
		}
		return err
	}

	var addRec func(r *layer.Record) error
	addRec = func(r *layer.Record) error {
		if r.IsGroup() {
			handles := make([]render.NodeID, len(r.Children))
			for i, child := range r.Children {
				if err := addRec(child); err != nil {
					return err
				}
				handles[i] = child.Node
			}
			comp, err := e.scene.Combine(handles)
			if err != nil {
				return err
			}
			// The members now live inside the composite; the composite
			// is what a rollback must remove.
			added = slices.DeleteFunc(added, func(n render.NodeID) bool {
				return slices.Contains(handles, n)
			})
			added = append(added, comp)
			r.Node = comp
			return e.scene.SetTransform(comp, r.Transform)
		}

		node, err := e.scene.AddNode(r.Descriptor())
		if err != nil {
			return err
		}
		added = append(added, node)
		r.Node = node
		if r.IsClipMask {
			if err := e.scene.SetOpacity(node, 0); err != nil {
				return err
			}
			if err := e.scene.SetLocked(node, true); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range recs {
		if err := addRec(r); err != nil {
			return fail(err)
		}
	}

	if err := e.rebindClips(recs); err != nil {
		return fail(err)
	}
	return nil
}

// rebindClips reapplies clip descriptors for every masked record in the
// set, resolving masks inside the set first and falling back to the
// registry. A reference that resolves nowhere is cleared.
func (e *Engine) rebindClips(recs []*layer.Record) error {
	var walk func(r *layer.Record) error
	walk = func(r *layer.Record) error {
		if r.ClipMaskID != layer.None {
			mask := findRecord(recs, r.ClipMaskID)
			if mask == nil {
				if m, err := e.reg.Get(r.ClipMaskID); err == nil {
					mask = m
				}
			}
			if mask == nil {
				r.ClipMaskID = layer.None
			} else {
				clip := &render.ClipDescriptor{
					Shape:    clipShape(mask),
					Size:     mask.Size,
					Relative: mask.Transform.RelativeTo(r.Transform),
				}
				if err := e.scene.SetClip(r.Node, clip); err != nil {
					return err
				}
			}
		}
		for _, c := range r.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range recs {
		if err := walk(r); err != nil {
			return err
		}
	}
	return nil
}

// findRecord searches the set and every nested child for the given id.
func findRecord(recs []*layer.Record, id layer.ID) *layer.Record {
	for _, r := range recs {
		if r.ID == id {
			return r
		}
		if found := findRecord(r.Children, id); found != nil {
			return found
		}
	}
	return nil
}
