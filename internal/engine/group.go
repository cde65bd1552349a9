package engine

import (
	"fmt"
	"slices"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// Group collapses the currently selected layers into one group record at
// the position of the frontmost member. At least two layers must be
// selected and none may already be a group. Clip relations crossing the
// group boundary are unbound; pairs fully inside the selection stay
// bound. The new group becomes the sole selection.
func (e *Engine) Group() (layer.Record, error) {
	var rec layer.Record
	err := e.run(func() error {
		var err error
		rec, err = e.group()
		return err
	})
	return rec, err
}

func (e *Engine) group() (layer.Record, error) {
	const op = "group"

	ids := e.sel.IDs()
	if len(ids) < 2 {
		return layer.Record{}, invalidOp(op, "", "grouping needs at least two selected layers")
	}

	type member struct {
		rec *layer.Record
		idx int
	}
	members := make([]member, 0, len(ids))
	for _, lid := range ids {
		rec, err := e.reg.Get(lid)
		if err != nil {
			return layer.Record{}, opErrID(op, lid, err)
		}
		if rec.IsGroup() {
			return layer.Record{}, invalidOp(op, string(lid), "nested grouping goes through ungroup first")
		}
		if rec.Node == render.NoNode {
			return layer.Record{}, invalidOp(op, string(lid), "layer has no renderer node")
		}
		idx, err := e.reg.IndexOf(lid)
		if err != nil {
			return layer.Record{}, opErrID(op, lid, err)
		}
		members = append(members, member{rec: rec, idx: idx})
	}
	// Child order is stacking order, not click order.
	slices.SortFunc(members, func(a, b member) int { return a.idx - b.idx })
	frontIdx := members[0].idx

	inside := make(map[layer.ID]bool, len(members))
	for _, m := range members {
		inside[m.rec.ID] = true
	}

	// Unbind clip relations that would straddle the group boundary.
	for _, m := range members {
		if m.rec.ClipMaskID != layer.None && !inside[m.rec.ClipMaskID] {
			if err := e.unbindClip(op, m.rec); err != nil {
				return layer.Record{}, err
			}
		}
	}
	for _, outsider := range e.reg.Records() {
		if inside[outsider.ID] || outsider.ClipMaskID == layer.None {
			continue
		}
		if inside[outsider.ClipMaskID] {
			if err := e.unbindClip(op, outsider); err != nil {
				return layer.Record{}, err
			}
		}
	}

	handles := make([]render.NodeID, len(members))
	for i, m := range members {
		handles[i] = m.rec.Node
	}
	comp, err := e.scene.Combine(handles)
	if err != nil {
		return layer.Record{}, opErr(op, "", err)
	}

	children := make([]*layer.Record, len(members))
	childIDs := make([]layer.ID, len(members))
	for i, m := range members {
		rec, _, err := e.reg.Remove(m.rec.ID)
		if err != nil {
			return layer.Record{}, opErrID(op, m.rec.ID, err)
		}
		children[i] = rec
		childIDs[i] = rec.ID
	}

	group := &layer.Record{
		ID:        layer.ID(e.newID()),
		Name:      fmt.Sprintf("Group of %d", len(children)),
		Kind:      layer.KindGroup,
		Transform: geom.NewTransform(),
		Opacity:   1,
		Visible:   true,
		Node:      comp,
		Children:  children,
	}
	idx, err := e.reg.Insert(group, frontIdx)
	if err != nil {
		return layer.Record{}, opErrID(op, group.ID, err)
	}

	e.sel.SelectOnly(group.ID, idx)
	e.selectionChanged()

	e.log.Debug("group created", "id", group.ID, "children", len(children), "index", idx)
	e.queue(event.TopicGroupCreated, event.GroupCreated{GroupID: group.ID, ChildIDs: childIDs})
	e.checkpoint(fmt.Sprintf("Group %d layers", len(children)))
	return *group.Clone(), nil
}

// Ungroup expands a group back into its members at the group's position,
// front-first in their original relative order. Each member keeps the
// world-space placement it had inside the group. Nested groups come back
// as intact group records. The restored members become the selection.
func (e *Engine) Ungroup(gid layer.ID) error {
	return e.run(func() error { return e.ungroup(gid) })
}

func (e *Engine) ungroup(gid layer.ID) error {
	const op = "ungroup"

	group, err := e.reg.Get(gid)
	if err != nil {
		return opErrID(op, gid, err)
	}
	if !group.IsGroup() {
		return invalidOp(op, string(gid), "layer is not a group")
	}
	idx, err := e.reg.IndexOf(gid)
	if err != nil {
		return opErrID(op, gid, err)
	}

	handles, baked, err := e.scene.Decompose(group.Node)
	if err != nil {
		return opErrID(op, gid, err)
	}
	if len(handles) != len(group.Children) {
		return opErrID(op, gid, fmt.Errorf("%w: renderer returned %d nodes for %d children",
			ErrInvalidOperation, len(handles), len(group.Children)))
	}

	if _, _, err := e.reg.Remove(gid); err != nil {
		return opErrID(op, gid, err)
	}
	e.sel.Remove(gid, idx)

	childIDs := make([]layer.ID, len(group.Children))
	for i, child := range group.Children {
		child.Node = handles[i]
		child.Transform = baked[i]
		if _, err := e.reg.Insert(child, idx+i); err != nil {
			return opErrID(op, child.ID, err)
		}
		childIDs[i] = child.ID
	}

	e.sel.Replace(slices.Clone(childIDs), idx)
	e.selectionChanged()

	e.log.Debug("group dissolved", "id", gid, "children", len(childIDs), "index", idx)
	e.queue(event.TopicGroupDissolved, event.GroupDissolved{GroupID: gid, ChildIDs: childIDs})
	e.checkpoint("Ungroup")
	return nil
}
