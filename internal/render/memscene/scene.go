// Package memscene is the in-process reference implementation of
// render.Adapter. It maintains a scene graph of plain structs with no
// drawing backend, which makes it the adapter of choice for tests,
// headless scripting, and the terminal preview.
package memscene

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/style"
	"github.com/dshills/strata/internal/render"
)

type node struct {
	id        render.NodeID
	kind      string
	shape     string
	text      string
	source    string
	size      geom.Size
	transform geom.Transform
	paint     style.Paint
	opacity   float64
	blend     style.BlendMode
	visible   bool
	locked    bool
	clip      *render.ClipDescriptor
	children  []*node
	parent    *node
}

// Scene is an in-memory scene graph. The top-level z-order runs
// front-first: index 0 draws on top. All methods are thread-safe.
type Scene struct {
	mu     sync.RWMutex
	nextID render.NodeID
	order  []*node
	nodes  map[render.NodeID]*node
	proxy  []render.NodeID
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{nodes: make(map[render.NodeID]*node)}
}

var _ render.Adapter = (*Scene)(nil)

func (s *Scene) allocID() render.NodeID {
	s.nextID++
	return s.nextID
}

func (s *Scene) lookup(id render.NodeID) (*node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("memscene: node %d: %w", id, render.ErrUnknownNode)
	}
	return n, nil
}

func (s *Scene) topLevel(id render.NodeID) (*node, int, error) {
	n, err := s.lookup(id)
	if err != nil {
		return nil, 0, err
	}
	if n.parent != nil {
		return nil, 0, fmt.Errorf("memscene: node %d is a composite member", id)
	}
	idx := slices.Index(s.order, n)
	return n, idx, nil
}

// AddNode creates a node from the descriptor at the front of the z-order.
func (s *Scene) AddNode(desc render.Descriptor) (render.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &node{
		id:        s.allocID(),
		kind:      desc.Kind,
		shape:     desc.Shape,
		text:      desc.Text,
		source:    desc.Source,
		size:      desc.Size,
		transform: desc.Transform,
		paint:     desc.Paint,
		opacity:   desc.Opacity,
		blend:     desc.Blend,
		visible:   desc.Visible,
		locked:    desc.Locked,
	}
	s.order = slices.Insert(s.order, 0, n)
	s.nodes[n.id] = n
	return n.id, nil
}

// RemoveNode deletes a top-level node and, for composites, every
// descendant with it.
func (s *Scene) RemoveNode(id render.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, idx, err := s.topLevel(id)
	if err != nil {
		return err
	}
	s.order = slices.Delete(s.order, idx, idx+1)
	s.forget(n)
	return nil
}

func (s *Scene) forget(n *node) {
	delete(s.nodes, n.id)
	for _, c := range n.children {
		s.forget(c)
	}
}

// CloneNode deep-copies a node under fresh handles and places the copy at
// the front of the z-order.
func (s *Scene) CloneNode(id render.NodeID) (render.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return render.NoNode, err
	}
	cp := s.deepCopy(n)
	cp.parent = nil
	s.order = slices.Insert(s.order, 0, cp)
	return cp.id, nil
}

func (s *Scene) deepCopy(n *node) *node {
	cp := *n
	cp.id = s.allocID()
	if n.clip != nil {
		clip := *n.clip
		cp.clip = &clip
	}
	cp.children = make([]*node, len(n.children))
	for i, c := range n.children {
		cc := s.deepCopy(c)
		cc.parent = &cp
		cp.children[i] = cc
	}
	s.nodes[cp.id] = &cp
	return &cp
}

// SetZOrder moves a top-level node to the given position, clamped.
func (s *Scene) SetZOrder(id render.NodeID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveTo(id, index)
}

// BringForward moves the node one step toward the front.
func (s *Scene) BringForward(id render.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx, err := s.topLevel(id)
	if err != nil {
		return err
	}
	return s.moveTo(id, idx-1)
}

// SendBackward moves the node one step toward the back.
func (s *Scene) SendBackward(id render.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx, err := s.topLevel(id)
	if err != nil {
		return err
	}
	return s.moveTo(id, idx+1)
}

// BringToFront moves the node to position 0.
func (s *Scene) BringToFront(id render.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveTo(id, 0)
}

// SendToBack moves the node to the last position.
func (s *Scene) SendToBack(id render.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveTo(id, len(s.order)-1)
}

func (s *Scene) moveTo(id render.NodeID, index int) error {
	n, idx, err := s.topLevel(id)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index >= len(s.order) {
		index = len(s.order) - 1
	}
	if index == idx {
		return nil
	}
	s.order = slices.Delete(s.order, idx, idx+1)
	s.order = slices.Insert(s.order, index, n)
	return nil
}

// SetVisible updates node visibility.
func (s *Scene) SetVisible(id render.NodeID, visible bool) error {
	return s.mutate(id, func(n *node) { n.visible = visible })
}

// SetLocked updates node interactivity.
func (s *Scene) SetLocked(id render.NodeID, locked bool) error {
	return s.mutate(id, func(n *node) { n.locked = locked })
}

// SetOpacity updates node opacity.
func (s *Scene) SetOpacity(id render.NodeID, opacity float64) error {
	return s.mutate(id, func(n *node) { n.opacity = opacity })
}

// SetBlend updates the node blend mode.
func (s *Scene) SetBlend(id render.NodeID, blend style.BlendMode) error {
	return s.mutate(id, func(n *node) { n.blend = blend })
}

// SetPaint updates node paint.
func (s *Scene) SetPaint(id render.NodeID, paint style.Paint) error {
	return s.mutate(id, func(n *node) { n.paint = paint })
}

// SetTransform updates node placement.
func (s *Scene) SetTransform(id render.NodeID, tr geom.Transform) error {
	return s.mutate(id, func(n *node) { n.transform = tr })
}

// SetClip installs a copy of the clip descriptor, or clears it when nil.
func (s *Scene) SetClip(id render.NodeID, clip *render.ClipDescriptor) error {
	return s.mutate(id, func(n *node) {
		if clip == nil {
			n.clip = nil
			return
		}
		cp := *clip
		n.clip = &cp
	})
}

func (s *Scene) mutate(id render.NodeID, fn func(*node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(id)
	if err != nil {
		return err
	}
	fn(n)
	return nil
}

// Combine wraps the given top-level nodes in a composite placed at the
// frontmost member's position. Members become children in the order
// given, keeping their transforms, which are relative to the composite's
// identity transform.
func (s *Scene) Combine(ids []render.NodeID) (render.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		return render.NoNode, fmt.Errorf("memscene: combine: no members")
	}

	members := make([]*node, len(ids))
	front := len(s.order)
	for i, id := range ids {
		n, idx, err := s.topLevel(id)
		if err != nil {
			return render.NoNode, err
		}
		members[i] = n
		if idx < front {
			front = idx
		}
	}

	comp := &node{
		id:        s.allocID(),
		kind:      render.KindComposite,
		transform: geom.NewTransform(),
		opacity:   1,
		visible:   true,
		children:  members,
	}
	s.order = slices.DeleteFunc(s.order, func(n *node) bool {
		return slices.Contains(members, n)
	})
	for _, m := range members {
		m.parent = comp
	}
	if front > len(s.order) {
		front = len(s.order)
	}
	s.order = slices.Insert(s.order, front, comp)
	s.nodes[comp.id] = comp
	return comp.id, nil
}

// Decompose dissolves a composite, promoting its children to the top
// level at the composite's position with their transforms baked into
// canvas space. It returns the child handles front-first alongside the
// baked transforms.
func (s *Scene) Decompose(id render.NodeID) ([]render.NodeID, []geom.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp, idx, err := s.topLevel(id)
	if err != nil {
		return nil, nil, err
	}
	if comp.kind != render.KindComposite {
		return nil, nil, fmt.Errorf("memscene: node %d: %w", id, render.ErrNotComposite)
	}

	ids := make([]render.NodeID, len(comp.children))
	baked := make([]geom.Transform, len(comp.children))
	s.order = slices.Delete(s.order, idx, idx+1)
	for i, c := range comp.children {
		c.parent = nil
		c.transform = c.transform.AppliedTo(comp.transform)
		ids[i] = c.id
		baked[i] = c.transform
		s.order = slices.Insert(s.order, idx+i, c)
	}
	comp.children = nil
	delete(s.nodes, comp.id)
	return ids, baked, nil
}

// SetSelectionProxy records which nodes the multi-selection proxy spans.
func (s *Scene) SetSelectionProxy(ids []render.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, err := s.lookup(id); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		s.proxy = nil
		return nil
	}
	s.proxy = slices.Clone(ids)
	return nil
}

// Proxy returns the node handles the selection proxy currently spans.
func (s *Scene) Proxy() []render.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.proxy)
}

// Order returns the top-level handles front-first.
func (s *Scene) Order() []render.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]render.NodeID, len(s.order))
	for i, n := range s.order {
		ids[i] = n.id
	}
	return ids
}

// Len returns the number of top-level nodes.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
