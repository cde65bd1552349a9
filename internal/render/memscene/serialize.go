package memscene

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/style"
	"github.com/dshills/strata/internal/render"
)

// NodeState is the serializable form of a scene node. Children appear
// front-first. It doubles as the inspection view returned by State.
type NodeState struct {
	ID        render.NodeID  `json:"id"`
	Kind      string         `json:"kind"`
	Shape     string         `json:"shape,omitempty"`
	Text      string         `json:"text,omitempty"`
	Source    string         `json:"source,omitempty"`
	Size      geom.Size      `json:"size"`
	Transform geom.Transform `json:"transform"`
	Fill      string         `json:"fill,omitempty"`
	Stroke    string         `json:"stroke,omitempty"`
	StrokeW   float64        `json:"strokeWidth,omitempty"`
	Opacity   float64        `json:"opacity"`
	Blend     string         `json:"blend"`
	Visible   bool           `json:"visible"`
	Locked    bool           `json:"locked"`
	Clip      *ClipState     `json:"clip,omitempty"`
	Children  []NodeState    `json:"children,omitempty"`
}

// ClipState is the serializable form of a clip descriptor.
type ClipState struct {
	Shape    string         `json:"shape"`
	Size     geom.Size      `json:"size"`
	Relative geom.Transform `json:"relative"`
}

type sceneState struct {
	NextID render.NodeID `json:"nextId"`
	Nodes  []NodeState   `json:"nodes"`
}

// SerializeScene captures the scene, including node handles, as a JSON
// blob that RestoreScene accepts.
func (s *Scene) SerializeScene() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := sceneState{NextID: s.nextID, Nodes: make([]NodeState, len(s.order))}
	for i, n := range s.order {
		doc.Nodes[i] = stateOf(n)
	}
	return json.Marshal(doc)
}

// RestoreScene replaces the scene contents with a serialized blob,
// keeping the restored handles. The handle allocator never moves
// backward, so handles issued after a restore stay unique. A nil blob
// empties the scene.
func (s *Scene) RestoreScene(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		s.order = nil
		s.nodes = make(map[render.NodeID]*node)
		s.proxy = nil
		return nil
	}

	var doc sceneState
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("memscene: %w: %v", render.ErrBadScene, err)
	}

	order := make([]*node, len(doc.Nodes))
	nodes := make(map[render.NodeID]*node, len(doc.Nodes))
	for i, ns := range doc.Nodes {
		n, err := nodeOf(ns, nil, nodes)
		if err != nil {
			return err
		}
		order[i] = n
	}

	s.order = order
	s.nodes = nodes
	s.proxy = nil
	if doc.NextID > s.nextID {
		s.nextID = doc.NextID
	}
	return nil
}

// State returns the serializable view of a node for inspection.
func (s *Scene) State(id render.NodeID) (NodeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return NodeState{}, false
	}
	return stateOf(n), true
}

func stateOf(n *node) NodeState {
	ns := NodeState{
		ID:        n.id,
		Kind:      n.kind,
		Shape:     n.shape,
		Text:      n.text,
		Source:    n.source,
		Size:      n.size,
		Transform: n.transform,
		Fill:      n.paint.Fill,
		Stroke:    n.paint.Stroke,
		StrokeW:   n.paint.StrokeWidth,
		Opacity:   n.opacity,
		Blend:     n.blend.String(),
		Visible:   n.visible,
		Locked:    n.locked,
	}
	if n.clip != nil {
		ns.Clip = &ClipState{
			Shape:    n.clip.Shape,
			Size:     n.clip.Size,
			Relative: n.clip.Relative,
		}
	}
	if len(n.children) > 0 {
		ns.Children = make([]NodeState, len(n.children))
		for i, c := range n.children {
			ns.Children[i] = stateOf(c)
		}
	}
	return ns
}

func nodeOf(ns NodeState, parent *node, nodes map[render.NodeID]*node) (*node, error) {
	if ns.ID == render.NoNode {
		return nil, fmt.Errorf("memscene: %w: node without handle", render.ErrBadScene)
	}
	if _, dup := nodes[ns.ID]; dup {
		return nil, fmt.Errorf("memscene: %w: duplicate handle %d", render.ErrBadScene, ns.ID)
	}

	blend, err := style.ParseBlendMode(ns.Blend)
	if err != nil {
		return nil, fmt.Errorf("memscene: %w: %v", render.ErrBadScene, err)
	}

	n := &node{
		id:        ns.ID,
		kind:      ns.Kind,
		shape:     ns.Shape,
		text:      ns.Text,
		source:    ns.Source,
		size:      ns.Size,
		transform: ns.Transform,
		paint:     style.Paint{Fill: ns.Fill, Stroke: ns.Stroke, StrokeWidth: ns.StrokeW},
		opacity:   ns.Opacity,
		blend:     blend,
		visible:   ns.Visible,
		locked:    ns.Locked,
		parent:    parent,
	}
	if ns.Clip != nil {
		n.clip = &render.ClipDescriptor{
			Shape:    ns.Clip.Shape,
			Size:     ns.Clip.Size,
			Relative: ns.Clip.Relative,
		}
	}
	nodes[n.id] = n

	if len(ns.Children) > 0 {
		n.children = make([]*node, len(ns.Children))
		for i, cs := range ns.Children {
			c, err := nodeOf(cs, n, nodes)
			if err != nil {
				return nil, err
			}
			n.children[i] = c
		}
	}
	return n, nil
}
