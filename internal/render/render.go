// Package render defines the contract between the layer engine and a
// renderer. The engine owns layer records and z-order; the renderer owns
// scene nodes addressed by opaque handles. Adapters translate engine
// commands into scene mutations and are the only party allowed to touch
// node internals.
//
// The engine mutates the renderer first and commits its own model second,
// so adapters must either apply a command fully or return an error having
// changed nothing.
package render

import (
	"errors"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/style"
)

// Errors returned by adapters.
var (
	ErrUnknownNode  = errors.New("unknown node handle")
	ErrNotComposite = errors.New("node is not a composite")
	ErrBadScene     = errors.New("invalid scene blob")
)

// NodeID is an opaque handle to a renderer-owned scene node. Handles are
// never reused within a scene and survive serialize/restore round trips.
type NodeID int64

// NoNode is the zero handle, held by records that own no scene node.
const NoNode NodeID = 0

// Node content kinds.
const (
	KindShape     = "shape"
	KindText      = "text"
	KindImage     = "image"
	KindComposite = "composite"
)

// Descriptor describes the node a layer wants created in the scene.
type Descriptor struct {
	Kind      string
	Shape     string
	Text      string
	Source    string
	Size      geom.Size
	Transform geom.Transform
	Paint     style.Paint
	Opacity   float64
	Blend     style.BlendMode
	Visible   bool
	Locked    bool
}

// ClipDescriptor carries clip geometry expressed relative to the clipped
// node's own transform, so the clip follows the node as it moves.
type ClipDescriptor struct {
	Shape    string
	Size     geom.Size
	Relative geom.Transform
}

// Adapter is the command surface the engine drives. Handles passed in
// always come from earlier adapter responses.
type Adapter interface {
	// AddNode creates a top-level node at the front of the z-order and
	// returns its handle.
	AddNode(desc Descriptor) (NodeID, error)
	// RemoveNode deletes a top-level node. Composites take their children
	// with them.
	RemoveNode(id NodeID) error
	// CloneNode copies a node, preserving style and clip state, and places
	// the copy at the front. Cloning a nested child promotes the copy to
	// the top level.
	CloneNode(id NodeID) (NodeID, error)

	// SetZOrder moves a top-level node to the given position, where 0 is
	// the front. Out-of-range positions clamp.
	SetZOrder(id NodeID, index int) error
	BringForward(id NodeID) error
	SendBackward(id NodeID) error
	BringToFront(id NodeID) error
	SendToBack(id NodeID) error

	SetVisible(id NodeID, visible bool) error
	SetLocked(id NodeID, locked bool) error
	SetOpacity(id NodeID, opacity float64) error
	SetBlend(id NodeID, blend style.BlendMode) error
	SetPaint(id NodeID, paint style.Paint) error
	SetTransform(id NodeID, tr geom.Transform) error

	// SetClip installs or, with a nil descriptor, clears the node's clip.
	SetClip(id NodeID, clip *ClipDescriptor) error

	// Combine wraps the given top-level nodes in a composite node placed at
	// the frontmost member's position. Child transforms become relative to
	// the composite.
	Combine(ids []NodeID) (NodeID, error)
	// Decompose dissolves a composite, promoting its children back to the
	// top level at the composite's position. It returns the child handles
	// front-first along with their baked canvas-space transforms.
	Decompose(id NodeID) ([]NodeID, []geom.Transform, error)

	// SetSelectionProxy declares which nodes the transient multi-selection
	// bounding proxy spans. An empty or nil slice dismantles the proxy.
	SetSelectionProxy(ids []NodeID) error

	// SerializeScene captures the full node state, including handles, as an
	// opaque blob.
	SerializeScene() ([]byte, error)
	// RestoreScene replaces the scene with a previously serialized blob.
	// Restored nodes keep their original handles. A nil blob empties the
	// scene.
	RestoreScene(data []byte) error
}
