package event

import "github.com/dshills/strata/internal/engine/layer"

// Topics published by the engine.
const (
	TopicLayerAdded      Topic = "layer.added"
	TopicLayerRemoved    Topic = "layer.removed"
	TopicLayerUpdated    Topic = "layer.updated"
	TopicLayerReordered  Topic = "layer.reordered"
	TopicLayerDuplicated Topic = "layer.duplicated"
	TopicLayerPasted     Topic = "layer.pasted"

	TopicSelectionChanged Topic = "selection.changed"

	TopicMaskBound Topic = "mask.bound"
	TopicMaskFreed Topic = "mask.freed"

	TopicGroupCreated   Topic = "group.created"
	TopicGroupDissolved Topic = "group.dissolved"

	TopicHistoryCheckpoint Topic = "history.checkpoint"
	TopicHistoryApplied    Topic = "history.applied"

	TopicClipboardChanged Topic = "clipboard.changed"

	TopicDocumentReset Topic = "document.reset"
)

// LayerAdded is published after a layer enters the registry.
type LayerAdded struct {
	ID    layer.ID
	Name  string
	Kind  string
	Index int
}

// LayerRemoved is published after a layer leaves the registry.
// CascadedMasks lists mask records deleted along with it.
type LayerRemoved struct {
	ID            layer.ID
	Index         int
	CascadedMasks []layer.ID
}

// LayerUpdated is published after a partial update. Fields names the
// record fields that changed.
type LayerUpdated struct {
	ID     layer.ID
	Fields []string
}

// LayerReordered is published after a stacking-order change.
type LayerReordered struct {
	ID   layer.ID
	From int
	To   int
}

// LayerDuplicated is published after a duplication.
type LayerDuplicated struct {
	SourceID layer.ID
	NewID    layer.ID
	Index    int
}

// LayerPasted is published after a clipboard paste.
type LayerPasted struct {
	NewID layer.ID
	Index int
}

// SelectionChanged is published whenever selection membership or the
// range anchor changes.
type SelectionChanged struct {
	IDs    []layer.ID
	Anchor int
}

// MaskBound is published after a clip-mask bind.
type MaskBound struct {
	TargetID layer.ID
	MaskID   layer.ID
}

// MaskFreed is published after a mask releases a target. StyleRestored
// is true when the mask returned to normal rendering because no other
// target references it.
type MaskFreed struct {
	TargetID      layer.ID
	MaskID        layer.ID
	StyleRestored bool
}

// GroupCreated is published after members collapse into a group.
type GroupCreated struct {
	GroupID  layer.ID
	ChildIDs []layer.ID
}

// GroupDissolved is published after a group expands back into members.
type GroupDissolved struct {
	GroupID  layer.ID
	ChildIDs []layer.ID
}

// CheckpointRecorded is published after the history stack accepts an
// entry.
type CheckpointRecorded struct {
	Description string
	Position    int
	Retained    int
}

// HistoryApplied is published after an undo or redo restored a snapshot.
// Direction is "undo" or "redo".
type HistoryApplied struct {
	Description string
	Direction   string
}

// ClipboardChanged is published after a copy or cut. Op is "copy" or
// "cut".
type ClipboardChanged struct {
	ID layer.ID
	Op string
}

// DocumentReset is published after a bulk rebuild such as a renderer
// resync.
type DocumentReset struct {
	Reason string
}
