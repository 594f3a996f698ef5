package site

import (
	"context"

	"sitecanvas/internal/domain/models/site"
)

// MutationService is the caller-facing edit surface: Update, Insert, Delete and Move.
//
// Every operation resolves the section, obtains the version it edits, transforms
// the layout and saves it, all in one transaction. A failure writes nothing.
type MutationService interface {
	// Update patches a block, or the layout root when ID names a section
	Update(ctx context.Context, req *UpdateBlockRequest) (*MutationResult, error)

	// Insert adds a block under a section root or under a nested parent
	Insert(ctx context.Context, req *InsertBlockRequest) (*MutationResult, error)

	// Delete removes a direct child of a section's root
	Delete(ctx context.Context, req *DeleteBlockRequest) (*MutationResult, error)

	// DeleteChild removes a direct child of a named block
	DeleteChild(ctx context.Context, req *DeleteChildRequest) (*MutationResult, error)

	// Move re-parents or reorders a block
	Move(ctx context.Context, req *MoveRequest) (*MutationResult, error)

	// Drag resolves a raw drag result into a move or a reposition and applies it
	Drag(ctx context.Context, req *DragRequest) (*MutationResult, error)
}

// UpdateBlockRequest patches one block or a section root.
// ID is a block id or a section reference; section references win.
type UpdateBlockRequest struct {
	ID        string     `json:"-"`
	SectionID string     `json:"section_id,omitempty"` // Owning section when known; skips the search
	Patch     site.Patch `json:"patch"`
}

// InsertBlockRequest adds Block to Slot of ParentID.
// ParentID is a section reference (root insert) or a block id.
type InsertBlockRequest struct {
	ParentID  string        `json:"parent_id"`
	SectionID string        `json:"section_id,omitempty"`
	Block     site.Block    `json:"block"`
	Slot      site.SlotKind `json:"slot,omitempty"`     // Defaults to content
	Position  *int          `json:"position,omitempty"` // Index within the slot; nil appends
}

// DeleteBlockRequest removes a root child of a section
type DeleteBlockRequest struct {
	SectionRef string `json:"-"`
	BlockID    string `json:"-"`
}

// DeleteChildRequest removes a direct child of ParentID
type DeleteChildRequest struct {
	SectionRef string        `json:"-"`
	ParentID   string        `json:"-"`
	BlockID    string        `json:"-"`
	Slot       site.SlotKind `json:"slot,omitempty"`
}

// MoveRequest moves ActiveID relative to OverID.
// OverID equal to the section id un-nests to the root.
type MoveRequest struct {
	SectionRef    string         `json:"-"`
	ActiveID      string         `json:"active_id"`
	OverID        string         `json:"over_id"`
	SettingsPatch map[string]any `json:"settings,omitempty"`
}

// Rect is an axis-aligned box in canvas pixels. A zero Rect is unknown.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the rect carries no geometry
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Point is a 2D offset in canvas pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragRequest is the raw result of an interactive drag
type DragRequest struct {
	SectionRef          string `json:"-"`
	ActiveID            string `json:"active_id"`
	OverID              string `json:"over_id,omitempty"`
	ActiveParentID      string `json:"active_parent_id,omitempty"`
	OverAcceptsChildren bool   `json:"over_accepts_children,omitempty"`
	Delta               Point  `json:"delta"`
	ActiveRect          Rect   `json:"active_rect"`
	OverRect            Rect   `json:"over_rect"`
	ParentRect          Rect   `json:"parent_rect"`
}

// MoveKind classifies how a drag changes the tree
type MoveKind string

const (
	MoveKindRoot       MoveKind = "root"       // dropped outside any target
	MoveKindReposition MoveKind = "reposition" // same parent, new coordinates
	MoveKindUnnest     MoveKind = "unnest"     // out of its parent to the root
	MoveKindReparent   MoveKind = "reparent"   // into a container-like block
	MoveKindReorder    MoveKind = "reorder"    // before a sibling
)

// MutationResult reports the version a mutation wrote
type MutationResult struct {
	SectionID string             `json:"section_id"`
	VersionID string             `json:"version_id"`
	Status    site.VersionStatus `json:"status"`
	BlockID   string             `json:"block_id,omitempty"`
	MoveKind  MoveKind           `json:"move_kind,omitempty"`
	Layout    site.Layout        `json:"layout"`
}
