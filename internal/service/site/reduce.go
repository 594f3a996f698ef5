package site

import (
	"fmt"

	"sitecanvas/internal/blocktree"
	"sitecanvas/internal/config"
	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
)

// KindChecker answers block-kind questions for the reducer.
// *blocks.Registry implements it.
type KindChecker interface {
	AcceptsChildren(typ string) bool
	CheckTree(b models.Block) error
	WithDefaults(b models.Block) models.Block
}

// Target identifies the version a command edits
type Target struct {
	SectionID string
	VersionID string
	Status    models.VersionStatus
}

// IntentKind names a side effect requested by Reduce
type IntentKind string

const (
	// IntentPersist asks for the new layout to be saved to the target version
	IntentPersist IntentKind = "persist"
	// IntentNotify asks for the published-output signal after commit
	IntentNotify IntentKind = "notify"
)

// Intent is a side effect the caller must carry out
type Intent struct {
	Kind   IntentKind
	Target Target
}

// Outcome is the result of reducing one command against a layout
type Outcome struct {
	Layout   models.Layout
	Intents  []Intent
	BlockID  string
	MoveKind siteSvc.MoveKind
	Fallback bool // a move whose drop target did not resolve
}

// Command is one edit of a layout
type Command interface {
	// Name labels the command in logs and metrics
	Name() string
	apply(layout models.Layout, kinds KindChecker) (Outcome, error)
}

// Reduce applies cmd to layout without side effects. The input layout is never
// modified; the outcome carries the next layout and the intents to execute.
func Reduce(target Target, layout models.Layout, cmd Command, kinds KindChecker) (Outcome, error) {
	if target.Status == models.VersionArchived {
		return Outcome{}, domain.NewInvariantError("version %s is archived and read-only", target.VersionID)
	}

	out, err := cmd.apply(layout, kinds)
	if err != nil {
		return Outcome{}, err
	}
	if err := blocktree.Validate(out.Layout.Content, config.MaxTreeDepth); err != nil {
		return Outcome{}, err
	}

	out.Intents = []Intent{{Kind: IntentPersist, Target: target}}
	if target.Status == models.VersionPublished {
		out.Intents = append(out.Intents, Intent{Kind: IntentNotify, Target: target})
	}
	return out, nil
}

// UpdateRoot merges a patch into the layout root settings
type UpdateRoot struct {
	Patch models.Patch
}

func (UpdateRoot) Name() string { return "update_root" }

func (c UpdateRoot) apply(layout models.Layout, kinds KindChecker) (Outcome, error) {
	next, err := layout.ApplyPatch(c.Patch)
	if err != nil {
		return Outcome{}, err
	}
	if _, replaced := c.Patch["content"]; replaced {
		for _, b := range next.Content {
			if err := kinds.CheckTree(b); err != nil {
				return Outcome{}, err
			}
		}
	}
	return Outcome{Layout: next}, nil
}

// UpdateBlock replaces a block with {...block, ...patch, id}
type UpdateBlock struct {
	BlockID string
	Patch   models.Patch
}

func (UpdateBlock) Name() string { return "update" }

func (c UpdateBlock) apply(layout models.Layout, kinds KindChecker) (Outcome, error) {
	content, err := blocktree.Update(layout.Content, c.BlockID, func(b models.Block) (models.Block, error) {
		next, err := b.ApplyPatch(c.Patch)
		if err != nil {
			return models.Block{}, err
		}
		return next, kinds.CheckTree(next)
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Layout: layout.WithContent(content), BlockID: c.BlockID}, nil
}

// MergeBlockSettings merges keys into a block's settings; nil values remove keys
type MergeBlockSettings struct {
	BlockID  string
	Settings map[string]any
}

func (MergeBlockSettings) Name() string { return "merge_settings" }

func (c MergeBlockSettings) apply(layout models.Layout, _ KindChecker) (Outcome, error) {
	content, err := blocktree.Update(layout.Content, c.BlockID, func(b models.Block) (models.Block, error) {
		return b.MergeSettings(c.Settings)
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Layout: layout.WithContent(content), BlockID: c.BlockID}, nil
}

// InsertBlock places Block in Slot of ParentID, at Position when set and last
// otherwise; blocktree.Root targets the layout root
type InsertBlock struct {
	ParentID string
	Block    models.Block
	Slot     models.SlotKind
	Position *int
}

func (InsertBlock) Name() string { return "insert" }

func (c InsertBlock) apply(layout models.Layout, kinds KindChecker) (Outcome, error) {
	if err := kinds.CheckTree(c.Block); err != nil {
		return Outcome{}, err
	}
	node := kinds.WithDefaults(c.Block)
	var content []models.Block
	var err error
	if c.Position != nil {
		content, err = blocktree.InsertAt(layout.Content, c.ParentID, c.Slot, *c.Position, node)
	} else {
		content, err = blocktree.Insert(layout.Content, c.ParentID, node, c.Slot)
	}
	if err != nil {
		return Outcome{}, err
	}
	if c.ParentID != blocktree.Root {
		parent, _ := blocktree.Find(content, c.ParentID)
		if err := kinds.CheckTree(parent); err != nil {
			return Outcome{}, fmt.Errorf("insert into %s: %w", c.ParentID, err)
		}
	}
	return Outcome{Layout: layout.WithContent(content), BlockID: c.Block.ID}, nil
}

// DeleteBlock removes a direct child of the layout root
type DeleteBlock struct {
	BlockID string
}

func (DeleteBlock) Name() string { return "delete" }

func (c DeleteBlock) apply(layout models.Layout, _ KindChecker) (Outcome, error) {
	content, err := blocktree.Delete(layout.Content, c.BlockID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Layout: layout.WithContent(content), BlockID: c.BlockID}, nil
}

// DeleteChild removes a direct child of ParentID
type DeleteChild struct {
	ParentID string
	BlockID  string
	Slot     models.SlotKind
}

func (DeleteChild) Name() string { return "delete_child" }

func (c DeleteChild) apply(layout models.Layout, _ KindChecker) (Outcome, error) {
	content, err := blocktree.DeleteChild(layout.Content, c.ParentID, c.BlockID, c.Slot)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Layout: layout.WithContent(content), BlockID: c.BlockID}, nil
}

// MoveBlock removes ActiveID and reinserts it relative to OverID.
//
// Removal always happens before the drop target is resolved, so a target inside
// the moved subtree no longer exists and the block falls back to the root.
type MoveBlock struct {
	SectionID     string
	ActiveID      string
	OverID        string
	SettingsPatch map[string]any
}

func (MoveBlock) Name() string { return "move" }

func (c MoveBlock) apply(layout models.Layout, kinds KindChecker) (Outcome, error) {
	rest, node, err := blocktree.Remove(layout.Content, c.ActiveID)
	if err != nil {
		return Outcome{}, err
	}
	if len(c.SettingsPatch) > 0 {
		if node, err = node.MergeSettings(c.SettingsPatch); err != nil {
			return Outcome{}, err
		}
	}

	out := Outcome{BlockID: c.ActiveID}
	var content []models.Block

	switch over, found := blocktree.Find(rest, c.OverID); {
	case c.OverID == c.SectionID:
		out.MoveKind = siteSvc.MoveKindUnnest
		content, err = blocktree.Insert(rest, blocktree.Root, node, models.SlotContent)
	case !found:
		out.MoveKind = siteSvc.MoveKindRoot
		out.Fallback = c.OverID != ""
		content, err = blocktree.Insert(rest, blocktree.Root, node, models.SlotContent)
	case kinds.AcceptsChildren(over.Type):
		out.MoveKind = siteSvc.MoveKindReparent
		content, err = blocktree.Insert(rest, over.ID, node, models.SlotContent)
	default:
		out.MoveKind = siteSvc.MoveKindReorder
		content, err = blocktree.InsertBefore(rest, over.ID, node)
	}
	if err != nil {
		return Outcome{}, err
	}

	out.Layout = layout.WithContent(content)
	return out, nil
}
