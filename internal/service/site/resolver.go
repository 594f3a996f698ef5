package site

import (
	"math"

	siteSvc "sitecanvas/internal/domain/services/site"
)

// PositionKey is the settings key that holds a block's canvas coordinates
const PositionKey = "position"

// MovePlan is a drag translated into tree terms
type MovePlan struct {
	Kind          siteSvc.MoveKind
	ActiveID      string
	OverID        string
	SettingsPatch map[string]any
}

// ResolveDrag classifies a drag and computes the position the block lands at.
//
// Rules, first match wins:
//   - no drop target: append to the root at the dropped position
//   - a nested block whose centre leaves its parent's rect: un-nest to the root
//   - dropped on itself: keep the structure, store the position relative to the parent
//   - dropped on the section: un-nest to the root
//   - dropped on a container-like block: reparent, position relative to that block
//   - anything else: reorder before the target, no position change
func ResolveDrag(sectionID string, d siteSvc.DragRequest) MovePlan {
	plan := MovePlan{ActiveID: d.ActiveID, OverID: d.OverID}

	dropped := siteSvc.Point{X: d.ActiveRect.X + d.Delta.X, Y: d.ActiveRect.Y + d.Delta.Y}
	nested := d.ActiveParentID != "" && d.ActiveParentID != sectionID

	switch {
	case d.OverID == "":
		plan.Kind = siteSvc.MoveKindRoot
		plan.OverID = sectionID
		plan.SettingsPatch = positionPatch(dropped, siteSvc.Point{})

	case nested && !d.ParentRect.IsZero() && !contains(d.ParentRect, centre(d.ActiveRect, dropped)):
		plan.Kind = siteSvc.MoveKindUnnest
		plan.OverID = sectionID
		plan.SettingsPatch = positionPatch(dropped, siteSvc.Point{})

	case d.OverID == d.ActiveID:
		plan.Kind = siteSvc.MoveKindReposition
		plan.SettingsPatch = positionPatch(dropped, origin(d.ParentRect))

	case d.OverID == sectionID:
		plan.Kind = siteSvc.MoveKindUnnest
		plan.SettingsPatch = positionPatch(dropped, siteSvc.Point{})

	case d.OverAcceptsChildren:
		plan.Kind = siteSvc.MoveKindReparent
		plan.SettingsPatch = positionPatch(dropped, origin(d.OverRect))

	default:
		plan.Kind = siteSvc.MoveKindReorder
	}
	return plan
}

func origin(r siteSvc.Rect) siteSvc.Point {
	return siteSvc.Point{X: r.X, Y: r.Y}
}

// centre returns the centre of a box of r's size placed at p
func centre(r siteSvc.Rect, p siteSvc.Point) siteSvc.Point {
	return siteSvc.Point{X: p.X + r.Width/2, Y: p.Y + r.Height/2}
}

func contains(r siteSvc.Rect, p siteSvc.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// positionPatch stores p relative to base, rounded to whole pixels
func positionPatch(p, base siteSvc.Point) map[string]any {
	return map[string]any{
		PositionKey: map[string]any{
			"x": math.Round(p.X - base.X),
			"y": math.Round(p.Y - base.Y),
		},
	}
}
