package blocktree

import (
	"fmt"
	"slices"

	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/models/site"
)

// rewrite locates the first block with the given id and replaces the sequence holding
// it with edit(seq, i). Parents along the path are copied; everything else is shared.
func rewrite(seq []site.Block, id string, edit func(seq []site.Block, i int) []site.Block) ([]site.Block, bool) {
	for i := range seq {
		if seq[i].ID == id {
			return edit(seq, i), true
		}
		for _, kind := range site.SlotOrder {
			children, ok := seq[i].Slots[kind]
			if !ok {
				continue
			}
			next, found := rewrite(children, id, edit)
			if !found {
				continue
			}
			out := slices.Clone(seq)
			out[i] = seq[i].WithSlot(kind, next)
			return out, true
		}
	}
	return seq, false
}

// Update replaces the block with the given id by fn(block). The result's id is
// re-pinned to the original so a patch can never take over another node's identity.
func Update(roots []site.Block, id string, fn func(site.Block) (site.Block, error)) ([]site.Block, error) {
	var editErr error
	next, found := rewrite(roots, id, func(seq []site.Block, i int) []site.Block {
		updated, err := fn(seq[i])
		if err != nil {
			editErr = err
			return seq
		}
		updated.ID = seq[i].ID
		out := slices.Clone(seq)
		out[i] = updated
		return out
	})
	if !found {
		return nil, notFound(id)
	}
	if editErr != nil {
		return nil, editErr
	}
	if err := checkUnique(next); err != nil {
		return nil, err
	}
	return next, nil
}

// Insert appends node to the given slot of parentID. Parent Root appends to the
// root sequence. Fails when any id inside node already exists in the tree.
func Insert(roots []site.Block, parentID string, node site.Block, slot site.SlotKind) ([]site.Block, error) {
	if !slot.Valid() {
		return nil, domain.NewValidationError("unknown slot %q", slot)
	}
	if err := checkFresh(roots, node); err != nil {
		return nil, err
	}

	if parentID == Root {
		if slot != site.SlotContent {
			return nil, domain.NewValidationError("the layout root has no %s slot", slot)
		}
		return append(slices.Clip(roots), node), nil
	}

	next, found := rewrite(roots, parentID, func(seq []site.Block, i int) []site.Block {
		out := slices.Clone(seq)
		children := append(slices.Clip(seq[i].Children(slot)), node)
		out[i] = seq[i].WithSlot(slot, children)
		return out
	})
	if !found {
		return nil, fmt.Errorf("target container %s: %w", parentID, domain.ErrNotFound)
	}
	return next, nil
}

// InsertAt places node at index within the given slot of parentID. An index past
// the end appends.
func InsertAt(roots []site.Block, parentID string, slot site.SlotKind, index int, node site.Block) ([]site.Block, error) {
	if !slot.Valid() {
		return nil, domain.NewValidationError("unknown slot %q", slot)
	}
	if err := checkFresh(roots, node); err != nil {
		return nil, err
	}
	splice := func(seq []site.Block) []site.Block {
		at := min(max(index, 0), len(seq))
		return slices.Insert(slices.Clone(seq), at, node)
	}

	if parentID == Root {
		return splice(roots), nil
	}
	next, found := rewrite(roots, parentID, func(seq []site.Block, i int) []site.Block {
		out := slices.Clone(seq)
		out[i] = seq[i].WithSlot(slot, splice(seq[i].Children(slot)))
		return out
	})
	if !found {
		return nil, fmt.Errorf("target container %s: %w", parentID, domain.ErrNotFound)
	}
	return next, nil
}

// InsertBefore splices node immediately before siblingID in whichever sequence holds it
func InsertBefore(roots []site.Block, siblingID string, node site.Block) ([]site.Block, error) {
	if err := checkFresh(roots, node); err != nil {
		return nil, err
	}
	next, found := rewrite(roots, siblingID, func(seq []site.Block, i int) []site.Block {
		return slices.Insert(slices.Clone(seq), i, node)
	})
	if !found {
		return nil, notFound(siblingID)
	}
	return next, nil
}

// Remove excises the block with the given id from wherever it sits and returns it
func Remove(roots []site.Block, id string) ([]site.Block, site.Block, error) {
	var removed site.Block
	next, found := rewrite(roots, id, func(seq []site.Block, i int) []site.Block {
		removed = seq[i]
		return slices.Delete(slices.Clone(seq), i, i+1)
	})
	if !found {
		return nil, site.Block{}, notFound(id)
	}
	return next, removed, nil
}

// Delete removes a direct child of the root sequence. Nested blocks are not
// reachable here; use DeleteChild with the owning parent.
func Delete(roots []site.Block, id string) ([]site.Block, error) {
	i := slices.IndexFunc(roots, func(b site.Block) bool { return b.ID == id })
	if i < 0 {
		return nil, notFound(id)
	}
	return slices.Delete(slices.Clone(roots), i, i+1), nil
}

// DeleteChild removes childID from the given slot of parentID, one level down only
func DeleteChild(roots []site.Block, parentID, childID string, slot site.SlotKind) ([]site.Block, error) {
	if !slot.Valid() {
		return nil, domain.NewValidationError("unknown slot %q", slot)
	}
	if parentID == Root {
		return Delete(roots, childID)
	}

	childFound := false
	next, found := rewrite(roots, parentID, func(seq []site.Block, i int) []site.Block {
		children := seq[i].Children(slot)
		j := slices.IndexFunc(children, func(b site.Block) bool { return b.ID == childID })
		if j < 0 {
			return seq
		}
		childFound = true
		out := slices.Clone(seq)
		out[i] = seq[i].WithSlot(slot, slices.Delete(slices.Clone(children), j, j+1))
		return out
	})
	if !found {
		return nil, fmt.Errorf("target container %s: %w", parentID, domain.ErrNotFound)
	}
	if !childFound {
		return nil, fmt.Errorf("block %s in %s of %s: %w", childID, slot, parentID, domain.ErrNotFound)
	}
	return next, nil
}

// AssignIDs fills every empty id in b's subtree using gen
func AssignIDs(b site.Block, gen func() string) site.Block {
	if b.ID == "" {
		b.ID = gen()
	}
	for _, kind := range site.SlotOrder {
		children, ok := b.Slots[kind]
		if !ok {
			continue
		}
		next := make([]site.Block, len(children))
		for i, child := range children {
			next[i] = AssignIDs(child, gen)
		}
		b = b.WithSlot(kind, next)
	}
	return b
}

func checkFresh(roots []site.Block, node site.Block) error {
	seen := make(map[string]struct{})
	for _, id := range IDs(node) {
		if id == "" {
			return domain.NewInvariantError("block without id")
		}
		if _, dup := seen[id]; dup {
			return domain.NewInvariantError("duplicate block id %s", id)
		}
		seen[id] = struct{}{}
	}
	dup := ""
	Walk(roots, func(v Visit) bool {
		if _, ok := seen[v.Block.ID]; ok {
			dup = v.Block.ID
			return false
		}
		return true
	})
	if dup != "" {
		return domain.NewInvariantError("duplicate block id %s", dup)
	}
	return nil
}

func checkUnique(roots []site.Block) error {
	return Validate(roots, 0)
}
