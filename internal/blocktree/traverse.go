// Package blocktree implements lookups and functional edits over block trees.
//
// Every node may fan out through two slots: content and settings.backContent.
// Traversal is depth-first and pre-order; a node is checked before its children
// and its content slot before its back face. Edits never modify their input:
// the nodes along the path to the edit are copied and untouched subtrees are shared.
package blocktree

import (
	"fmt"

	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/models/site"
)

// Root is the parent id that designates the layout root sequence
const Root = ""

// Visit describes one node reached by Walk
type Visit struct {
	Block    site.Block
	ParentID string // Root for top-level blocks
	Slot     site.SlotKind
	Index    int
	Depth    int // 0 for top-level blocks
}

// Walk calls fn for each node in traversal order until fn returns false.
// It reports whether the walk ran to completion.
func Walk(roots []site.Block, fn func(Visit) bool) bool {
	return walk(roots, Root, site.SlotContent, 0, fn)
}

func walk(seq []site.Block, parentID string, slot site.SlotKind, depth int, fn func(Visit) bool) bool {
	for i, b := range seq {
		if !fn(Visit{Block: b, ParentID: parentID, Slot: slot, Index: i, Depth: depth}) {
			return false
		}
		for _, kind := range site.SlotOrder {
			children, ok := b.Slots[kind]
			if !ok {
				continue
			}
			if !walk(children, b.ID, kind, depth+1, fn) {
				return false
			}
		}
	}
	return true
}

// Locate returns where the block with the given id sits
func Locate(roots []site.Block, id string) (Visit, bool) {
	var found Visit
	ok := false
	Walk(roots, func(v Visit) bool {
		if v.Block.ID == id {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}

// Find returns the block with the given id
func Find(roots []site.Block, id string) (site.Block, bool) {
	v, ok := Locate(roots, id)
	return v.Block, ok
}

// Contains reports whether a block with the given id exists anywhere in the tree
func Contains(roots []site.Block, id string) bool {
	_, ok := Locate(roots, id)
	return ok
}

// FindParent returns the parent of the block with the given id.
// A nil parent with a nil error means the block sits in the root sequence.
func FindParent(roots []site.Block, id string) (*site.Block, error) {
	v, ok := Locate(roots, id)
	if !ok {
		return nil, notFound(id)
	}
	if v.ParentID == Root {
		return nil, nil
	}
	parent, _ := Find(roots, v.ParentID)
	return &parent, nil
}

// IDs returns the ids of b and all of its descendants in traversal order
func IDs(b site.Block) []string {
	ids := []string{b.ID}
	Walk(childSeq(b), func(v Visit) bool {
		ids = append(ids, v.Block.ID)
		return true
	})
	return ids
}

// Count returns the number of nodes in the tree
func Count(roots []site.Block) int {
	n := 0
	Walk(roots, func(Visit) bool {
		n++
		return true
	})
	return n
}

// childSeq flattens b's slots, content first, for walks that start below b
func childSeq(b site.Block) []site.Block {
	var seq []site.Block
	for _, kind := range site.SlotOrder {
		seq = append(seq, b.Slots[kind]...)
	}
	return seq
}

func notFound(id string) error {
	return fmt.Errorf("block %s: %w", id, domain.ErrNotFound)
}
