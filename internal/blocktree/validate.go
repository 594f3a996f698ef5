package blocktree

import (
	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/models/site"
)

// Validate checks that every block has a non-empty id, that ids are unique across
// both slots, and, when maxDepth > 0, that no block sits deeper than maxDepth.
func Validate(roots []site.Block, maxDepth int) error {
	seen := make(map[string]struct{})
	var verr error
	Walk(roots, func(v Visit) bool {
		id := v.Block.ID
		switch {
		case id == "":
			verr = domain.NewInvariantError("block without id under %q", v.ParentID)
		case maxDepth > 0 && v.Depth >= maxDepth:
			verr = domain.NewInvariantError("block %s exceeds maximum depth %d", id, maxDepth)
		default:
			if _, dup := seen[id]; dup {
				verr = domain.NewInvariantError("duplicate block id %s", id)
			}
		}
		if verr != nil {
			return false
		}
		seen[id] = struct{}{}
		return true
	})
	return verr
}
