package blocktree

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/models/site"
)

func leaf(id, typ string) site.Block {
	return site.Block{ID: id, Type: typ, Text: json.RawMessage(fmt.Sprintf("%q", "text of "+id))}
}

func node(id, typ string, children ...site.Block) site.Block {
	return site.Block{ID: id, Type: typ}.WithSlot(site.SlotContent, children)
}

func withBack(b site.Block, children ...site.Block) site.Block {
	return b.WithSlot(site.SlotBackContent, children)
}

// fixture:
//
//	hero-heading
//	cards
//	  card-1 (back: back-text, back-icon)
//	    card-1-title
//	  card-2
//	footer-text
func fixture() []site.Block {
	card1 := withBack(
		node("card-1", "card", leaf("card-1-title", "heading")),
		leaf("back-text", "text"), leaf("back-icon", "icon"),
	)
	return []site.Block{
		leaf("hero-heading", "heading"),
		node("cards", "grid", card1, node("card-2", "card")),
		leaf("footer-text", "text"),
	}
}

func snapshot(t *testing.T, roots []site.Block) string {
	t.Helper()
	raw, err := json.Marshal(roots)
	require.NoError(t, err)
	return string(raw)
}

func TestWalkOrder(t *testing.T) {
	var got []string
	Walk(fixture(), func(v Visit) bool {
		got = append(got, v.Block.ID)
		return true
	})
	assert.Equal(t, []string{
		"hero-heading", "cards", "card-1", "card-1-title", "back-text", "back-icon", "card-2", "footer-text",
	}, got)
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantParent string
		wantSlot   site.SlotKind
		wantIndex  int
		wantDepth  int
		wantFound  bool
	}{
		{name: "root child", id: "footer-text", wantParent: Root, wantSlot: site.SlotContent, wantIndex: 2, wantDepth: 0, wantFound: true},
		{name: "content child", id: "card-2", wantParent: "cards", wantSlot: site.SlotContent, wantIndex: 1, wantDepth: 1, wantFound: true},
		{name: "back face child", id: "back-icon", wantParent: "card-1", wantSlot: site.SlotBackContent, wantIndex: 1, wantDepth: 2, wantFound: true},
		{name: "missing", id: "nope", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Locate(fixture(), tt.id)
			require.Equal(t, tt.wantFound, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantParent, v.ParentID)
			assert.Equal(t, tt.wantSlot, v.Slot)
			assert.Equal(t, tt.wantIndex, v.Index)
			assert.Equal(t, tt.wantDepth, v.Depth)
		})
	}
}

func TestFindAtAnyDepthThroughAlternatingSlots(t *testing.T) {
	for depth := 1; depth <= 12; depth++ {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			target := leaf("target", "text")
			current := target
			for level := depth; level > 0; level-- {
				parent := site.Block{ID: fmt.Sprintf("level-%d", level), Type: "card"}
				if level%2 == 0 {
					current = parent.WithSlot(site.SlotBackContent, []site.Block{current})
				} else {
					current = parent.WithSlot(site.SlotContent, []site.Block{leaf(fmt.Sprintf("sibling-%d", level), "text"), current})
				}
			}
			roots := []site.Block{leaf("first", "text"), current}

			found, ok := Find(roots, "target")
			require.True(t, ok)
			assert.Equal(t, target, found)

			parent, err := FindParent(roots, "target")
			require.NoError(t, err)
			require.NotNil(t, parent)
			assert.Equal(t, fmt.Sprintf("level-%d", depth), parent.ID)
		})
	}
}

func TestFindParent(t *testing.T) {
	roots := fixture()

	parent, err := FindParent(roots, "hero-heading")
	require.NoError(t, err)
	assert.Nil(t, parent, "root children have no parent node")

	parent, err = FindParent(roots, "back-text")
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, "card-1", parent.ID)

	_, err = FindParent(roots, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	t.Run("replaces the node and re-pins its id", func(t *testing.T) {
		roots := fixture()
		before := snapshot(t, roots)

		next, err := Update(roots, "back-icon", func(b site.Block) (site.Block, error) {
			b.ID = "hero-heading"
			return b.MergeSettings(map[string]any{"icon": "star"})
		})
		require.NoError(t, err)

		updated, ok := Find(next, "back-icon")
		require.True(t, ok)
		assert.Equal(t, "star", updated.Settings["icon"])
		assert.Equal(t, before, snapshot(t, roots), "input tree must not change")
	})

	t.Run("shares untouched siblings", func(t *testing.T) {
		roots := fixture()
		next, err := Update(roots, "card-1-title", func(b site.Block) (site.Block, error) {
			b.Text = json.RawMessage(`"changed"`)
			return b, nil
		})
		require.NoError(t, err)
		assert.Equal(t, roots[0], next[0])
		assert.Equal(t, roots[2], next[2])
		assert.NotEqual(t, roots[1], next[1])
	})

	t.Run("missing id is reported", func(t *testing.T) {
		_, err := Update(fixture(), "ghost", func(b site.Block) (site.Block, error) { return b, nil })
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("edit errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Update(fixture(), "cards", func(b site.Block) (site.Block, error) { return b, boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("edits that duplicate ids are refused", func(t *testing.T) {
		_, err := Update(fixture(), "card-2", func(b site.Block) (site.Block, error) {
			return b.WithSlot(site.SlotContent, []site.Block{leaf("footer-text", "text")}), nil
		})
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})
}

func TestInsert(t *testing.T) {
	t.Run("root", func(t *testing.T) {
		roots := fixture()
		next, err := Insert(roots, Root, leaf("new", "text"), site.SlotContent)
		require.NoError(t, err)
		require.Len(t, next, 4)
		assert.Equal(t, "new", next[3].ID)
		assert.Len(t, roots, 3)
	})

	t.Run("card then heading inside it", func(t *testing.T) {
		next, err := Insert(nil, Root, node("card", "card"), site.SlotContent)
		require.NoError(t, err)
		next, err = Insert(next, "card", leaf("heading", "heading"), site.SlotContent)
		require.NoError(t, err)

		_, ok := Find(next, "heading")
		require.True(t, ok)
		parent, err := FindParent(next, "heading")
		require.NoError(t, err)
		require.NotNil(t, parent)
		assert.Equal(t, "card", parent.ID)
	})

	t.Run("back face slot is created on demand", func(t *testing.T) {
		next, err := Insert(fixture(), "card-2", leaf("card-2-back", "text"), site.SlotBackContent)
		require.NoError(t, err)
		v, ok := Locate(next, "card-2-back")
		require.True(t, ok)
		assert.Equal(t, site.SlotBackContent, v.Slot)
		assert.Equal(t, "card-2", v.ParentID)
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := Insert(fixture(), "ghost", leaf("x", "text"), site.SlotContent)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := Insert(fixture(), "cards", leaf("back-icon", "icon"), site.SlotContent)
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})

	t.Run("duplicate id inside inserted subtree", func(t *testing.T) {
		_, err := Insert(fixture(), Root, node("wrap", "grid", leaf("dup", "text"), leaf("dup", "text")), site.SlotContent)
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})

	t.Run("unknown slot", func(t *testing.T) {
		_, err := Insert(fixture(), "cards", leaf("x", "text"), site.SlotKind("sideContent"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRemoveThenReinsertRoundTrips(t *testing.T) {
	ids := []string{"hero-heading", "cards", "card-1", "card-1-title", "back-text", "back-icon", "card-2", "footer-text"}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			roots := fixture()
			before := snapshot(t, roots)

			where, ok := Locate(roots, id)
			require.True(t, ok)

			removed, captured, err := Remove(roots, id)
			require.NoError(t, err)
			assert.Equal(t, id, captured.ID)
			assert.False(t, Contains(removed, id))

			restored, err := InsertAt(removed, where.ParentID, where.Slot, where.Index, captured)
			require.NoError(t, err)
			assert.Equal(t, before, snapshot(t, restored))
			assert.Equal(t, before, snapshot(t, roots), "input tree must not change")
		})
	}
}

func TestRemoveMissing(t *testing.T) {
	_, _, err := Remove(fixture(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsertBefore(t *testing.T) {
	next, err := InsertBefore(fixture(), "back-icon", leaf("new", "text"))
	require.NoError(t, err)
	v, ok := Locate(next, "new")
	require.True(t, ok)
	assert.Equal(t, "card-1", v.ParentID)
	assert.Equal(t, site.SlotBackContent, v.Slot)
	assert.Equal(t, 1, v.Index)
}

func TestDeleteOnlyReachesRootChildren(t *testing.T) {
	roots := fixture()

	next, err := Delete(roots, "footer-text")
	require.NoError(t, err)
	assert.Len(t, next, 2)
	assert.Len(t, roots, 3)

	_, err = Delete(roots, "card-2")
	assert.ErrorIs(t, err, domain.ErrNotFound, "nested blocks are not deleted by Delete")
}

func TestDeleteChild(t *testing.T) {
	tests := []struct {
		name    string
		parent  string
		child   string
		slot    site.SlotKind
		wantErr error
	}{
		{name: "content child", parent: "cards", child: "card-2", slot: site.SlotContent},
		{name: "back face child", parent: "card-1", child: "back-text", slot: site.SlotBackContent},
		{name: "root parent", parent: Root, child: "hero-heading", slot: site.SlotContent},
		{name: "grandchild is not a direct child", parent: "cards", child: "card-1-title", slot: site.SlotContent, wantErr: domain.ErrNotFound},
		{name: "wrong slot", parent: "card-1", child: "back-text", slot: site.SlotContent, wantErr: domain.ErrNotFound},
		{name: "missing parent", parent: "ghost", child: "card-2", slot: site.SlotContent, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := DeleteChild(fixture(), tt.parent, tt.child, tt.slot)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, Contains(next, tt.child))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(fixture(), 0))
	assert.NoError(t, Validate(fixture(), 3))
	assert.ErrorIs(t, Validate(fixture(), 2), domain.ErrInvariantViolation)

	dup := append(fixture(), withBack(node("x", "card"), leaf("card-2", "text")))
	assert.ErrorIs(t, Validate(dup, 0), domain.ErrInvariantViolation)

	assert.ErrorIs(t, Validate([]site.Block{{Type: "text"}}, 0), domain.ErrInvariantViolation)
}

func TestAssignIDs(t *testing.T) {
	n := 0
	gen := func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
	b := AssignIDs(withBack(node("", "card", site.Block{Type: "text"}), site.Block{ID: "keep", Type: "icon"}), gen)

	assert.Equal(t, "gen-1", b.ID)
	assert.Equal(t, "gen-2", b.Children(site.SlotContent)[0].ID)
	assert.Equal(t, "keep", b.Children(site.SlotBackContent)[0].ID)
	assert.NoError(t, Validate([]site.Block{b}, 0))
}
