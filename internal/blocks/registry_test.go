package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/models/site"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	kinds := r.List()
	require.NotEmpty(t, kinds)
	assert.Equal(t, "generic-section", kinds[0].ID, "file order is preserved")

	card, err := r.Get("card")
	require.NoError(t, err)
	assert.True(t, card.AcceptsChildren)
	assert.False(t, card.HasBackFace)

	flip, err := r.Get("flip-card")
	require.NoError(t, err)
	assert.True(t, flip.AcceptsSlot(site.SlotBackContent))

	assert.False(t, r.AcceptsChildren("heading"))
	assert.False(t, r.AcceptsChildren("marquee"))

	_, err = r.Get("marquee")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantIDs []string
		wantErr bool
	}{
		{
			name: "order kept",
			doc: `
kinds:
  zeta: {display_name: Zeta, category: content}
  alpha: {display_name: Alpha, category: layout, accepts_children: true}
`,
			wantIDs: []string{"zeta", "alpha"},
		},
		{name: "empty", doc: `kinds: {}`, wantErr: true},
		{name: "missing display name", doc: "kinds:\n  x: {category: content}\n", wantErr: true},
		{name: "not yaml", doc: "kinds: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var ids []string
			for _, k := range r.List() {
				ids = append(ids, k.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestCheckTree(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	heading := site.Block{ID: "h", Type: "heading"}
	ok := site.Block{ID: "c", Type: "flip-card"}.
		WithSlot(site.SlotContent, []site.Block{heading}).
		WithSlot(site.SlotBackContent, []site.Block{{ID: "t", Type: "text"}})
	assert.NoError(t, r.CheckTree(ok))

	noBack := site.Block{ID: "c", Type: "card"}.WithSlot(site.SlotBackContent, []site.Block{heading})
	assert.ErrorIs(t, r.CheckTree(noBack), domain.ErrValidation)

	nestedUnknown := site.Block{ID: "c", Type: "card"}.WithSlot(site.SlotContent, []site.Block{{ID: "x", Type: "marquee"}})
	assert.ErrorIs(t, r.CheckTree(nestedUnknown), domain.ErrValidation)

	leafWithChildren := heading.WithSlot(site.SlotContent, []site.Block{{ID: "t", Type: "text"}})
	assert.ErrorIs(t, r.CheckTree(leafWithChildren), domain.ErrValidation)
}

func TestWithDefaults(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	heading := site.Block{ID: "h1", Type: "heading", Settings: map[string]any{"level": 1}}
	grid := site.Block{ID: "g1", Type: "grid", Settings: map[string]any{"gap": 8}}.
		WithSlot(site.SlotContent, []site.Block{heading, {ID: "t1", Type: "text"}})

	filled := r.WithDefaults(grid)
	assert.Equal(t, map[string]any{"columns": 3, "gap": 8}, filled.Settings, "explicit settings win")
	assert.Equal(t, 1, filled.Children(site.SlotContent)[0].Settings["level"])
	assert.Nil(t, filled.Children(site.SlotContent)[1].Settings, "kinds without defaults are untouched")

	assert.Equal(t, map[string]any{"gap": 8}, grid.Settings, "input is not modified")

	bare := r.WithDefaults(site.Block{ID: "h2", Type: "heading"})
	assert.Equal(t, map[string]any{"level": 2}, bare.Settings)
}
