package site

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecanvas/internal/config"
	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
)

func TestCreateSection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)

	hero := f.createSection(t, "hero", heroLayout())
	features := f.createSection(t, "features", models.EmptyLayout())
	assert.Equal(t, 0, hero.SortOrder)
	assert.Equal(t, 1, features.SortOrder, "new sections go to the end")
	assert.True(t, features.IsEnabled)
	assert.Empty(t, f.layout(t, "features", models.VersionPublished).Content)

	hidden := false
	first := 0
	footer, err := f.svc.Sections.CreateSection(ctx, &siteSvc.CreateSectionRequest{Slug: "footer", SortOrder: &first, IsEnabled: &hidden})
	require.NoError(t, err)
	assert.Equal(t, 0, footer.SortOrder)
	assert.False(t, footer.IsEnabled)

	tests := []struct {
		name    string
		req     siteSvc.CreateSectionRequest
		wantErr error
	}{
		{name: "duplicate slug", req: siteSvc.CreateSectionRequest{Slug: "hero"}, wantErr: domain.ErrConflict},
		{name: "missing slug", req: siteSvc.CreateSectionRequest{}, wantErr: domain.ErrValidation},
		{name: "uppercase slug", req: siteSvc.CreateSectionRequest{Slug: "Hero"}, wantErr: domain.ErrValidation},
		{name: "id-shaped slug", req: siteSvc.CreateSectionRequest{Slug: "3f1c9a52-7d1e-4c7a-9a55-0c6c4f2b8e11"}, wantErr: domain.ErrValidation},
		{name: "unknown block kind", req: siteSvc.CreateSectionRequest{Slug: "promo", Layout: &models.Layout{Content: []models.Block{{ID: "m", Type: "marquee"}}}}, wantErr: domain.ErrValidation},
		{name: "duplicate ids in layout", req: siteSvc.CreateSectionRequest{Slug: "promo", Layout: &models.Layout{Content: []models.Block{text("x", "text", ""), text("x", "text", "")}}}, wantErr: domain.ErrInvariantViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Sections.CreateSection(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	sections, err := f.svc.Sections.ListSections(ctx)
	require.NoError(t, err)
	assert.Len(t, sections, 3)
}

func TestCreateSectionLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("creates the maximum number of sections")
	}
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)

	for i := range config.MaxSections {
		f.createSection(t, fmt.Sprintf("section-%d", i), models.EmptyLayout())
	}
	_, err := f.svc.Sections.CreateSection(ctx, &siteSvc.CreateSectionRequest{Slug: "one-too-many"})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestUpdateSection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)
	f.createSection(t, "hero", models.EmptyLayout())

	order := 5
	off := false
	updated, err := f.svc.Sections.UpdateSection(ctx, models.BySlug("hero"), &siteSvc.UpdateSectionRequest{SortOrder: &order, IsEnabled: &off})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.SortOrder)
	assert.False(t, updated.IsEnabled)

	got, err := f.svc.Sections.GetSection(ctx, models.ByID(updated.ID))
	require.NoError(t, err)
	assert.Equal(t, 5, got.SortOrder)
	assert.False(t, got.IsEnabled)

	negative := -1
	_, err = f.svc.Sections.UpdateSection(ctx, models.BySlug("hero"), &siteSvc.UpdateSectionRequest{SortOrder: &negative})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Sections.UpdateSection(ctx, models.BySlug("missing"), &siteSvc.UpdateSectionRequest{IsEnabled: &off})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReorderSections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)
	hero := f.createSection(t, "hero", models.EmptyLayout())
	features := f.createSection(t, "features", models.EmptyLayout())
	footer := f.createSection(t, "footer", models.EmptyLayout())

	tests := []struct {
		name    string
		ids     []string
		wantErr error
	}{
		{name: "empty", ids: nil, wantErr: domain.ErrValidation},
		{name: "missing one", ids: []string{footer.ID, hero.ID}, wantErr: domain.ErrValidation},
		{name: "listed twice", ids: []string{footer.ID, hero.ID, hero.ID}, wantErr: domain.ErrValidation},
		{name: "unknown id", ids: []string{footer.ID, hero.ID, "3f1c9a52-7d1e-4c7a-9a55-0c6c4f2b8e11"}, wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Sections.ReorderSections(ctx, tt.ids)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.svc.Sections.ReorderSections(ctx, []string{footer.ID, hero.ID, features.ID})
	require.NoError(t, err)

	sections, err := f.svc.Sections.ListSections(ctx)
	require.NoError(t, err)
	slugs := make([]string, len(sections))
	for i, s := range sections {
		slugs[i] = s.Slug
	}
	assert.Equal(t, []string{"footer", "hero", "features"}, slugs)
}
