package site

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecanvas/internal/config"
	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
)

func TestResolveSection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)
	section := f.createSection(t, "hero", models.EmptyLayout())

	tests := []struct {
		name    string
		ref     models.Ref
		wantErr error
	}{
		{name: "by id", ref: models.ByID(section.ID)},
		{name: "by slug", ref: models.BySlug("hero")},
		{name: "unknown slug", ref: models.BySlug("footer"), wantErr: domain.ErrNotFound},
		{name: "unknown id", ref: models.ByID("00000000-0000-0000-0000-000000000000"), wantErr: domain.ErrNotFound},
		{name: "zero ref", ref: models.Ref{}, wantErr: domain.ErrMalformedReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Versions.ResolveSection(ctx, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, section.ID, got.ID)
		})
	}
}

func TestGetOrCreateDraftIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)
	section := f.createSection(t, "hero", heroLayout())

	first, err := f.svc.Versions.GetOrCreateDraft(ctx, section.ID)
	require.NoError(t, err)
	second, err := f.svc.Versions.GetOrCreateDraft(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.JSONEq(t, jsonOf(t, heroLayout()), jsonOf(t, first.Layout))

	_, err = f.svc.Versions.GetOrCreateDraft(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)
	section := f.createSection(t, "hero", heroLayout())

	draft, err := f.svc.Versions.GetOrCreateDraft(ctx, section.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Versions.Save(ctx, draft.ID, models.EmptyLayout()))
	assert.Empty(t, f.layout(t, "hero", models.VersionDraft).Content)
	assert.Empty(t, f.notifier.Events())

	dup := models.Layout{Content: []models.Block{text("a", "text", ""), text("a", "text", "")}}
	assert.ErrorIs(t, f.svc.Versions.Save(ctx, draft.ID, dup), domain.ErrInvariantViolation)
	assert.ErrorIs(t, f.svc.Versions.Save(ctx, "not-an-id", models.EmptyLayout()), domain.ErrMalformedReference)

	published, err := f.svc.Versions.Publish(ctx, models.BySlug("hero"))
	require.NoError(t, err)
	versions, err := f.svc.Versions.ListVersions(ctx, models.BySlug("hero"), nil)
	require.NoError(t, err)
	var archivedID string
	for _, v := range versions {
		if v.Status == models.VersionArchived {
			archivedID = v.ID
		}
	}
	require.NotEmpty(t, archivedID)
	assert.ErrorIs(t, f.svc.Versions.Save(ctx, archivedID, models.EmptyLayout()), domain.ErrInvariantViolation)

	require.NoError(t, f.svc.Versions.Save(ctx, published.ID, heroLayout()))
	assert.Len(t, f.notifier.Events(), 2, "publish and the published save both signal")
}

func TestPublishLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)
	section := f.createSection(t, "hero", heroLayout())
	ref := models.BySlug("hero")

	_, err := f.svc.Versions.Publish(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrNotFound, "nothing to publish without a draft")

	original, err := f.svc.Versions.GetLayout(ctx, ref, models.VersionPublished)
	require.NoError(t, err)

	edit, err := f.svc.Mutations.Update(ctx, &siteSvc.UpdateBlockRequest{ID: "h1", Patch: models.Patch{"content": json.RawMessage(`"Launch"`)}})
	require.NoError(t, err)

	published, err := f.svc.Versions.Publish(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, edit.VersionID, published.ID)
	assert.Equal(t, models.VersionPublished, published.Status)

	_, err = f.svc.Versions.GetLayout(ctx, ref, models.VersionDraft)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	archived := models.VersionArchived
	old, err := f.svc.Versions.ListVersions(ctx, ref, &archived)
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, original.ID, old[0].ID)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, siteSvc.PublishEvent{SectionID: section.ID, Slug: "hero", VersionID: published.ID, Reason: "publish"}, events[0])

	assert.ErrorIs(t, f.svc.Versions.DeleteVersion(ctx, published.ID), domain.ErrInvariantViolation)

	reverted, err := f.svc.Versions.RevertToVersion(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VersionDraft, reverted.Status)
	assert.JSONEq(t, jsonOf(t, heroLayout()), jsonOf(t, f.layout(t, "hero", models.VersionDraft)))
	assert.Equal(t, `"Launch"`, string(f.layout(t, "hero", models.VersionPublished).Content[0].Text))

	_, err = f.svc.Versions.RevertToVersion(ctx, published.ID)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	require.NoError(t, f.svc.Versions.DeleteVersion(ctx, original.ID))
	_, err = f.svc.Versions.RevertToVersion(ctx, original.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiscardDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.MoveTargetPublished)
	f.createSection(t, "hero", heroLayout())
	ref := models.BySlug("hero")

	assert.ErrorIs(t, f.svc.Versions.DiscardDraft(ctx, ref), domain.ErrNotFound)

	_, err := f.svc.Mutations.Delete(ctx, &siteSvc.DeleteBlockRequest{SectionRef: "hero", BlockID: "h1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Versions.DiscardDraft(ctx, ref))

	_, err = f.svc.Versions.GetLayout(ctx, ref, models.VersionDraft)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.layout(t, "hero", models.VersionPublished).Content, 4)
}

func TestGetLayoutRejectsArchivedStatus(t *testing.T) {
	f := newFixture(t, config.MoveTargetPublished)
	f.createSection(t, "hero", heroLayout())

	_, err := f.svc.Versions.GetLayout(context.Background(), models.BySlug("hero"), models.VersionArchived)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
