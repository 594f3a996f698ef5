package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecanvas/internal/blocks"
	"sitecanvas/internal/config"
	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/repository"
	serviceSite "sitecanvas/internal/service/site"
)

type server struct {
	t       *testing.T
	handler http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repos, err := repository.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	kinds, err := blocks.NewRegistry()
	require.NoError(t, err)

	services, err := serviceSite.SetupServices(repos, kinds, nil, nil, &config.Config{MoveTarget: config.MoveTargetPublished}, logger)
	require.NoError(t, err)

	return &server{t: t, handler: NewRouter(NewHandlers(services, kinds, logger), nil, nil)}
}

func (s *server) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *server) seedHero() *models.Section {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/sections", map[string]any{
		"slug": "hero",
		"layout": map[string]any{
			"background": "light",
			"content": []any{
				map[string]any{"id": "h1", "type": "heading", "content": "Welcome"},
				map[string]any{"id": "c1", "type": "card", "content": []any{
					map[string]any{"id": "t1", "type": "text", "content": "copy"},
				}},
			},
		},
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	section := decode[models.Section](s.t, rec)
	return &section
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListKinds(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/blocks/kinds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[struct {
		Kinds []blocks.Kind `json:"kinds"`
	}](t, rec)
	require.NotEmpty(t, all.Kinds)
	assert.Equal(t, "generic-section", all.Kinds[0].ID)

	rec = s.do(http.MethodGet, "/api/blocks/kinds?category=media", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	media := decode[struct {
		Kinds []blocks.Kind `json:"kinds"`
	}](t, rec)
	require.NotEmpty(t, media.Kinds)
	for _, k := range media.Kinds {
		assert.Equal(t, blocks.CategoryMedia, k.Category)
		assert.False(t, k.AcceptsChildren, k.ID)
	}
}

func TestSectionRoutes(t *testing.T) {
	s := newServer(t)
	hero := s.seedHero()

	rec := s.do(http.MethodPost, "/api/sections", map[string]any{"slug": "hero"})
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate slug returns the existing section")
	assert.Equal(t, hero.ID, decode[models.Section](t, rec).ID)

	rec = s.do(http.MethodGet, "/api/sections/hero", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, hero.ID, decode[models.Section](t, rec).ID)

	rec = s.do(http.MethodGet, "/api/sections/"+hero.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/sections/Not%20A%20Slug", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = s.do(http.MethodGet, "/api/sections/footer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPatch, "/api/sections/hero", map[string]any{"is_enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Section](t, rec).IsEnabled)

	rec = s.do(http.MethodPost, "/api/sections", `{"slug":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/sections/reorder", map[string]any{"ids": []string{hero.ID}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/sections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Section](t, rec), 1)
}

func TestEditPublishFlow(t *testing.T) {
	s := newServer(t)
	s.seedHero()

	rec := s.do(http.MethodPost, "/api/blocks", map[string]any{
		"parent_id": "hero",
		"block":     map[string]any{"type": "button", "content": "Sign up"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inserted := decode[siteSvc.MutationResult](t, rec)
	assert.Equal(t, models.VersionDraft, inserted.Status)
	assert.NotEmpty(t, inserted.BlockID)

	rec = s.do(http.MethodPatch, "/api/blocks/t1", map[string]any{"patch": map[string]any{"content": "new copy"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, inserted.VersionID, decode[siteSvc.MutationResult](t, rec).VersionID)

	rec = s.do(http.MethodGet, "/api/sections/hero/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.Version](t, rec).Layout.Content, 2, "published is untouched by draft edits")

	rec = s.do(http.MethodGet, "/api/sections/hero/layout?status=draft", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.Version](t, rec).Layout.Content, 3)

	rec = s.do(http.MethodPost, "/api/sections/hero/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/sections/hero/versions?status=archived", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	archived := decode[[]models.Version](t, rec)
	require.Len(t, archived, 1)

	rec = s.do(http.MethodPost, "/api/versions/"+archived[0].ID+"/revert", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/sections/hero/draft", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/versions/"+archived[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/versions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMutationErrorMapping(t *testing.T) {
	s := newServer(t)
	s.seedHero()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "unknown block", method: http.MethodPatch, path: "/api/blocks/nope", body: map[string]any{"patch": map[string]any{}}, want: http.StatusNotFound},
		{name: "duplicate id", method: http.MethodPost, path: "/api/blocks", body: map[string]any{"parent_id": "hero", "block": map[string]any{"id": "t1", "type": "text"}}, want: http.StatusUnprocessableEntity},
		{name: "unknown type", method: http.MethodPost, path: "/api/blocks", body: map[string]any{"parent_id": "hero", "block": map[string]any{"type": "marquee"}}, want: http.StatusBadRequest},
		{name: "nested delete on root path", method: http.MethodDelete, path: "/api/sections/hero/blocks/t1", want: http.StatusNotFound},
		{name: "delete from unknown section", method: http.MethodDelete, path: "/api/sections/footer/blocks/h1", want: http.StatusNotFound},
		{name: "bad slot", method: http.MethodDelete, path: "/api/sections/hero/blocks/c1/children/t1?slot=sidebar", want: http.StatusBadRequest},
		{name: "save archived-only rules", method: http.MethodPut, path: "/api/versions/00000000-0000-0000-0000-000000000000/layout", body: map[string]any{"content": []any{}}, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestMoveAndDragRoutes(t *testing.T) {
	s := newServer(t)
	hero := s.seedHero()

	rec := s.do(http.MethodPost, "/api/sections/hero/blocks/move", map[string]any{"active_id": "t1", "over_id": hero.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[siteSvc.MutationResult](t, rec)
	assert.Equal(t, siteSvc.MoveKindUnnest, moved.MoveKind)
	assert.Equal(t, models.VersionPublished, moved.Status)

	rec = s.do(http.MethodPost, "/api/sections/hero/blocks/drag", map[string]any{
		"active_id":   "h1",
		"over_id":     "h1",
		"delta":       map[string]any{"x": 12, "y": 8},
		"active_rect": map[string]any{"x": 0, "y": 0, "width": 100, "height": 40},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dragged := decode[siteSvc.MutationResult](t, rec)
	assert.Equal(t, siteSvc.MoveKindReposition, dragged.MoveKind)
	assert.Equal(t, map[string]any{"x": 12.0, "y": 8.0}, dragged.Layout.Content[0].Settings[serviceSite.PositionKey])

	rec = s.do(http.MethodDelete, "/api/sections/hero/blocks/c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBackupRoutes(t *testing.T) {
	s := newServer(t)
	s.seedHero()

	rec := s.do(http.MethodPost, "/api/backups", map[string]any{"name": "nightly", "include_published": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	backup := decode[models.Backup](t, rec)

	rec = s.do(http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Backup](t, rec), 1)

	rec = s.do(http.MethodGet, "/api/backups/"+backup.ID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), backup.ID+".json")
	var export serviceSite.ExportDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))

	rec = s.do(http.MethodGet, "/api/backups/"+backup.ID+"/export?format=summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Backup: nightly"))

	rec = s.do(http.MethodGet, "/api/backups/"+backup.ID+"/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	snapshot, err := json.Marshal(export.Snapshot)
	require.NoError(t, err)
	rec = s.do(http.MethodPost, "/api/backups/import", map[string]any{
		"name":          "copy",
		"backup_type":   "published",
		"snapshot_json": json.RawMessage(snapshot),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/backups/"+backup.ID+"/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[siteSvc.RestoreResult](t, rec).Drafts, 1)

	rec = s.do(http.MethodPost, "/api/backups/"+backup.ID+"/archive", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "archive needs object storage")

	rec = s.do(http.MethodDelete, "/api/backups/"+backup.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/backups/"+backup.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBackupWithoutSections(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/api/backups", map[string]any{"name": "empty", "include_published": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
