package site

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sitecanvas/internal/blocks"
	"sitecanvas/internal/config"
	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/repository"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []siteSvc.PublishEvent
}

func (n *recordingNotifier) PublishedChanged(_ context.Context, e siteSvc.PublishEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) Events() []siteSvc.PublishEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]siteSvc.PublishEvent(nil), n.events...)
}

type memArchiver struct {
	objects map[string][]byte
}

func (a *memArchiver) Put(_ context.Context, key string, body []byte) (string, error) {
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = body
	return "test-bucket", nil
}

type fixture struct {
	svc      *Services
	repos    *repository.Repositories
	notifier *recordingNotifier
	archiver *memArchiver
}

func newFixture(t *testing.T, moveTarget string) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repos, err := repository.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	kinds, err := blocks.NewRegistry()
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	archiver := &memArchiver{}
	svc, err := SetupServices(repos, kinds, notifier, archiver, &config.Config{MoveTarget: moveTarget}, logger)
	require.NoError(t, err)

	return &fixture{svc: svc, repos: repos, notifier: notifier, archiver: archiver}
}

func text(id, typ, value string) models.Block {
	raw, _ := json.Marshal(value)
	return models.Block{ID: id, Type: typ, Text: raw}
}

func box(id, typ string, children ...models.Block) models.Block {
	return models.Block{ID: id, Type: typ}.WithSlot(models.SlotContent, children)
}

// heroLayout is: h1, c1[t1], g1[c2[t2]], f1 (back: t3)
func heroLayout() models.Layout {
	flip := box("f1", "flip-card", text("t4", "text", "front")).
		WithSlot(models.SlotBackContent, []models.Block{text("t3", "text", "back")})
	return models.Layout{
		Content: []models.Block{
			text("h1", "heading", "Welcome"),
			box("c1", "card", text("t1", "text", "Old copy")),
			box("g1", "grid", box("c2", "card", text("t2", "text", "Nested"))),
			flip,
		},
		Settings: map[string]any{"background": "light"},
	}
}

func (f *fixture) createSection(t *testing.T, slug string, layout models.Layout) *models.Section {
	t.Helper()
	section, err := f.svc.Sections.CreateSection(context.Background(), &siteSvc.CreateSectionRequest{Slug: slug, Layout: &layout})
	require.NoError(t, err)
	return section
}

func (f *fixture) layout(t *testing.T, slug string, status models.VersionStatus) models.Layout {
	t.Helper()
	v, err := f.svc.Versions.GetLayout(context.Background(), models.BySlug(slug), status)
	require.NoError(t, err)
	return v.Layout
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func rootIDs(l models.Layout) []string {
	ids := make([]string, len(l.Content))
	for i, b := range l.Content {
		ids[i] = b.ID
	}
	return ids
}
