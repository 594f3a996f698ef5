// Package seed creates the demo landing page sections.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
)

// Result counts what Seed did
type Result struct {
	Created []string
	Skipped []string
}

// Seeder creates demo sections through the section service
type Seeder struct {
	sections siteSvc.SectionService
	logger   *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(sections siteSvc.SectionService, logger *slog.Logger) *Seeder {
	return &Seeder{sections: sections, logger: logger}
}

// Seed creates every demo section that does not exist yet. Existing slugs are
// left untouched.
func (s *Seeder) Seed(ctx context.Context) (*Result, error) {
	result := &Result{}
	for _, req := range Sections() {
		section, err := s.sections.CreateSection(ctx, req)
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Info("section exists, skipping", "slug", req.Slug)
			result.Skipped = append(result.Skipped, req.Slug)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("seed section %s: %w", req.Slug, err)
		}
		s.logger.Info("section seeded", "slug", section.Slug, "section_id", section.ID)
		result.Created = append(result.Created, section.Slug)
	}
	return result, nil
}

// Sections returns the demo page: hero, features and footer
func Sections() []*siteSvc.CreateSectionRequest {
	return []*siteSvc.CreateSectionRequest{
		{Slug: "hero", Layout: heroLayout()},
		{Slug: "features", Layout: featuresLayout()},
		{Slug: "footer", Layout: footerLayout()},
	}
}

// block builds a leaf; empty text leaves content absent
func block(id, typ, text string, settings map[string]any) models.Block {
	b := models.Block{ID: id, Type: typ, Settings: settings}
	if text != "" {
		b.Text, _ = json.Marshal(text)
	}
	return b
}

func parent(id, typ string, settings map[string]any, children ...models.Block) models.Block {
	return models.Block{
		ID:       id,
		Type:     typ,
		Slots:    map[models.SlotKind][]models.Block{models.SlotContent: children},
		Settings: settings,
	}
}

func heroLayout() *models.Layout {
	return &models.Layout{
		Settings: map[string]any{"background": "gradient", "minHeight": "80vh"},
		Content: []models.Block{
			block("hero-heading", "heading", "Build pages by dragging blocks", map[string]any{"level": 1}),
			block("hero-copy", "text", "Drafts stay private until you publish.", nil),
			parent("hero-actions", "container", map[string]any{"direction": "row"},
				block("hero-cta", "button", "Get started", map[string]any{"href": "/signup", "variant": "primary"}),
				block("hero-docs", "button", "Read the docs", map[string]any{"href": "/docs", "variant": "ghost"}),
			),
		},
	}
}

func featuresLayout() *models.Layout {
	card := func(id, title, body string) models.Block {
		return parent(id, "card", nil,
			block(id+"-title", "heading", title, map[string]any{"level": 3}),
			block(id+"-body", "text", body, nil),
		)
	}
	flip := models.Block{
		ID:   "feature-backups",
		Type: "flip-card",
		Slots: map[models.SlotKind][]models.Block{
			models.SlotContent:     {block("feature-backups-front", "heading", "Backups", map[string]any{"level": 3})},
			models.SlotBackContent: {block("feature-backups-back", "text", "Snapshot every section and restore it as a draft.", nil)},
		},
	}
	return &models.Layout{
		Content: []models.Block{
			block("features-heading", "heading", "Why teams use it", map[string]any{"level": 2}),
			parent("features-grid", "grid", map[string]any{"columns": 3},
				card("feature-drafts", "Drafts", "Edit freely, publish when ready."),
				card("feature-history", "History", "Every publish archives the previous version."),
				flip,
			),
		},
	}
}

func footerLayout() *models.Layout {
	return &models.Layout{
		Settings: map[string]any{"background": "dark"},
		Content: []models.Block{
			parent("footer-links", "columns", nil,
				block("footer-about", "text", "About", map[string]any{"href": "/about"}),
				block("footer-contact", "text", "Contact", map[string]any{"href": "/contact"}),
			),
			block("footer-divider", "divider", "", nil),
			block("footer-legal", "text", "All rights reserved.", nil),
		},
	}
}
