package site

import (
	"context"

	"sitecanvas/internal/domain/models/site"
)

// SectionRepository defines data access operations for sections
type SectionRepository interface {
	// Create inserts a section. An empty ID is generated.
	// Returns *domain.ConflictError when the slug is taken.
	Create(ctx context.Context, section *site.Section) error

	// GetByID retrieves a section by ID
	GetByID(ctx context.Context, id string) (*site.Section, error)

	// GetBySlug retrieves a section by slug
	GetBySlug(ctx context.Context, slug string) (*site.Section, error)

	// List retrieves all sections ordered by sort_order, then slug
	List(ctx context.Context) ([]site.Section, error)

	// Update writes sort_order, is_enabled and updated_at
	Update(ctx context.Context, section *site.Section) error
}
