package site

import (
	"context"

	"sitecanvas/internal/domain/models/site"
)

// SectionService manages the ordered set of page sections
type SectionService interface {
	// CreateSection creates a section with an empty published layout
	CreateSection(ctx context.Context, req *CreateSectionRequest) (*site.Section, error)

	// ListSections lists sections ordered by sort_order
	ListSections(ctx context.Context) ([]site.Section, error)

	// GetSection resolves a section by id or slug
	GetSection(ctx context.Context, ref site.Ref) (*site.Section, error)

	// UpdateSection changes ordering or visibility
	UpdateSection(ctx context.Context, ref site.Ref, req *UpdateSectionRequest) (*site.Section, error)

	// ReorderSections assigns sort_order from the position of each id in ids.
	// Every existing section must be listed exactly once.
	ReorderSections(ctx context.Context, ids []string) ([]site.Section, error)
}

// CreateSectionRequest represents a section creation request
type CreateSectionRequest struct {
	Slug      string       `json:"slug"`
	SortOrder *int         `json:"sort_order,omitempty"` // Defaults to the end of the page
	IsEnabled *bool        `json:"is_enabled,omitempty"` // Defaults to true
	Layout    *site.Layout `json:"layout,omitempty"`     // Initial published layout
}

// UpdateSectionRequest represents a partial section update
type UpdateSectionRequest struct {
	SortOrder *int  `json:"sort_order,omitempty"`
	IsEnabled *bool `json:"is_enabled,omitempty"`
}

// ReorderSectionsRequest lists section ids in their new order
type ReorderSectionsRequest struct {
	IDs []string `json:"ids"`
}
