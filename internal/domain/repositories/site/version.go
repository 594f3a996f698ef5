package site

import (
	"context"

	"sitecanvas/internal/domain/models/site"
)

// VersionRepository defines data access operations for section versions.
//
// A section holds at most one published and at most one draft version; the store
// enforces this, so writes that would create a second live version fail with
// *domain.ConflictError.
type VersionRepository interface {
	// Create inserts a version. An empty ID is generated.
	Create(ctx context.Context, version *site.Version) error

	// CreateIfAbsent inserts a live version unless the section already has one
	// with the same status. Reports whether the row was inserted.
	CreateIfAbsent(ctx context.Context, version *site.Version) (bool, error)

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id string) (*site.Version, error)

	// GetLive retrieves the section's published or draft version
	GetLive(ctx context.Context, sectionID string, status site.VersionStatus) (*site.Version, error)

	// ListBySection lists a section's versions, newest first.
	// A nil status lists every status.
	ListBySection(ctx context.Context, sectionID string, status *site.VersionStatus) ([]site.Version, error)

	// ListByStatus lists versions with the given status across all sections
	ListByStatus(ctx context.Context, status site.VersionStatus) ([]site.Version, error)

	// SaveLayout overwrites a version's layout unconditionally
	SaveLayout(ctx context.Context, id string, layout site.Layout) error

	// UpdateStatus changes a version's status
	UpdateStatus(ctx context.Context, id string, status site.VersionStatus) error

	// Delete removes a version
	Delete(ctx context.Context, id string) error
}
