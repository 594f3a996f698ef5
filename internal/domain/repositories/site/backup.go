package site

import (
	"context"

	"sitecanvas/internal/domain/models/site"
)

// BackupRepository defines data access operations for backups.
// Backups are immutable once created.
type BackupRepository interface {
	// Create inserts a backup. An empty ID is generated.
	Create(ctx context.Context, backup *site.Backup) error

	// GetByID retrieves a backup with its snapshot
	GetByID(ctx context.Context, id string) (*site.Backup, error)

	// List retrieves backup metadata (no snapshot), newest first
	List(ctx context.Context) ([]site.Backup, error)

	// Delete removes a backup
	Delete(ctx context.Context, id string) error
}
