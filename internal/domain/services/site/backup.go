package site

import (
	"context"
	"encoding/json"

	"sitecanvas/internal/domain/models/site"
)

// BackupService captures and restores the whole set of section layouts
type BackupService interface {
	// CreateBackup snapshots every section. Fails when there are no sections.
	CreateBackup(ctx context.Context, req *CreateBackupRequest) (*site.Backup, error)

	// ImportBackup stores an externally produced snapshot after validating its shape
	ImportBackup(ctx context.Context, req *ImportBackupRequest) (*site.Backup, error)

	// Restore writes every captured section back as a draft, never as published
	Restore(ctx context.Context, backupID string) (*RestoreResult, error)

	// ListBackups lists backup metadata, newest first
	ListBackups(ctx context.Context) ([]site.Backup, error)

	// GetBackup retrieves a backup with its snapshot
	GetBackup(ctx context.Context, backupID string) (*site.Backup, error)

	// DeleteBackup removes a backup
	DeleteBackup(ctx context.Context, backupID string) error

	// ArchiveBackup uploads the backup's JSON export to object storage
	ArchiveBackup(ctx context.Context, backupID string) (*ArchiveResult, error)
}

// CreateBackupRequest represents a backup creation request
type CreateBackupRequest struct {
	Name             string `json:"name"`
	IncludePublished bool   `json:"include_published"`
	IncludeDraft     bool   `json:"include_draft"`
}

// ImportBackupRequest carries a raw snapshot array
type ImportBackupRequest struct {
	Name       string          `json:"name"`
	BackupType site.BackupType `json:"backup_type"`
	Snapshot   json.RawMessage `json:"snapshot_json"`
}

// RestoreResult lists the drafts a restore wrote
type RestoreResult struct {
	BackupID string          `json:"backup_id"`
	Drafts   []RestoredDraft `json:"drafts"`
	Created  []string        `json:"created_sections,omitempty"` // Slugs recreated because they no longer existed
}

// RestoredDraft is one section draft written by a restore
type RestoredDraft struct {
	SectionID string `json:"section_id"`
	Slug      string `json:"slug"`
	VersionID string `json:"version_id"`
}

// ArchiveResult locates an archived backup export
type ArchiveResult struct {
	BackupID string `json:"backup_id"`
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
}

// Archiver stores backup exports outside the database
type Archiver interface {
	Put(ctx context.Context, key string, body []byte) (bucket string, err error)
}
