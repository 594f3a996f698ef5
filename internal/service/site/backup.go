package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"sitecanvas/internal/blocktree"
	"sitecanvas/internal/config"
	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	"sitecanvas/internal/domain/repositories"
	siteRepo "sitecanvas/internal/domain/repositories/site"
	siteSvc "sitecanvas/internal/domain/services/site"
)

// backupService implements the BackupService interface
type backupService struct {
	store       *versionStore
	sectionRepo siteRepo.SectionRepository
	versionRepo siteRepo.VersionRepository
	backupRepo  siteRepo.BackupRepository
	txManager   repositories.TransactionManager
	archiver    siteSvc.Archiver
	logger      *slog.Logger
}

// NewBackupService creates a new backup service. A nil archiver disables ArchiveBackup.
func NewBackupService(
	store siteSvc.VersionStore,
	sectionRepo siteRepo.SectionRepository,
	versionRepo siteRepo.VersionRepository,
	backupRepo siteRepo.BackupRepository,
	txManager repositories.TransactionManager,
	archiver siteSvc.Archiver,
	logger *slog.Logger,
) (siteSvc.BackupService, error) {
	vs, ok := store.(*versionStore)
	if !ok {
		return nil, fmt.Errorf("backup service requires the built-in version store, got %T", store)
	}
	return &backupService{
		store:       vs,
		sectionRepo: sectionRepo,
		versionRepo: versionRepo,
		backupRepo:  backupRepo,
		txManager:   txManager,
		archiver:    archiver,
		logger:      logger,
	}, nil
}

var backupNameRules = []validation.Rule{validation.Required, validation.Length(1, config.MaxBackupNameLength)}

// CreateBackup snapshots every section's requested layouts
func (s *backupService) CreateBackup(ctx context.Context, req *siteSvc.CreateBackupRequest) (backup *models.Backup, err error) {
	defer func() { observeBackup("create", err) }()

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, backupNameRules...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	backupType, ok := models.BackupTypeFor(req.IncludePublished, req.IncludeDraft)
	if !ok {
		return nil, fmt.Errorf("%w: include at least one of published or draft", domain.ErrValidation)
	}

	backup = &models.Backup{Name: req.Name, BackupType: backupType}
	skipped := 0
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		sections, err := s.sectionRepo.List(txCtx)
		if err != nil {
			return err
		}
		if len(sections) == 0 {
			return domain.NewInvariantError("there are no sections to back up")
		}

		for _, section := range sections {
			snap := models.SectionSnapshot{
				ID:        section.ID,
				Slug:      section.Slug,
				SortOrder: section.SortOrder,
				IsEnabled: section.IsEnabled,
			}
			if req.IncludePublished {
				if snap.Published, err = s.liveLayout(txCtx, section.ID, models.VersionPublished); err != nil {
					return err
				}
			}
			if req.IncludeDraft {
				if snap.Draft, err = s.liveLayout(txCtx, section.ID, models.VersionDraft); err != nil {
					return err
				}
			}
			// entries without the requested layouts would not import back
			if !snap.Captures(backupType) {
				skipped++
				continue
			}
			backup.Snapshot = append(backup.Snapshot, snap)
		}
		if len(backup.Snapshot) == 0 {
			return domain.NewInvariantError("no section has a %s layout to back up", backupType)
		}
		return s.backupRepo.Create(txCtx, backup)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("backup created", "backup_id", backup.ID, "name", backup.Name, "type", backup.BackupType, "sections", len(backup.Snapshot), "skipped", skipped)
	return backup, nil
}

// liveLayout returns a copy of the section's live layout, nil when it has none
func (s *backupService) liveLayout(ctx context.Context, sectionID string, status models.VersionStatus) (*models.Layout, error) {
	v, err := s.versionRepo.GetLive(ctx, sectionID, status)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	layout := v.Layout.Clone()
	return &layout, nil
}

// ImportBackup validates a raw snapshot array and stores it as a backup.
// Nothing is stored unless every entry is well-formed.
func (s *backupService) ImportBackup(ctx context.Context, req *siteSvc.ImportBackupRequest) (backup *models.Backup, err error) {
	defer func() { observeBackup("import", err) }()

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, backupNameRules...),
		validation.Field(&req.BackupType, validation.Required, validation.In(models.BackupPublished, models.BackupDraft, models.BackupBoth)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	snapshot, err := ParseSnapshot(req.Snapshot, req.BackupType)
	if err != nil {
		return nil, err
	}

	backup = &models.Backup{Name: req.Name, BackupType: req.BackupType, Snapshot: snapshot}
	if err := s.backupRepo.Create(ctx, backup); err != nil {
		return nil, err
	}

	s.logger.Info("backup imported", "backup_id", backup.ID, "name", backup.Name, "sections", len(snapshot))
	return backup, nil
}

// ParseSnapshot decodes and checks a snapshot array against the backup type.
// Every failure matches domain.ErrMalformedReference.
func ParseSnapshot(raw json.RawMessage, backupType models.BackupType) ([]models.SectionSnapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("snapshot must be an array of sections: %w", domain.ErrMalformedReference)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("snapshot is not valid JSON: %v: %w", err, domain.ErrMalformedReference)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("snapshot contains no sections: %w", domain.ErrMalformedReference)
	}

	snapshot := make([]models.SectionSnapshot, 0, len(entries))
	slugs := make(map[string]bool, len(entries))
	for i, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 || entry[0] != '{' {
			return nil, fmt.Errorf("snapshot entry %d is not a section object: %w", i, domain.ErrMalformedReference)
		}
		var snap models.SectionSnapshot
		if err := json.Unmarshal(entry, &snap); err != nil {
			return nil, fmt.Errorf("snapshot entry %d: %v: %w", i, err, domain.ErrMalformedReference)
		}
		if err := checkSnapshot(snap, backupType); err != nil {
			return nil, fmt.Errorf("snapshot entry %d: %v: %w", i, err, domain.ErrMalformedReference)
		}
		if slugs[snap.Slug] {
			return nil, fmt.Errorf("snapshot entry %d repeats slug %q: %w", i, snap.Slug, domain.ErrMalformedReference)
		}
		slugs[snap.Slug] = true
		snapshot = append(snapshot, snap)
	}
	return snapshot, nil
}

func checkSnapshot(snap models.SectionSnapshot, backupType models.BackupType) error {
	if !models.ValidSlug(snap.Slug) {
		return fmt.Errorf("invalid slug %q", snap.Slug)
	}
	if snap.ID != "" && !models.LooksLikeID(snap.ID) {
		return fmt.Errorf("invalid section id %q", snap.ID)
	}

	if !snap.Captures(backupType) {
		return fmt.Errorf("no %s layout captured", backupType)
	}

	for _, layout := range []*models.Layout{snap.Published, snap.Draft} {
		if layout == nil {
			continue
		}
		if err := blocktree.Validate(layout.Content, config.MaxTreeDepth); err != nil {
			return err
		}
	}
	return nil
}

// Restore writes every captured layout back as the section's draft.
// Sections that no longer exist are recreated without a published version.
func (s *backupService) Restore(ctx context.Context, backupID string) (result *siteSvc.RestoreResult, err error) {
	defer func() { observeBackup("restore", err) }()

	if err := validateID("backup_id", backupID); err != nil {
		return nil, err
	}

	result = &siteSvc.RestoreResult{BackupID: backupID, Drafts: []siteSvc.RestoredDraft{}}
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		backup, err := s.backupRepo.GetByID(txCtx, backupID)
		if err != nil {
			return err
		}

		for _, snap := range backup.Snapshot {
			layout, ok := snap.RestoreLayout()
			if !ok {
				continue
			}

			section, created, err := s.restoreSection(txCtx, snap)
			if err != nil {
				return err
			}
			if created {
				result.Created = append(result.Created, section.Slug)
			}

			draft, err := s.store.writeDraft(txCtx, section.ID, layout.Clone())
			if err != nil {
				return fmt.Errorf("restore section %s: %w", snap.Slug, err)
			}
			result.Drafts = append(result.Drafts, siteSvc.RestoredDraft{
				SectionID: section.ID,
				Slug:      section.Slug,
				VersionID: draft.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("backup restored as drafts", "backup_id", backupID, "drafts", len(result.Drafts), "created_sections", len(result.Created))
	return result, nil
}

// restoreSection finds the snapshot's section by id, then by slug, creating it when gone
func (s *backupService) restoreSection(ctx context.Context, snap models.SectionSnapshot) (*models.Section, bool, error) {
	if snap.ID != "" {
		section, err := s.sectionRepo.GetByID(ctx, snap.ID)
		if err == nil {
			return section, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	section, err := s.sectionRepo.GetBySlug(ctx, snap.Slug)
	if err == nil {
		return section, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	section = &models.Section{Slug: snap.Slug, SortOrder: snap.SortOrder, IsEnabled: snap.IsEnabled}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, false, err
	}
	return section, true, nil
}

// ListBackups lists backup metadata, newest first
func (s *backupService) ListBackups(ctx context.Context) ([]models.Backup, error) {
	return s.backupRepo.List(ctx)
}

// GetBackup retrieves a backup with its snapshot
func (s *backupService) GetBackup(ctx context.Context, backupID string) (*models.Backup, error) {
	if err := validateID("backup_id", backupID); err != nil {
		return nil, err
	}
	return s.backupRepo.GetByID(ctx, backupID)
}

// DeleteBackup removes a backup
func (s *backupService) DeleteBackup(ctx context.Context, backupID string) (err error) {
	defer func() { observeBackup("delete", err) }()

	if err := validateID("backup_id", backupID); err != nil {
		return err
	}
	if err := s.backupRepo.Delete(ctx, backupID); err != nil {
		return err
	}
	s.logger.Info("backup deleted", "backup_id", backupID)
	return nil
}

// ArchiveBackup uploads the backup's JSON export to object storage
func (s *backupService) ArchiveBackup(ctx context.Context, backupID string) (result *siteSvc.ArchiveResult, err error) {
	defer func() { observeBackup("archive", err) }()

	if s.archiver == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrValidation)
	}
	backup, err := s.GetBackup(ctx, backupID)
	if err != nil {
		return nil, err
	}
	data, err := MarshalExport(backup)
	if err != nil {
		return nil, err
	}

	key := ArchiveKey(backup)
	bucket, err := s.archiver.Put(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("archive backup %s: %w", backupID, err)
	}

	s.logger.Info("backup archived", "backup_id", backupID, "bucket", bucket, "key", key, "bytes", len(data))
	return &siteSvc.ArchiveResult{BackupID: backupID, Bucket: bucket, Key: key}, nil
}

// ArchiveKey places a backup export under backups/yyyy/mm/dd/<id>.json
func ArchiveKey(b *models.Backup) string {
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return fmt.Sprintf("backups/%s/%s.json", created.UTC().Format("2006/01/02"), b.ID)
}
