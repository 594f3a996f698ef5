package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"sitecanvas/internal/blocktree"
	"sitecanvas/internal/config"
	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	"sitecanvas/internal/domain/repositories"
	siteRepo "sitecanvas/internal/domain/repositories/site"
	siteSvc "sitecanvas/internal/domain/services/site"
)

// versionStore implements the VersionStore interface
type versionStore struct {
	sectionRepo siteRepo.SectionRepository
	versionRepo siteRepo.VersionRepository
	txManager   repositories.TransactionManager
	notifier    siteSvc.Notifier
	logger      *slog.Logger
}

// NewVersionStore creates a new version store
func NewVersionStore(
	sectionRepo siteRepo.SectionRepository,
	versionRepo siteRepo.VersionRepository,
	txManager repositories.TransactionManager,
	notifier siteSvc.Notifier,
	logger *slog.Logger,
) siteSvc.VersionStore {
	return newVersionStore(sectionRepo, versionRepo, txManager, notifier, logger)
}

func newVersionStore(
	sectionRepo siteRepo.SectionRepository,
	versionRepo siteRepo.VersionRepository,
	txManager repositories.TransactionManager,
	notifier siteSvc.Notifier,
	logger *slog.Logger,
) *versionStore {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &versionStore{
		sectionRepo: sectionRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		notifier:    notifier,
		logger:      logger,
	}
}

type noopNotifier struct{}

func (noopNotifier) PublishedChanged(context.Context, siteSvc.PublishEvent) {}

// ResolveSection looks a section up by id or slug
func (s *versionStore) ResolveSection(ctx context.Context, ref models.Ref) (*models.Section, error) {
	switch ref.Kind() {
	case models.RefByID:
		return s.sectionRepo.GetByID(ctx, ref.Value())
	case models.RefBySlug:
		return s.sectionRepo.GetBySlug(ctx, ref.Value())
	}
	return nil, fmt.Errorf("empty section reference: %w", domain.ErrMalformedReference)
}

// resolveRaw classifies raw and resolves it
func (s *versionStore) resolveRaw(ctx context.Context, raw string) (*models.Section, error) {
	ref, err := models.ParseRef(raw)
	if err != nil {
		return nil, err
	}
	return s.ResolveSection(ctx, ref)
}

// GetOrCreateDraft returns the live draft, cloning the published layout when none exists
func (s *versionStore) GetOrCreateDraft(ctx context.Context, sectionID string) (*models.Version, error) {
	var draft *models.Version
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.sectionRepo.GetByID(txCtx, sectionID); err != nil {
			return err
		}
		var err error
		draft, err = s.getOrCreateDraft(txCtx, sectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *versionStore) getOrCreateDraft(ctx context.Context, sectionID string) (*models.Version, error) {
	draft, err := s.versionRepo.GetLive(ctx, sectionID, models.VersionDraft)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	layout := models.EmptyLayout()
	published, err := s.versionRepo.GetLive(ctx, sectionID, models.VersionPublished)
	switch {
	case err == nil:
		layout = published.Layout.Clone()
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	return s.createDraft(ctx, sectionID, layout)
}

// createDraft inserts a draft holding layout. When another writer created the
// draft first, theirs is returned unchanged.
func (s *versionStore) createDraft(ctx context.Context, sectionID string, layout models.Layout) (*models.Version, error) {
	draft := &models.Version{
		SectionID: sectionID,
		Status:    models.VersionDraft,
		Layout:    layout,
	}
	created, err := s.versionRepo.CreateIfAbsent(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create draft for section %s: %w", sectionID, err)
	}
	if !created {
		return s.versionRepo.GetLive(ctx, sectionID, models.VersionDraft)
	}

	draftsCreated.Inc()
	s.logger.Info("draft created", "section_id", sectionID, "version_id", draft.ID)
	return draft, nil
}

// writeDraft replaces the section draft's layout, creating the draft if needed
func (s *versionStore) writeDraft(ctx context.Context, sectionID string, layout models.Layout) (*models.Version, error) {
	draft, err := s.versionRepo.GetLive(ctx, sectionID, models.VersionDraft)
	if errors.Is(err, domain.ErrNotFound) {
		return s.createDraft(ctx, sectionID, layout)
	}
	if err != nil {
		return nil, err
	}
	if err := s.versionRepo.SaveLayout(ctx, draft.ID, layout); err != nil {
		return nil, err
	}
	draft.Layout = layout
	return draft, nil
}

// Save overwrites a version's layout
func (s *versionStore) Save(ctx context.Context, versionID string, layout models.Layout) error {
	if err := validateID("version_id", versionID); err != nil {
		return err
	}
	if err := blocktree.Validate(layout.Content, config.MaxTreeDepth); err != nil {
		return err
	}

	var saved *models.Version
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		v, err := s.versionRepo.GetByID(txCtx, versionID)
		if err != nil {
			return err
		}
		if v.Status == models.VersionArchived {
			return domain.NewInvariantError("version %s is archived and read-only", versionID)
		}
		saved = v
		return s.versionRepo.SaveLayout(txCtx, versionID, layout)
	})
	if err != nil {
		return err
	}

	s.logger.Info("layout saved", "version_id", versionID, "status", saved.Status)
	if saved.Status == models.VersionPublished {
		s.notifyPublished(ctx, saved.SectionID, versionID, "save")
	}
	return nil
}

// Publish promotes the draft and archives the prior published version
func (s *versionStore) Publish(ctx context.Context, ref models.Ref) (*models.Version, error) {
	var section *models.Section
	var draft *models.Version
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		section, err = s.ResolveSection(txCtx, ref)
		if err != nil {
			return err
		}
		draft, err = s.versionRepo.GetLive(txCtx, section.ID, models.VersionDraft)
		if err != nil {
			return fmt.Errorf("section %s has no draft to publish: %w", section.Slug, err)
		}

		published, err := s.versionRepo.GetLive(txCtx, section.ID, models.VersionPublished)
		switch {
		case err == nil:
			if err := s.versionRepo.UpdateStatus(txCtx, published.ID, models.VersionArchived); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		if err := s.versionRepo.UpdateStatus(txCtx, draft.ID, models.VersionPublished); err != nil {
			return err
		}
		draft.Status = models.VersionPublished
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishesTotal.Inc()
	s.logger.Info("section published", "section_id", section.ID, "slug", section.Slug, "version_id", draft.ID)
	s.notifier.PublishedChanged(ctx, siteSvc.PublishEvent{
		SectionID: section.ID,
		Slug:      section.Slug,
		VersionID: draft.ID,
		Reason:    "publish",
	})
	return draft, nil
}

// DiscardDraft deletes the section's live draft
func (s *versionStore) DiscardDraft(ctx context.Context, ref models.Ref) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		section, err := s.ResolveSection(txCtx, ref)
		if err != nil {
			return err
		}
		draft, err := s.versionRepo.GetLive(txCtx, section.ID, models.VersionDraft)
		if err != nil {
			return fmt.Errorf("section %s has no draft: %w", section.Slug, err)
		}
		if err := s.versionRepo.Delete(txCtx, draft.ID); err != nil {
			return err
		}
		s.logger.Info("draft discarded", "section_id", section.ID, "version_id", draft.ID)
		return nil
	})
}

// ListVersions lists a section's versions, newest first
func (s *versionStore) ListVersions(ctx context.Context, ref models.Ref, status *models.VersionStatus) ([]models.Version, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *status)
	}
	section, err := s.ResolveSection(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.versionRepo.ListBySection(ctx, section.ID, status)
}

// GetLayout returns the section's live published or draft version
func (s *versionStore) GetLayout(ctx context.Context, ref models.Ref, status models.VersionStatus) (*models.Version, error) {
	if !status.IsLive() {
		return nil, fmt.Errorf("%w: layout status must be published or draft, got %q", domain.ErrValidation, status)
	}
	section, err := s.ResolveSection(ctx, ref)
	if err != nil {
		return nil, err
	}
	v, err := s.versionRepo.GetLive(ctx, section.ID, status)
	if err != nil {
		return nil, fmt.Errorf("%s layout of section %s: %w", status, section.Slug, err)
	}
	return v, nil
}

// DeleteVersion deletes an archived version
func (s *versionStore) DeleteVersion(ctx context.Context, versionID string) error {
	if err := validateID("version_id", versionID); err != nil {
		return err
	}
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		v, err := s.versionRepo.GetByID(txCtx, versionID)
		if err != nil {
			return err
		}
		if v.Status.IsLive() {
			return domain.NewInvariantError("version %s is %s; only archived versions can be deleted", versionID, v.Status)
		}
		if err := s.versionRepo.Delete(txCtx, versionID); err != nil {
			return err
		}
		s.logger.Info("version deleted", "section_id", v.SectionID, "version_id", versionID)
		return nil
	})
}

// RevertToVersion copies an archived layout into the section's draft
func (s *versionStore) RevertToVersion(ctx context.Context, versionID string) (*models.Version, error) {
	if err := validateID("version_id", versionID); err != nil {
		return nil, err
	}
	var draft *models.Version
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		v, err := s.versionRepo.GetByID(txCtx, versionID)
		if err != nil {
			return err
		}
		if v.Status != models.VersionArchived {
			return domain.NewInvariantError("version %s is %s; only archived versions can be reverted to", versionID, v.Status)
		}
		draft, err = s.writeDraft(txCtx, v.SectionID, v.Layout.Clone())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("draft reverted", "section_id", draft.SectionID, "draft_id", draft.ID, "source_version_id", versionID)
	return draft, nil
}

// notifyPublished looks up the slug and fires the published-output signal
func (s *versionStore) notifyPublished(ctx context.Context, sectionID, versionID, reason string) {
	event := siteSvc.PublishEvent{SectionID: sectionID, VersionID: versionID, Reason: reason}
	if section, err := s.sectionRepo.GetByID(ctx, sectionID); err == nil {
		event.Slug = section.Slug
	}
	s.notifier.PublishedChanged(ctx, event)
}

// validateID checks that raw is an opaque id before any lookup
func validateID(field, raw string) error {
	if err := validation.Validate(raw, validation.Required, is.UUID); err != nil {
		return fmt.Errorf("%s: %v: %w", field, err, domain.ErrMalformedReference)
	}
	return nil
}
