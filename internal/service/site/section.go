package site

import (
	"context"
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

// sectionService implements the SectionService interface
type sectionService struct {
	store       *versionStore
	sectionRepo siteRepo.SectionRepository
	versionRepo siteRepo.VersionRepository
	txManager   repositories.TransactionManager
	kinds       KindChecker
	logger      *slog.Logger
}

// NewSectionService creates a new section service
func NewSectionService(
	store siteSvc.VersionStore,
	sectionRepo siteRepo.SectionRepository,
	versionRepo siteRepo.VersionRepository,
	txManager repositories.TransactionManager,
	kinds KindChecker,
	logger *slog.Logger,
) (siteSvc.SectionService, error) {
	vs, ok := store.(*versionStore)
	if !ok {
		return nil, fmt.Errorf("section service requires the built-in version store, got %T", store)
	}
	return &sectionService{
		store:       vs,
		sectionRepo: sectionRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		kinds:       kinds,
		logger:      logger,
	}, nil
}

var slugRule = validation.By(func(value any) error {
	s, _ := value.(string)
	if !models.ValidSlug(s) {
		return errors.New("must be lowercase letters, digits, '-' or '_'")
	}
	return nil
})

// CreateSection creates a section together with its first published version
func (s *sectionService) CreateSection(ctx context.Context, req *siteSvc.CreateSectionRequest) (*models.Section, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Slug, validation.Required, validation.Length(1, config.MaxSlugLength), slugRule),
		validation.Field(&req.SortOrder, validation.Min(0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if models.LooksLikeID(req.Slug) {
		return nil, fmt.Errorf("%w: slug must not look like an id", domain.ErrValidation)
	}

	layout := models.EmptyLayout()
	if req.Layout != nil {
		layout = req.Layout.Clone()
		if err := s.checkLayout(layout); err != nil {
			return nil, err
		}
	}

	section := &models.Section{Slug: req.Slug, IsEnabled: true}
	if req.IsEnabled != nil {
		section.IsEnabled = *req.IsEnabled
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		existing, err := s.sectionRepo.List(txCtx)
		if err != nil {
			return err
		}
		if len(existing) >= config.MaxSections {
			return domain.NewInvariantError("a site holds at most %d sections", config.MaxSections)
		}

		if req.SortOrder != nil {
			section.SortOrder = *req.SortOrder
		} else {
			for _, e := range existing {
				section.SortOrder = max(section.SortOrder, e.SortOrder+1)
			}
		}

		if err := s.sectionRepo.Create(txCtx, section); err != nil {
			return err
		}
		return s.versionRepo.Create(txCtx, &models.Version{
			SectionID: section.ID,
			Status:    models.VersionPublished,
			Layout:    layout,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("section created", "section_id", section.ID, "slug", section.Slug, "sort_order", section.SortOrder)
	return section, nil
}

// checkLayout verifies block kinds, id uniqueness and depth
func (s *sectionService) checkLayout(layout models.Layout) error {
	for _, b := range layout.Content {
		if err := s.kinds.CheckTree(b); err != nil {
			return err
		}
	}
	return blocktree.Validate(layout.Content, config.MaxTreeDepth)
}

// ListSections lists sections ordered by sort_order
func (s *sectionService) ListSections(ctx context.Context) ([]models.Section, error) {
	return s.sectionRepo.List(ctx)
}

// GetSection resolves a section by id or slug
func (s *sectionService) GetSection(ctx context.Context, ref models.Ref) (*models.Section, error) {
	return s.store.ResolveSection(ctx, ref)
}

// UpdateSection changes ordering or visibility
func (s *sectionService) UpdateSection(ctx context.Context, ref models.Ref, req *siteSvc.UpdateSectionRequest) (*models.Section, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SortOrder, validation.Min(0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var section *models.Section
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		section, err = s.store.ResolveSection(txCtx, ref)
		if err != nil {
			return err
		}
		if req.SortOrder != nil {
			section.SortOrder = *req.SortOrder
		}
		if req.IsEnabled != nil {
			section.IsEnabled = *req.IsEnabled
		}
		section.UpdatedAt = time.Now().UTC()
		return s.sectionRepo.Update(txCtx, section)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("section updated", "section_id", section.ID, "sort_order", section.SortOrder, "is_enabled", section.IsEnabled)
	return section, nil
}

// ReorderSections assigns sort_order from each id's position in ids
func (s *sectionService) ReorderSections(ctx context.Context, ids []string) ([]models.Section, error) {
	if err := validation.Validate(ids, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: ids: %v", domain.ErrValidation, err)
	}

	var sections []models.Section
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		existing, err := s.sectionRepo.List(txCtx)
		if err != nil {
			return err
		}
		if len(ids) != len(existing) {
			return fmt.Errorf("%w: reorder must list all %d sections, got %d", domain.ErrValidation, len(existing), len(ids))
		}

		byID := make(map[string]models.Section, len(existing))
		for _, sec := range existing {
			byID[sec.ID] = sec
		}
		seen := make(map[string]bool, len(ids))
		now := time.Now().UTC()
		for i, id := range ids {
			sec, ok := byID[id]
			if !ok {
				return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
			}
			if seen[id] {
				return fmt.Errorf("%w: section %s listed twice", domain.ErrValidation, id)
			}
			seen[id] = true

			sec.SortOrder = i
			sec.UpdatedAt = now
			if err := s.sectionRepo.Update(txCtx, &sec); err != nil {
				return err
			}
			sections = append(sections, sec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sections reordered", "count", len(sections))
	return sections, nil
}
