package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"sitecanvas/internal/blocktree"
	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	"sitecanvas/internal/domain/repositories"
	siteRepo "sitecanvas/internal/domain/repositories/site"
	siteSvc "sitecanvas/internal/domain/services/site"
)

// mutationService implements the MutationService interface
type mutationService struct {
	store       *versionStore
	versionRepo siteRepo.VersionRepository
	txManager   repositories.TransactionManager
	kinds       KindChecker
	moveTarget  models.VersionStatus
	logger      *slog.Logger
}

// NewMutationService creates a new mutation service.
// moveTarget selects the version Move and Drag edit: published or draft.
func NewMutationService(
	store siteSvc.VersionStore,
	versionRepo siteRepo.VersionRepository,
	txManager repositories.TransactionManager,
	kinds KindChecker,
	moveTarget models.VersionStatus,
	logger *slog.Logger,
) (siteSvc.MutationService, error) {
	vs, ok := store.(*versionStore)
	if !ok {
		return nil, fmt.Errorf("mutation service requires the built-in version store, got %T", store)
	}
	if !moveTarget.IsLive() {
		return nil, fmt.Errorf("move target must be published or draft, got %q", moveTarget)
	}
	return &mutationService{
		store:       vs,
		versionRepo: versionRepo,
		txManager:   txManager,
		kinds:       kinds,
		moveTarget:  moveTarget,
		logger:      logger,
	}, nil
}

// sectionFn resolves the section an operation edits, inside the operation's transaction
type sectionFn func(ctx context.Context) (*models.Section, error)

// commandFn builds the command once the section is known
type commandFn func(section *models.Section) Command

// run executes one read-transform-write cycle.
// Everything up to the save happens in a single transaction; notification follows commit.
func (s *mutationService) run(ctx context.Context, op string, status models.VersionStatus, resolve sectionFn, build commandFn) (*siteSvc.MutationResult, error) {
	start := time.Now()

	var (
		section *models.Section
		target  *models.Version
		outcome Outcome
	)
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		section, err = resolve(txCtx)
		if err != nil {
			return err
		}

		target, err = s.obtain(txCtx, section, status)
		if err != nil {
			return err
		}

		outcome, err = Reduce(
			Target{SectionID: section.ID, VersionID: target.ID, Status: target.Status},
			target.Layout,
			build(section),
			s.kinds,
		)
		if err != nil {
			return err
		}

		for _, intent := range outcome.Intents {
			if intent.Kind != IntentPersist {
				continue
			}
			if err := s.versionRepo.SaveLayout(txCtx, intent.Target.VersionID, outcome.Layout); err != nil {
				return err
			}
		}
		return nil
	})
	observeMutation(op, start, err)
	if err != nil {
		return nil, err
	}

	if outcome.Fallback {
		moveFallbacks.Inc()
		s.logger.Warn("drop target not found, appended to root",
			"section_id", section.ID,
			"block_id", outcome.BlockID,
		)
	}
	s.logger.Info("layout mutated",
		"operation", op,
		"section_id", section.ID,
		"version_id", target.ID,
		"status", target.Status,
		"block_id", outcome.BlockID,
	)

	for _, intent := range outcome.Intents {
		if intent.Kind == IntentNotify {
			s.store.notifier.PublishedChanged(ctx, siteSvc.PublishEvent{
				SectionID: section.ID,
				Slug:      section.Slug,
				VersionID: intent.Target.VersionID,
				Reason:    op,
			})
		}
	}

	return &siteSvc.MutationResult{
		SectionID: section.ID,
		VersionID: target.ID,
		Status:    target.Status,
		BlockID:   outcome.BlockID,
		MoveKind:  outcome.MoveKind,
		Layout:    outcome.Layout,
	}, nil
}

// obtain returns the version an edit applies to: the (possibly new) draft, or the
// live published version for moves configured to edit it
func (s *mutationService) obtain(ctx context.Context, section *models.Section, status models.VersionStatus) (*models.Version, error) {
	if status == models.VersionDraft {
		return s.store.getOrCreateDraft(ctx, section.ID)
	}
	v, err := s.versionRepo.GetLive(ctx, section.ID, models.VersionPublished)
	if err != nil {
		return nil, fmt.Errorf("section %s has no published version: %w", section.Slug, err)
	}
	return v, nil
}

// sectionByRef resolves a reference that must name a section
func (s *mutationService) sectionByRef(raw string) sectionFn {
	return func(ctx context.Context) (*models.Section, error) {
		return s.store.resolveRaw(ctx, raw)
	}
}

// trySection resolves raw as a section, reporting false when raw is not one
func (s *mutationService) trySection(ctx context.Context, raw string) (*models.Section, bool, error) {
	ref, err := models.ParseRef(raw)
	if err != nil {
		return nil, false, nil
	}
	section, err := s.store.ResolveSection(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return section, true, nil
}

// owner finds the section whose tree holds blockID.
// A hint names the section directly; otherwise published layouts are searched
// first, then drafts.
func (s *mutationService) owner(ctx context.Context, blockID, hint string) (*models.Section, error) {
	if hint != "" {
		return s.store.resolveRaw(ctx, hint)
	}
	for _, status := range []models.VersionStatus{models.VersionPublished, models.VersionDraft} {
		versions, err := s.versionRepo.ListByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			if blocktree.Contains(v.Layout.Content, blockID) {
				return s.store.sectionRepo.GetByID(ctx, v.SectionID)
			}
		}
	}
	return nil, fmt.Errorf("block %s: %w", blockID, domain.ErrNotFound)
}

// Update patches a block, or the layout root when the id names a section
func (s *mutationService) Update(ctx context.Context, req *siteSvc.UpdateBlockRequest) (*siteSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ID, validation.Required),
		validation.Field(&req.Patch, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	rootUpdate := false
	resolve := func(ctx context.Context) (*models.Section, error) {
		section, ok, err := s.trySection(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			rootUpdate = true
			return section, nil
		}
		return s.owner(ctx, req.ID, req.SectionID)
	}

	return s.run(ctx, "update", models.VersionDraft, resolve, func(*models.Section) Command {
		if rootUpdate {
			return UpdateRoot{Patch: req.Patch}
		}
		return UpdateBlock{BlockID: req.ID, Patch: req.Patch}
	})
}

// Insert adds a block under a section root or a nested parent
func (s *mutationService) Insert(ctx context.Context, req *siteSvc.InsertBlockRequest) (*siteSvc.MutationResult, error) {
	if req.Slot == "" {
		req.Slot = models.SlotContent
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ParentID, validation.Required),
		validation.Field(&req.Slot, validation.In(models.SlotContent, models.SlotBackContent)),
		validation.Field(&req.Position, validation.Min(0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Block.Type == "" {
		return nil, fmt.Errorf("%w: block type is required", domain.ErrValidation)
	}

	node := blocktree.AssignIDs(req.Block, uuid.NewString)

	parentID := req.ParentID
	resolve := func(ctx context.Context) (*models.Section, error) {
		section, ok, err := s.trySection(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if ok {
			parentID = blocktree.Root
			return section, nil
		}
		return s.owner(ctx, req.ParentID, req.SectionID)
	}

	return s.run(ctx, "insert", models.VersionDraft, resolve, func(*models.Section) Command {
		return InsertBlock{ParentID: parentID, Block: node, Slot: req.Slot, Position: req.Position}
	})
}

// Delete removes a direct child of a section's root
func (s *mutationService) Delete(ctx context.Context, req *siteSvc.DeleteBlockRequest) (*siteSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SectionRef, validation.Required),
		validation.Field(&req.BlockID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.run(ctx, "delete", models.VersionDraft, s.sectionByRef(req.SectionRef), func(*models.Section) Command {
		return DeleteBlock{BlockID: req.BlockID}
	})
}

// DeleteChild removes a direct child of a named block
func (s *mutationService) DeleteChild(ctx context.Context, req *siteSvc.DeleteChildRequest) (*siteSvc.MutationResult, error) {
	if req.Slot == "" {
		req.Slot = models.SlotContent
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SectionRef, validation.Required),
		validation.Field(&req.ParentID, validation.Required),
		validation.Field(&req.BlockID, validation.Required),
		validation.Field(&req.Slot, validation.In(models.SlotContent, models.SlotBackContent)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.run(ctx, "delete_child", models.VersionDraft, s.sectionByRef(req.SectionRef), func(section *models.Section) Command {
		parentID := req.ParentID
		if parentID == section.ID || parentID == section.Slug {
			parentID = blocktree.Root
		}
		return DeleteChild{ParentID: parentID, BlockID: req.BlockID, Slot: req.Slot}
	})
}

// Move re-parents or reorders a block on the configured move target
func (s *mutationService) Move(ctx context.Context, req *siteSvc.MoveRequest) (*siteSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SectionRef, validation.Required),
		validation.Field(&req.ActiveID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.run(ctx, "move", s.moveTarget, s.sectionByRef(req.SectionRef), func(section *models.Section) Command {
		overID := req.OverID
		if overID == section.Slug {
			overID = section.ID
		}
		return MoveBlock{
			SectionID:     section.ID,
			ActiveID:      req.ActiveID,
			OverID:        overID,
			SettingsPatch: req.SettingsPatch,
		}
	})
}

// Drag resolves drag geometry into a move or a reposition and applies it
func (s *mutationService) Drag(ctx context.Context, req *siteSvc.DragRequest) (*siteSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SectionRef, validation.Required),
		validation.Field(&req.ActiveID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var plan MovePlan
	resolve := func(ctx context.Context) (*models.Section, error) {
		section, err := s.store.resolveRaw(ctx, req.SectionRef)
		if err != nil {
			return nil, err
		}
		drag := *req
		if drag.OverID == section.Slug {
			drag.OverID = section.ID
		}
		if drag.ActiveParentID == section.Slug {
			drag.ActiveParentID = section.ID
		}
		plan = ResolveDrag(section.ID, drag)
		return section, nil
	}

	result, err := s.run(ctx, "drag", s.moveTarget, resolve, func(section *models.Section) Command {
		if plan.Kind == siteSvc.MoveKindReposition {
			return MergeBlockSettings{BlockID: plan.ActiveID, Settings: plan.SettingsPatch}
		}
		return MoveBlock{
			SectionID:     section.ID,
			ActiveID:      plan.ActiveID,
			OverID:        plan.OverID,
			SettingsPatch: plan.SettingsPatch,
		}
	})
	if err != nil {
		return nil, err
	}
	// the reducer classifies against the server's block kinds; a reposition or a
	// drop outside every target never reaches it as such
	switch {
	case plan.Kind == siteSvc.MoveKindReposition:
		result.MoveKind = plan.Kind
	case plan.Kind == siteSvc.MoveKindRoot && result.MoveKind == siteSvc.MoveKindUnnest:
		result.MoveKind = plan.Kind
	}
	return result, nil
}
