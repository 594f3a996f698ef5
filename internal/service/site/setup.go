package site

import (
	"fmt"
	"log/slog"

	"sitecanvas/internal/config"
	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/repository"
)

// Services holds all site services
type Services struct {
	Versions  siteSvc.VersionStore
	Sections  siteSvc.SectionService
	Mutations siteSvc.MutationService
	Backups   siteSvc.BackupService
}

// SetupServices initializes all site services with proper dependency injection.
// notifier and archiver may be nil.
func SetupServices(
	repos *repository.Repositories,
	kinds KindChecker,
	notifier siteSvc.Notifier,
	archiver siteSvc.Archiver,
	cfg *config.Config,
	logger *slog.Logger,
) (*Services, error) {
	versions := NewVersionStore(repos.Sections, repos.Versions, repos.TxManager, notifier, logger)

	sections, err := NewSectionService(versions, repos.Sections, repos.Versions, repos.TxManager, kinds, logger)
	if err != nil {
		return nil, err
	}

	moveTarget := models.VersionStatus(cfg.MoveTarget)
	mutations, err := NewMutationService(versions, repos.Versions, repos.TxManager, kinds, moveTarget, logger)
	if err != nil {
		return nil, fmt.Errorf("mutation service: %w", err)
	}

	backups, err := NewBackupService(versions, repos.Sections, repos.Versions, repos.Backups, repos.TxManager, archiver, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("site services initialized", "driver", repos.Driver, "move_target", moveTarget, "archive", archiver != nil)
	return &Services{
		Versions:  versions,
		Sections:  sections,
		Mutations: mutations,
		Backups:   backups,
	}, nil
}
