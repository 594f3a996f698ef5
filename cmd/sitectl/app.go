package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"sitecanvas/internal/archive"
	"sitecanvas/internal/blocks"
	"sitecanvas/internal/config"
	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/repository"
	serviceSite "sitecanvas/internal/service/site"
)

// app holds what a command needs; built once per invocation
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	repos    *repository.Repositories
	services *serviceSite.Services
	closeLog func() error
}

// newArchiver is a seam for tests
var newArchiver = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (siteSvc.Archiver, error) {
	return archive.NewS3Archiver(ctx, archive.OptionsFromConfig(cfg), logger)
}

func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, error) {
	out, closeLog, err := config.LogWriter(cfg, "sitectl")
	if err != nil {
		return nil, err
	}
	if cfg.LogDir == "" {
		// keep stdout clean for command output
		out = stderr
	}
	a := &app{cfg: cfg, logger: config.NewLogger(cfg, out), closeLog: closeLog}

	a.repos, err = repository.Open(ctx, cfg, repository.Options{Migrate: true}, a.logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	kinds, err := blocks.NewRegistry()
	if err != nil {
		a.Close()
		return nil, err
	}

	var archiver siteSvc.Archiver
	if cfg.ArchiveEnabled() {
		if archiver, err = newArchiver(ctx, cfg, a.logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.services, err = serviceSite.SetupServices(a.repos, kinds, nil, archiver, cfg, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			a.logger.Warn("close storage", "error", err)
		}
	}
	_ = a.closeLog()
}
