// Package repository opens the configured storage driver and exposes its site repositories.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"sitecanvas/internal/config"
	"sitecanvas/internal/domain/repositories"
	siteRepo "sitecanvas/internal/domain/repositories/site"
	"sitecanvas/internal/repository/badger"
	"sitecanvas/internal/repository/postgres"
	postgresSite "sitecanvas/internal/repository/postgres/site"
)

// Repositories bundles the repositories of one storage driver
type Repositories struct {
	Sections  siteRepo.SectionRepository
	Versions  siteRepo.VersionRepository
	Backups   siteRepo.BackupRepository
	TxManager repositories.TransactionManager
	Driver    string

	closer func() error
}

// Close releases the underlying connection pool or database
func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// Options tunes Open
type Options struct {
	// Migrate applies pending migrations when the driver is postgres
	Migrate bool
}

// Open connects to the storage driver named by cfg.StorageDriver
func Open(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Repositories, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, opts, logger)
	case config.DriverBadger:
		return openBadger(badger.DefaultConfig(cfg.BadgerPath), logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// OpenInMemory opens a throwaway badger store, used by tests and local tooling
func OpenInMemory(logger *slog.Logger) (*Repositories, error) {
	return openBadger(badger.InMemoryConfig(), logger)
}

func openPostgres(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Repositories, error) {
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	tables := postgres.NewTableNames(cfg.TablePrefix)

	if opts.Migrate {
		if err := postgres.RunMigrations(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("migrations applied", "table_prefix", cfg.TablePrefix)
	}

	logger.Info("database connected",
		"driver", config.DriverPostgres,
		"max_conns", postgres.MaxConns,
		"min_conns", postgres.MinConns,
	)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	return &Repositories{
		Sections:  postgresSite.NewSectionRepository(repoConfig),
		Versions:  postgresSite.NewVersionRepository(repoConfig),
		Backups:   postgresSite.NewBackupRepository(repoConfig),
		TxManager: postgres.NewTransactionManager(pool, logger),
		Driver:    config.DriverPostgres,
		closer: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func openBadger(bcfg badger.Config, logger *slog.Logger) (*Repositories, error) {
	bcfg.Logger = logger
	db, err := badger.Open(bcfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database opened", "driver", config.DriverBadger, "path", bcfg.Path, "in_memory", bcfg.InMemory)

	store := badger.NewStore(db, logger)
	return &Repositories{
		Sections:  badger.NewSectionRepository(store),
		Versions:  badger.NewVersionRepository(store),
		Backups:   badger.NewBackupRepository(store),
		TxManager: store.TransactionManager(),
		Driver:    config.DriverBadger,
		closer:    db.Close,
	}, nil
}
