package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"sitecanvas/internal/repository/postgres/migrations"
)

// gooseUp is a seam for testing goose.UpContext
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

var gooseReset = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.ResetContext(ctx, db, dir)
}

// RunMigrations applies the embedded schema migrations for the given table prefix.
// The prefix reaches the SQL through goose ENVSUB as ${TABLE_PREFIX}, and each prefix
// keeps its own goose version table.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return migrate(ctx, db, tables, gooseUp)
}

// ResetMigrations rolls every migration back, dropping the prefix's tables.
func ResetMigrations(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return migrate(ctx, db, tables, gooseReset)
}

func migrate(ctx context.Context, db *sql.DB, tables *TableNames, run func(context.Context, *sql.DB, string) error) error {
	if err := os.Setenv("TABLE_PREFIX", tables.Prefix); err != nil {
		return fmt.Errorf("export table prefix: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	goose.SetTableName(tables.Prefix + "goose_db_version")
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := run(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
