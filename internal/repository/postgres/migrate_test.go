package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecanvas/internal/repository/postgres/migrations"
)

func TestMigrateExportsPrefix(t *testing.T) {
	var gotDir string
	run := func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	t.Setenv("TABLE_PREFIX", "")

	require.NoError(t, migrate(context.Background(), nil, NewTableNames("test_"), run))
	assert.Equal(t, ".", gotDir)
	assert.Equal(t, "test_", os.Getenv("TABLE_PREFIX"))
}

func TestMigratePropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	t.Setenv("TABLE_PREFIX", "")

	for name, run := range map[string]func(context.Context, *sql.DB, string) error{
		"up":    func(context.Context, *sql.DB, string) error { return boom },
		"reset": func(context.Context, *sql.DB, string) error { return boom },
	} {
		t.Run(name, func(t *testing.T) {
			err := migrate(context.Background(), nil, NewTableNames("dev_"), run)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestMigrationsHaveDownSteps(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)

	for _, name := range files {
		raw, err := fs.ReadFile(migrations.Migrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "+goose Down", "%s cannot be reset", name)
	}
}

func TestMigrationsUsePrefixedTables(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		raw, err := fs.ReadFile(migrations.Migrations, name)
		require.NoError(t, err)
		sql := string(raw)
		assert.Contains(t, sql, "+goose ENVSUB ON", name)
		for _, line := range strings.Split(sql, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "CREATE TABLE") {
				assert.Contains(t, line, "${TABLE_PREFIX}", "%s: %s", name, line)
			}
		}
	}
}

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("prod_")
	assert.Equal(t, "prod_sections", tables.Sections)
	assert.Equal(t, "prod_section_versions", tables.SectionVersions)
	assert.Equal(t, "prod_backups", tables.Backups)
}
