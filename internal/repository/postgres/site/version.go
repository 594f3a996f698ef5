package site

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteRepo "sitecanvas/internal/domain/repositories/site"
	"sitecanvas/internal/repository/postgres"
)

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) siteRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const versionColumns = `id, section_id, status, layout_json, created_at, updated_at`

// Create inserts a version
func (r *PostgresVersionRepository) Create(ctx context.Context, version *models.Version) error {
	layout, err := json.Marshal(version.Layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, section_id, status, layout_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()), COALESCE($6::timestamptz, NOW()))
		RETURNING created_at, updated_at
	`, r.tables.SectionVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		version.ID,
		version.SectionID,
		version.Status,
		layout,
		postgres.NullableTime(version.CreatedAt),
		postgres.NullableTime(version.UpdatedAt),
	).Scan(&version.CreatedAt, &version.UpdatedAt)
	if err != nil {
		switch {
		case postgres.IsPgDuplicateError(err):
			return &domain.ConflictError{
				Message:      fmt.Sprintf("section %s already has a %s version", version.SectionID, version.Status),
				ResourceType: "version",
				ResourceID:   version.SectionID,
			}
		case postgres.IsPgForeignKeyError(err):
			return fmt.Errorf("section %s: %w", version.SectionID, domain.ErrNotFound)
		}
		return postgres.PersistenceError("create version", err)
	}
	return nil
}

// CreateIfAbsent inserts a live version unless one with the same status exists
func (r *PostgresVersionRepository) CreateIfAbsent(ctx context.Context, version *models.Version) (bool, error) {
	if !version.Status.IsLive() {
		return false, domain.NewValidationError("only live versions are unique per section, got %q", version.Status)
	}
	layout, err := json.Marshal(version.Layout)
	if err != nil {
		return false, fmt.Errorf("encode layout: %w", err)
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}

	// The conflict target must name the partial index predicate for the status
	query := fmt.Sprintf(`
		INSERT INTO %s (id, section_id, status, layout_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()), COALESCE($6::timestamptz, NOW()))
		ON CONFLICT (section_id) WHERE status = '%s' DO NOTHING
		RETURNING created_at, updated_at
	`, r.tables.SectionVersions, version.Status)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		version.ID,
		version.SectionID,
		version.Status,
		layout,
		postgres.NullableTime(version.CreatedAt),
		postgres.NullableTime(version.UpdatedAt),
	).Scan(&version.CreatedAt, &version.UpdatedAt)
	switch {
	case err == nil:
		return true, nil
	case postgres.IsPgNoRowsError(err):
		return false, nil
	case postgres.IsPgForeignKeyError(err):
		return false, fmt.Errorf("section %s: %w", version.SectionID, domain.ErrNotFound)
	}
	return false, postgres.PersistenceError("create version", err)
}

// GetByID retrieves a version by ID
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, versionColumns, r.tables.SectionVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	version, err := scanVersion(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.PersistenceError("get version", err)
	}
	return version, nil
}

// GetLive retrieves the section's published or draft version
func (r *PostgresVersionRepository) GetLive(ctx context.Context, sectionID string, status models.VersionStatus) (*models.Version, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE section_id = $1 AND status = $2`, versionColumns, r.tables.SectionVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	version, err := scanVersion(executor.QueryRow(ctx, query, sectionID, status))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s version of section %s: %w", status, sectionID, domain.ErrNotFound)
		}
		return nil, postgres.PersistenceError("get live version", err)
	}
	return version, nil
}

// ListBySection lists a section's versions, newest first
func (r *PostgresVersionRepository) ListBySection(ctx context.Context, sectionID string, status *models.VersionStatus) ([]models.Version, error) {
	args := []any{sectionID}
	filter := ""
	if status != nil {
		filter = " AND status = $2"
		args = append(args, *status)
	}
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE section_id = $1%s
		ORDER BY created_at DESC, id
	`, versionColumns, r.tables.SectionVersions, filter)

	return r.list(ctx, query, args...)
}

// ListByStatus lists versions with the given status across all sections
func (r *PostgresVersionRepository) ListByStatus(ctx context.Context, status models.VersionStatus) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT v.id, v.section_id, v.status, v.layout_json, v.created_at, v.updated_at
		FROM %s v
		JOIN %s s ON s.id = v.section_id
		WHERE v.status = $1
		ORDER BY s.sort_order, s.slug
	`, r.tables.SectionVersions, r.tables.Sections)

	return r.list(ctx, query, status)
}

func (r *PostgresVersionRepository) list(ctx context.Context, query string, args ...any) ([]models.Version, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.PersistenceError("list versions", err)
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, postgres.PersistenceError("scan version", err)
		}
		versions = append(versions, *version)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.PersistenceError("iterate versions", err)
	}
	return versions, nil
}

// SaveLayout overwrites a version's layout
func (r *PostgresVersionRepository) SaveLayout(ctx context.Context, id string, layout models.Layout) error {
	raw, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET layout_json = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.SectionVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, raw, id)
	if err != nil {
		return postgres.PersistenceError("save layout", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateStatus changes a version's status
func (r *PostgresVersionRepository) UpdateStatus(ctx context.Context, id string, status models.VersionStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.SectionVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, id)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("section already has a %s version", status),
				ResourceType: "version",
				ResourceID:   id,
			}
		}
		return postgres.PersistenceError("update version status", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a version
func (r *PostgresVersionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.SectionVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return postgres.PersistenceError("delete version", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanVersion(row pgx.Row) (*models.Version, error) {
	var (
		v   models.Version
		raw []byte
	)
	if err := row.Scan(&v.ID, &v.SectionID, &v.Status, &raw, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &v.Layout); err != nil {
		return nil, fmt.Errorf("decode layout of version %s: %w", v.ID, err)
	}
	return &v, nil
}
