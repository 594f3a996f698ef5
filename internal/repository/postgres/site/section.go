package site

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteRepo "sitecanvas/internal/domain/repositories/site"
	"sitecanvas/internal/repository/postgres"
)

// PostgresSectionRepository implements the SectionRepository interface
type PostgresSectionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(config *postgres.RepositoryConfig) siteRepo.SectionRepository {
	return &PostgresSectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const sectionColumns = `id, slug, sort_order, is_enabled, created_at, updated_at`

// Create inserts a new section
func (r *PostgresSectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, slug, sort_order, is_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()), COALESCE($6::timestamptz, NOW()))
		RETURNING created_at, updated_at
	`, r.tables.Sections)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		section.ID,
		section.Slug,
		section.SortOrder,
		section.IsEnabled,
		postgres.NullableTime(section.CreatedAt),
		postgres.NullableTime(section.UpdatedAt),
	).Scan(&section.CreatedAt, &section.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existing, getErr := r.GetBySlug(ctx, section.Slug)
			if getErr != nil {
				return fmt.Errorf("section '%s' already exists: %w", section.Slug, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("section '%s' already exists", section.Slug),
				ResourceType: "section",
				ResourceID:   existing.ID,
			}
		}
		return postgres.PersistenceError("create section", err)
	}

	return nil
}

// GetByID retrieves a section by ID
func (r *PostgresSectionRepository) GetByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, sectionColumns, r.tables.Sections)
	return r.getOne(ctx, query, id)
}

// GetBySlug retrieves a section by slug
func (r *PostgresSectionRepository) GetBySlug(ctx context.Context, slug string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE slug = $1`, sectionColumns, r.tables.Sections)
	return r.getOne(ctx, query, slug)
}

func (r *PostgresSectionRepository) getOne(ctx context.Context, query, key string) (*models.Section, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	section, err := scanSection(executor.QueryRow(ctx, query, key))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("section %s: %w", key, domain.ErrNotFound)
		}
		return nil, postgres.PersistenceError("get section", err)
	}
	return section, nil
}

// List retrieves all sections ordered by sort_order
func (r *PostgresSectionRepository) List(ctx context.Context) ([]models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY sort_order, slug`, sectionColumns, r.tables.Sections)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, postgres.PersistenceError("list sections", err)
	}
	defer rows.Close()

	sections := []models.Section{}
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, postgres.PersistenceError("scan section", err)
		}
		sections = append(sections, *section)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.PersistenceError("iterate sections", err)
	}

	return sections, nil
}

// Update writes sort_order, is_enabled and updated_at
func (r *PostgresSectionRepository) Update(ctx context.Context, section *models.Section) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET sort_order = $1, is_enabled = $2, updated_at = COALESCE($3::timestamptz, NOW())
		WHERE id = $4
	`, r.tables.Sections)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		section.SortOrder,
		section.IsEnabled,
		postgres.NullableTime(section.UpdatedAt),
		section.ID,
	)
	if err != nil {
		return postgres.PersistenceError("update section", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", section.ID, domain.ErrNotFound)
	}
	return nil
}

func scanSection(row pgx.Row) (*models.Section, error) {
	var s models.Section
	if err := row.Scan(&s.ID, &s.Slug, &s.SortOrder, &s.IsEnabled, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
