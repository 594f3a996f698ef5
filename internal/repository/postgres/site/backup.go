package site

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteRepo "sitecanvas/internal/domain/repositories/site"
	"sitecanvas/internal/repository/postgres"
)

// PostgresBackupRepository implements the BackupRepository interface
type PostgresBackupRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewBackupRepository creates a new backup repository
func NewBackupRepository(config *postgres.RepositoryConfig) siteRepo.BackupRepository {
	return &PostgresBackupRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a backup
func (r *PostgresBackupRepository) Create(ctx context.Context, backup *models.Backup) error {
	snapshot, err := json.Marshal(backup.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if backup.ID == "" {
		backup.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, backup_type, snapshot_json, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()))
		RETURNING created_at
	`, r.tables.Backups)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		backup.ID,
		backup.Name,
		backup.BackupType,
		snapshot,
		postgres.NullableTime(backup.CreatedAt),
	).Scan(&backup.CreatedAt)
	if err != nil {
		return postgres.PersistenceError("create backup", err)
	}
	return nil
}

// GetByID retrieves a backup with its snapshot
func (r *PostgresBackupRepository) GetByID(ctx context.Context, id string) (*models.Backup, error) {
	query := fmt.Sprintf(`
		SELECT id, name, backup_type, snapshot_json, created_at
		FROM %s WHERE id = $1
	`, r.tables.Backups)

	var (
		b   models.Backup
		raw []byte
	)
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.BackupType, &raw, &b.CreatedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("backup %s: %w", id, domain.ErrNotFound)
		}
		return nil, postgres.PersistenceError("get backup", err)
	}
	if err := json.Unmarshal(raw, &b.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot of backup %s: %w", id, err)
	}
	return &b, nil
}

// List retrieves backup metadata, newest first
func (r *PostgresBackupRepository) List(ctx context.Context) ([]models.Backup, error) {
	query := fmt.Sprintf(`
		SELECT id, name, backup_type, created_at
		FROM %s
		ORDER BY created_at DESC
	`, r.tables.Backups)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, postgres.PersistenceError("list backups", err)
	}
	defer rows.Close()

	backups := []models.Backup{}
	for rows.Next() {
		var b models.Backup
		if err := rows.Scan(&b.ID, &b.Name, &b.BackupType, &b.CreatedAt); err != nil {
			return nil, postgres.PersistenceError("scan backup", err)
		}
		backups = append(backups, b)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.PersistenceError("iterate backups", err)
	}
	return backups, nil
}

// Delete removes a backup
func (r *PostgresBackupRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Backups)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return postgres.PersistenceError("delete backup", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("backup %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
