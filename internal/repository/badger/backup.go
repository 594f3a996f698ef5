package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteRepo "sitecanvas/internal/domain/repositories/site"
)

// BackupRepository implements siteRepo.BackupRepository on BadgerDB
type BackupRepository struct {
	store *Store
}

// NewBackupRepository creates a new backup repository
func NewBackupRepository(store *Store) siteRepo.BackupRepository {
	return &BackupRepository{store: store}
}

// Create inserts a backup
func (r *BackupRepository) Create(ctx context.Context, backup *models.Backup) error {
	if backup.ID == "" {
		backup.ID = uuid.NewString()
	}
	if backup.CreatedAt.IsZero() {
		backup.CreatedAt = time.Now().UTC()
	}
	return r.store.update(ctx, func(txn *badger.Txn) error {
		return putJSON(txn, backupPrefix+backup.ID, backup)
	})
}

// GetByID retrieves a backup with its snapshot
func (r *BackupRepository) GetByID(ctx context.Context, id string) (*models.Backup, error) {
	var backup models.Backup
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, backupPrefix+id, &backup, backupNotFound(id))
	})
	if err != nil {
		return nil, err
	}
	return &backup, nil
}

// List retrieves backup metadata, newest first
func (r *BackupRepository) List(ctx context.Context) ([]models.Backup, error) {
	backups := []models.Backup{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		for _, id := range keysWithPrefix(txn, backupPrefix) {
			var b models.Backup
			if err := getJSON(txn, backupPrefix+id, &b, backupNotFound(id)); err != nil {
				return err
			}
			b.Snapshot = nil
			backups = append(backups, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Delete removes a backup
func (r *BackupRepository) Delete(ctx context.Context, id string) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		ok, err := exists(txn, backupPrefix+id)
		if err != nil {
			return err
		}
		if !ok {
			return backupNotFound(id)
		}
		return deleteKey(txn, backupPrefix+id)
	})
}

func backupNotFound(id string) error {
	return fmt.Errorf("backup %s: %w", id, domain.ErrNotFound)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
