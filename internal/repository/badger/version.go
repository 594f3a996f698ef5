package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"sitecanvas/internal/domain"
	models "sitecanvas/internal/domain/models/site"
	siteRepo "sitecanvas/internal/domain/repositories/site"
)

// VersionRepository implements siteRepo.VersionRepository on BadgerDB
type VersionRepository struct {
	store *Store
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(store *Store) siteRepo.VersionRepository {
	return &VersionRepository{store: store}
}

func liveKey(sectionID string, status models.VersionStatus) string {
	return livePrefix + sectionID + "/" + string(status)
}

func sectionVersionKey(sectionID, versionID string) string {
	return sectionVersionPrefix + sectionID + "/" + versionID
}

// Create inserts a version
func (r *VersionRepository) Create(ctx context.Context, version *models.Version) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		created, err := insertVersion(txn, version)
		if err != nil {
			return err
		}
		if !created {
			return liveConflict(version.SectionID, version.Status)
		}
		return nil
	})
}

// CreateIfAbsent inserts a live version unless one with the same status exists
func (r *VersionRepository) CreateIfAbsent(ctx context.Context, version *models.Version) (bool, error) {
	if !version.Status.IsLive() {
		return false, domain.NewValidationError("only live versions are unique per section, got %q", version.Status)
	}
	var created bool
	err := r.store.update(ctx, func(txn *badger.Txn) error {
		var err error
		created, err = insertVersion(txn, version)
		return err
	})
	return created, err
}

// insertVersion writes the version and its index keys. It reports false without
// writing when the section already has a live version with the same status.
func insertVersion(txn *badger.Txn, version *models.Version) (bool, error) {
	ok, err := exists(txn, sectionPrefix+version.SectionID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, sectionNotFound(version.SectionID)
	}

	if version.Status.IsLive() {
		current, err := getString(txn, liveKey(version.SectionID, version.Status))
		if err != nil {
			return false, err
		}
		if current != "" {
			return false, nil
		}
	}

	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}
	if version.UpdatedAt.IsZero() {
		version.UpdatedAt = now
	}

	if err := putJSON(txn, versionPrefix+version.ID, version); err != nil {
		return false, err
	}
	if err := setString(txn, sectionVersionKey(version.SectionID, version.ID), ""); err != nil {
		return false, err
	}
	if version.Status.IsLive() {
		if err := setString(txn, liveKey(version.SectionID, version.Status), version.ID); err != nil {
			return false, err
		}
	}
	return true, nil
}

// GetByID retrieves a version by ID
func (r *VersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	var version models.Version
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, versionPrefix+id, &version, versionNotFound(id))
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// GetLive retrieves the section's published or draft version
func (r *VersionRepository) GetLive(ctx context.Context, sectionID string, status models.VersionStatus) (*models.Version, error) {
	var version *models.Version
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		version, err = getLive(txn, sectionID, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func getLive(txn *badger.Txn, sectionID string, status models.VersionStatus) (*models.Version, error) {
	notFound := fmt.Errorf("%s version of section %s: %w", status, sectionID, domain.ErrNotFound)
	id, err := getString(txn, liveKey(sectionID, status))
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, notFound
	}
	var version models.Version
	if err := getJSON(txn, versionPrefix+id, &version, notFound); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListBySection lists a section's versions, newest first
func (r *VersionRepository) ListBySection(ctx context.Context, sectionID string, status *models.VersionStatus) ([]models.Version, error) {
	versions := []models.Version{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		for _, id := range keysWithPrefix(txn, sectionVersionPrefix+sectionID+"/") {
			var v models.Version
			if err := getJSON(txn, versionPrefix+id, &v, versionNotFound(id)); err != nil {
				return err
			}
			if status != nil && v.Status != *status {
				continue
			}
			versions = append(versions, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(versions, func(i, j int) bool {
		if !versions[i].CreatedAt.Equal(versions[j].CreatedAt) {
			return versions[i].CreatedAt.After(versions[j].CreatedAt)
		}
		return versions[i].ID < versions[j].ID
	})
	return versions, nil
}

// ListByStatus lists versions with the given status across all sections,
// in section order
func (r *VersionRepository) ListByStatus(ctx context.Context, status models.VersionStatus) ([]models.Version, error) {
	versions := []models.Version{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		sections, err := listSections(txn)
		if err != nil {
			return err
		}
		for _, section := range sections {
			if status.IsLive() {
				v, err := getLive(txn, section.ID, status)
				if err != nil {
					if isNotFound(err) {
						continue
					}
					return err
				}
				versions = append(versions, *v)
				continue
			}
			for _, id := range keysWithPrefix(txn, sectionVersionPrefix+section.ID+"/") {
				var v models.Version
				if err := getJSON(txn, versionPrefix+id, &v, versionNotFound(id)); err != nil {
					return err
				}
				if v.Status == status {
					versions = append(versions, v)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// SaveLayout overwrites a version's layout
func (r *VersionRepository) SaveLayout(ctx context.Context, id string, layout models.Layout) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		var v models.Version
		if err := getJSON(txn, versionPrefix+id, &v, versionNotFound(id)); err != nil {
			return err
		}
		v.Layout = layout
		v.UpdatedAt = time.Now().UTC()
		return putJSON(txn, versionPrefix+id, v)
	})
}

// UpdateStatus changes a version's status, moving its live pointer
func (r *VersionRepository) UpdateStatus(ctx context.Context, id string, status models.VersionStatus) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		var v models.Version
		if err := getJSON(txn, versionPrefix+id, &v, versionNotFound(id)); err != nil {
			return err
		}
		if v.Status == status {
			return nil
		}

		if status.IsLive() {
			current, err := getString(txn, liveKey(v.SectionID, status))
			if err != nil {
				return err
			}
			if current != "" && current != id {
				return liveConflict(v.SectionID, status)
			}
			if err := setString(txn, liveKey(v.SectionID, status), id); err != nil {
				return err
			}
		}
		if err := clearLive(txn, v); err != nil {
			return err
		}

		v.Status = status
		v.UpdatedAt = time.Now().UTC()
		return putJSON(txn, versionPrefix+id, v)
	})
}

// Delete removes a version
func (r *VersionRepository) Delete(ctx context.Context, id string) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		var v models.Version
		if err := getJSON(txn, versionPrefix+id, &v, versionNotFound(id)); err != nil {
			return err
		}
		if err := clearLive(txn, v); err != nil {
			return err
		}
		if err := deleteKey(txn, sectionVersionKey(v.SectionID, id)); err != nil {
			return err
		}
		return deleteKey(txn, versionPrefix+id)
	})
}

// clearLive drops the live pointer for v's current status if it points at v
func clearLive(txn *badger.Txn, v models.Version) error {
	if !v.Status.IsLive() {
		return nil
	}
	key := liveKey(v.SectionID, v.Status)
	current, err := getString(txn, key)
	if err != nil {
		return err
	}
	if current != v.ID {
		return nil
	}
	return deleteKey(txn, key)
}

func liveConflict(sectionID string, status models.VersionStatus) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("section %s already has a %s version", sectionID, status),
		ResourceType: "version",
		ResourceID:   sectionID,
	}
}

func versionNotFound(id string) error {
	return fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
}
