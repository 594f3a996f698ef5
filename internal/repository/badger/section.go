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

// SectionRepository implements siteRepo.SectionRepository on BadgerDB
type SectionRepository struct {
	store *Store
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(store *Store) siteRepo.SectionRepository {
	return &SectionRepository{store: store}
}

// Create inserts a new section
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	if section.UpdatedAt.IsZero() {
		section.UpdatedAt = now
	}

	return r.store.update(ctx, func(txn *badger.Txn) error {
		existingID, err := getString(txn, sectionSlugPrefix+section.Slug)
		if err != nil {
			return err
		}
		if existingID != "" {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("section '%s' already exists", section.Slug),
				ResourceType: "section",
				ResourceID:   existingID,
			}
		}
		if err := putJSON(txn, sectionPrefix+section.ID, section); err != nil {
			return err
		}
		return setString(txn, sectionSlugPrefix+section.Slug, section.ID)
	})
}

// GetByID retrieves a section by ID
func (r *SectionRepository) GetByID(ctx context.Context, id string) (*models.Section, error) {
	var section models.Section
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, sectionPrefix+id, &section, sectionNotFound(id))
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// GetBySlug retrieves a section by slug
func (r *SectionRepository) GetBySlug(ctx context.Context, slug string) (*models.Section, error) {
	var section models.Section
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		id, err := getString(txn, sectionSlugPrefix+slug)
		if err != nil {
			return err
		}
		if id == "" {
			return sectionNotFound(slug)
		}
		return getJSON(txn, sectionPrefix+id, &section, sectionNotFound(slug))
	})
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// List retrieves all sections ordered by sort_order, then slug
func (r *SectionRepository) List(ctx context.Context) ([]models.Section, error) {
	sections := []models.Section{}
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		sections, err = listSections(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func listSections(txn *badger.Txn) ([]models.Section, error) {
	ids := keysWithPrefix(txn, sectionPrefix)
	sections := make([]models.Section, 0, len(ids))
	for _, id := range ids {
		var s models.Section
		if err := getJSON(txn, sectionPrefix+id, &s, sectionNotFound(id)); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].SortOrder != sections[j].SortOrder {
			return sections[i].SortOrder < sections[j].SortOrder
		}
		return sections[i].Slug < sections[j].Slug
	})
	return sections, nil
}

// Update writes sort_order, is_enabled and updated_at
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		var stored models.Section
		if err := getJSON(txn, sectionPrefix+section.ID, &stored, sectionNotFound(section.ID)); err != nil {
			return err
		}
		stored.SortOrder = section.SortOrder
		stored.IsEnabled = section.IsEnabled
		stored.UpdatedAt = section.UpdatedAt
		return putJSON(txn, sectionPrefix+stored.ID, stored)
	})
}

func sectionNotFound(key string) error {
	return fmt.Errorf("section %s: %w", key, domain.ErrNotFound)
}
