package site

import "time"

// BackupType records which layouts a backup captured
type BackupType string

const (
	BackupPublished BackupType = "published"
	BackupDraft     BackupType = "draft"
	BackupBoth      BackupType = "both"
)

// Valid reports whether t is a known backup type
func (t BackupType) Valid() bool {
	switch t {
	case BackupPublished, BackupDraft, BackupBoth:
		return true
	}
	return false
}

// BackupTypeFor derives the backup type from the requested layouts.
// Returns false when neither layout is requested.
func BackupTypeFor(includePublished, includeDraft bool) (BackupType, bool) {
	switch {
	case includePublished && includeDraft:
		return BackupBoth, true
	case includePublished:
		return BackupPublished, true
	case includeDraft:
		return BackupDraft, true
	}
	return "", false
}

// Backup is an immutable capture of some or all section layouts
type Backup struct {
	ID         string            `json:"id" db:"id"`
	Name       string            `json:"name" db:"name"`
	BackupType BackupType        `json:"backup_type" db:"backup_type"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	Snapshot   []SectionSnapshot `json:"snapshot_json,omitempty" db:"snapshot_json"`
}

// SectionSnapshot is one section captured by a backup: its identifying metadata
// plus whichever layouts were requested
type SectionSnapshot struct {
	ID        string  `json:"id,omitempty"`
	Slug      string  `json:"slug"`
	SortOrder int     `json:"sort_order"`
	IsEnabled bool    `json:"is_enabled"`
	Published *Layout `json:"published,omitempty"`
	Draft     *Layout `json:"draft,omitempty"`
}

// RestoreLayout picks the layout a restore materializes as the section draft:
// the captured draft when present, otherwise the captured published layout.
func (s SectionSnapshot) RestoreLayout() (Layout, bool) {
	if s.Draft != nil {
		return *s.Draft, true
	}
	if s.Published != nil {
		return *s.Published, true
	}
	return Layout{}, false
}

// Captures reports whether the snapshot holds the layouts a backup of type t requires
func (s SectionSnapshot) Captures(t BackupType) bool {
	switch t {
	case BackupPublished:
		return s.Published != nil
	case BackupDraft:
		return s.Draft != nil
	case BackupBoth:
		return s.Published != nil || s.Draft != nil
	}
	return false
}
