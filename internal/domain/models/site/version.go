package site

import "time"

// VersionStatus is the lifecycle state of a version
type VersionStatus string

const (
	VersionPublished VersionStatus = "published"
	VersionDraft     VersionStatus = "draft"
	VersionArchived  VersionStatus = "archived"
)

// Valid reports whether s is a known status
func (s VersionStatus) Valid() bool {
	switch s {
	case VersionPublished, VersionDraft, VersionArchived:
		return true
	}
	return false
}

// IsLive reports whether a section can hold at most one version with this status
func (s VersionStatus) IsLive() bool {
	return s == VersionPublished || s == VersionDraft
}

// Version is a persisted, status-tagged snapshot of a section layout
type Version struct {
	ID        string        `json:"id" db:"id"`
	SectionID string        `json:"section_id" db:"section_id"`
	Status    VersionStatus `json:"status" db:"status"`
	Layout    Layout        `json:"layout_json" db:"layout_json"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}
