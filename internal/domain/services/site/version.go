package site

import (
	"context"

	"sitecanvas/internal/domain/models/site"
)

// VersionStore owns the draft/published lifecycle of section layouts.
//
// Drafts are created on first write by cloning the published layout, so edits
// accumulate on one draft and never reach the published surface until Publish.
type VersionStore interface {
	// ResolveSection looks a section up by id or slug
	ResolveSection(ctx context.Context, ref site.Ref) (*site.Section, error)

	// GetOrCreateDraft returns the section's live draft, cloning the published
	// layout into a new draft when none exists
	GetOrCreateDraft(ctx context.Context, sectionID string) (*site.Version, error)

	// Save overwrites a version's layout. Archived versions are read-only.
	// Draft saves never fire the visibility signal.
	Save(ctx context.Context, versionID string, layout site.Layout) error

	// Publish promotes the draft, archiving the prior published version
	Publish(ctx context.Context, ref site.Ref) (*site.Version, error)

	// DiscardDraft deletes the section's live draft
	DiscardDraft(ctx context.Context, ref site.Ref) error

	// ListVersions lists a section's versions, newest first. A nil status lists all.
	ListVersions(ctx context.Context, ref site.Ref, status *site.VersionStatus) ([]site.Version, error)

	// GetLayout returns the section's live published or draft version
	GetLayout(ctx context.Context, ref site.Ref, status site.VersionStatus) (*site.Version, error)

	// DeleteVersion deletes an archived version; live versions are refused
	DeleteVersion(ctx context.Context, versionID string) error

	// RevertToVersion copies an archived layout into the section's draft
	RevertToVersion(ctx context.Context, versionID string) (*site.Version, error)
}

// Notifier receives the one-way "published output changed" signal
type Notifier interface {
	PublishedChanged(ctx context.Context, event PublishEvent)
}

// PublishEvent describes a change to a section's published output
type PublishEvent struct {
	SectionID string `json:"section_id"`
	Slug      string `json:"slug"`
	VersionID string `json:"version_id"`
	Reason    string `json:"reason"` // publish, save, or the mutation that wrote the published layout
}
