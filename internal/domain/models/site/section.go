package site

import "time"

// Section is a named, orderable top-level slot of the page.
// It owns one published version and at most one draft version.
type Section struct {
	ID        string    `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	IsEnabled bool      `json:"is_enabled" db:"is_enabled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
