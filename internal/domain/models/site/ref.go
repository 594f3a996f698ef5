package site

import (
	"fmt"
	"regexp"
	"strings"

	"sitecanvas/internal/domain"
)

// RefKind selects how a section reference is resolved
type RefKind int

const (
	RefByID RefKind = iota + 1
	RefBySlug
)

var (
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
)

// MaxSlugLength bounds slugs accepted by ParseRef
const MaxSlugLength = 64

// Ref addresses a section either by its opaque id or by its slug.
// Constructed once at the boundary so lookups never re-inspect string shape.
type Ref struct {
	kind  RefKind
	value string
}

// ByID builds an id reference
func ByID(id string) Ref { return Ref{kind: RefByID, value: id} }

// BySlug builds a slug reference
func BySlug(slug string) Ref { return Ref{kind: RefBySlug, value: slug} }

// Kind returns how the reference resolves
func (r Ref) Kind() RefKind { return r.kind }

// Value returns the raw id or slug
func (r Ref) Value() string { return r.value }

// IsZero reports whether r was never set
func (r Ref) IsZero() bool { return r.kind == 0 }

func (r Ref) String() string {
	switch r.kind {
	case RefByID:
		return "id:" + r.value
	case RefBySlug:
		return "slug:" + r.value
	}
	return "<empty ref>"
}

// ParseRef classifies raw as an id (8-4-4-4-12 hex groups) or a slug.
// Anything that is neither fails with domain.ErrMalformedReference.
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return Ref{}, fmt.Errorf("empty section reference: %w", domain.ErrMalformedReference)
	case uuidPattern.MatchString(raw):
		return ByID(strings.ToLower(raw)), nil
	case len(raw) <= MaxSlugLength && slugPattern.MatchString(raw):
		return BySlug(raw), nil
	}
	return Ref{}, fmt.Errorf("section reference %q: %w", raw, domain.ErrMalformedReference)
}

// LooksLikeID reports whether raw has the fixed opaque-id shape
func LooksLikeID(raw string) bool {
	return uuidPattern.MatchString(raw)
}

// ValidSlug reports whether s is acceptable as a section slug
func ValidSlug(s string) bool {
	return len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}
