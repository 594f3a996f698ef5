// Package blocks holds the closed set of block kinds the canvas understands.
package blocks

import (
	"embed"
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"

	"sitecanvas/internal/domain"
	"sitecanvas/internal/domain/models/site"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry resolves block kinds by type tag. It is read-only after construction.
type Registry struct {
	kinds []Kind
	index map[string]int
}

// NewRegistry loads the embedded kinds file
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/kinds.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read kinds.yaml: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from a kinds document
func Parse(data []byte) (*Registry, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kinds: %w", err)
	}
	if len(c.Kinds) == 0 {
		return nil, fmt.Errorf("kinds file defines no kinds")
	}

	r := &Registry{
		kinds: c.Kinds,
		index: make(map[string]int, len(c.Kinds)),
	}
	for i, k := range c.Kinds {
		if k.DisplayName == "" {
			return nil, fmt.Errorf("kind %q: display_name is required", k.ID)
		}
		r.index[k.ID] = i
	}
	return r, nil
}

// Get returns the kind for a type tag
func (r *Registry) Get(typ string) (Kind, error) {
	i, ok := r.index[typ]
	if !ok {
		return Kind{}, domain.NewValidationError("unknown block type %q", typ)
	}
	return r.kinds[i], nil
}

// AcceptsChildren reports whether blocks of type typ nest children in content.
// Unknown types never accept children.
func (r *Registry) AcceptsChildren(typ string) bool {
	k, err := r.Get(typ)
	return err == nil && k.AcceptsChildren
}

// WithDefaults fills settings a block leaves unset from its kind's defaults,
// through the whole subtree. Explicit settings win.
func (r *Registry) WithDefaults(b site.Block) site.Block {
	if k, err := r.Get(b.Type); err == nil && len(k.DefaultSettings) > 0 {
		settings := make(map[string]any, len(k.DefaultSettings)+len(b.Settings))
		maps.Copy(settings, k.DefaultSettings)
		maps.Copy(settings, b.Settings)
		b.Settings = settings
	}
	if len(b.Slots) > 0 {
		slots := make(map[site.SlotKind][]site.Block, len(b.Slots))
		for slot, children := range b.Slots {
			filled := make([]site.Block, len(children))
			for i, child := range children {
				filled[i] = r.WithDefaults(child)
			}
			slots[slot] = filled
		}
		b.Slots = slots
	}
	return b
}

// List returns all kinds in file order
func (r *Registry) List() []Kind {
	out := make([]Kind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// CheckTree verifies every block in the subtree has a known type and that
// children only sit in slots their parent's kind offers
func (r *Registry) CheckTree(b site.Block) error {
	kind, err := r.Get(b.Type)
	if err != nil {
		return fmt.Errorf("block %s: %w", b.ID, err)
	}
	for _, slot := range site.SlotOrder {
		children, ok := b.Slots[slot]
		if !ok {
			continue
		}
		if len(children) > 0 && !kind.AcceptsSlot(slot) {
			return domain.NewValidationError("block %s of type %s has no %s slot", b.ID, b.Type, slot)
		}
		for _, child := range children {
			if err := r.CheckTree(child); err != nil {
				return err
			}
		}
	}
	return nil
}
