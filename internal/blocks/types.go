package blocks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"sitecanvas/internal/domain/models/site"
)

// Category groups kinds in the editor palette
type Category string

const (
	CategoryLayout     Category = "layout"
	CategoryContent    Category = "content"
	CategoryMedia      Category = "media"
	CategoryDecoration Category = "decoration"
)

// Kind describes one block type
type Kind struct {
	// Kind identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName string   `yaml:"display_name" json:"display_name"`
	Category    Category `yaml:"category" json:"category"`

	// AcceptsChildren means the kind nests blocks in its content slot
	AcceptsChildren bool `yaml:"accepts_children" json:"accepts_children"`
	// HasBackFace means the kind renders settings.backContent as an alternate face
	HasBackFace bool `yaml:"has_back_face" json:"has_back_face"`

	DefaultSettings map[string]any `yaml:"default_settings" json:"default_settings,omitempty"`
}

// AcceptsSlot reports whether children may be placed in the given slot
func (k Kind) AcceptsSlot(slot site.SlotKind) bool {
	switch slot {
	case site.SlotContent:
		return k.AcceptsChildren
	case site.SlotBackContent:
		return k.HasBackFace
	}
	return false
}

// catalog is the decoded kinds file
type catalog struct {
	Version int    `yaml:"version"`
	Kinds   []Kind `yaml:"-"`
}

// UnmarshalYAML preserves the kind order of the file
func (c *catalog) UnmarshalYAML(node *yaml.Node) error {
	type kindsOnly struct {
		Version int             `yaml:"version"`
		Kinds   map[string]Kind `yaml:"kinds"`
	}
	var m kindsOnly
	if err := node.Decode(&m); err != nil {
		return err
	}
	c.Version = m.Version

	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "kinds" {
			continue
		}
		kindsNode := node.Content[i+1]
		for j := 0; j < len(kindsNode.Content); j += 2 {
			id := kindsNode.Content[j].Value
			kind, ok := m.Kinds[id]
			if !ok {
				return fmt.Errorf("kind %q: missing definition", id)
			}
			kind.ID = id
			c.Kinds = append(c.Kinds, kind)
		}
		break
	}
	return nil
}
