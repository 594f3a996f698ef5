package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"sitecanvas/internal/domain"
)

// SlotKind names one of the child-bearing slots of a block.
type SlotKind string

const (
	// SlotContent is the primary nesting slot (block.content).
	SlotContent SlotKind = "content"
	// SlotBackContent is the alternate face slot (block.settings.backContent).
	SlotBackContent SlotKind = "backContent"
)

// SlotOrder is the order in which traversal descends into child slots.
var SlotOrder = [...]SlotKind{SlotContent, SlotBackContent}

// Valid reports whether k is a known slot.
func (k SlotKind) Valid() bool {
	return k == SlotContent || k == SlotBackContent
}

// Block is one placed element of a layout tree.
//
// On the wire a block is {id, type, content, settings}. Content is either a scalar
// (rich text, a number, an object) or a list of child blocks; settings.backContent,
// when present, is a second list of child blocks. Both lists are held in Slots so
// traversal never has to inspect JSON shapes.
type Block struct {
	ID   string
	Type string

	// Text holds scalar content verbatim. Nil when content is a child list or absent.
	Text json.RawMessage

	// Slots holds the child lists. A missing key means the slot is absent;
	// an empty (non-nil) slice means the slot is present but empty.
	Slots map[SlotKind][]Block

	// Settings holds presentation attributes. It never contains backContent.
	Settings map[string]any
}

// Children returns the child list of the given slot (nil when absent).
func (b Block) Children(kind SlotKind) []Block {
	return b.Slots[kind]
}

// HasSlot reports whether the slot is present on the block.
func (b Block) HasSlot(kind SlotKind) bool {
	_, ok := b.Slots[kind]
	return ok
}

// WithSlot returns a shallow copy of b whose slot holds children.
// Setting SlotContent clears scalar text. The receiver is not modified.
func (b Block) WithSlot(kind SlotKind, children []Block) Block {
	slots := make(map[SlotKind][]Block, len(b.Slots)+1)
	maps.Copy(slots, b.Slots)
	if children == nil {
		children = []Block{}
	}
	slots[kind] = children
	b.Slots = slots
	if kind == SlotContent {
		b.Text = nil
	}
	return b
}

// MergeSettings returns a copy of b with patch merged into its settings.
// A nil value removes the key. Slot names are reserved and rejected.
func (b Block) MergeSettings(patch map[string]any) (Block, error) {
	for _, kind := range SlotOrder {
		if _, ok := patch[string(kind)]; ok {
			return Block{}, domain.NewValidationError("settings.%s of block %s cannot be merged; edit the slot instead", kind, b.ID)
		}
	}
	b.Settings = mergeMap(b.Settings, patch)
	return b, nil
}

// Clone returns a deep copy of b.
func (b Block) Clone() Block {
	out := Block{
		ID:       b.ID,
		Type:     b.Type,
		Settings: cloneMap(b.Settings),
	}
	if b.Text != nil {
		out.Text = bytes.Clone(b.Text)
	}
	if b.Slots != nil {
		out.Slots = make(map[SlotKind][]Block, len(b.Slots))
		for kind, children := range b.Slots {
			out.Slots[kind] = CloneBlocks(children)
		}
	}
	return out
}

// CloneBlocks deep-copies a block list, preserving nil versus empty.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

type blockJSON struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (b Block) MarshalJSON() ([]byte, error) {
	out := blockJSON{ID: b.ID, Type: b.Type}

	if children, ok := b.Slots[SlotContent]; ok {
		raw, err := marshalBlocks(children)
		if err != nil {
			return nil, err
		}
		out.Content = raw
	} else if len(b.Text) > 0 {
		out.Content = b.Text
	}

	settings := b.Settings
	if back, ok := b.Slots[SlotBackContent]; ok {
		settings = make(map[string]any, len(b.Settings)+1)
		maps.Copy(settings, b.Settings)
		if back == nil {
			back = []Block{}
		}
		settings[string(SlotBackContent)] = back
	}
	if len(settings) > 0 {
		raw, err := json.Marshal(settings)
		if err != nil {
			return nil, fmt.Errorf("marshal settings of block %s: %w", b.ID, err)
		}
		out.Settings = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Block) UnmarshalJSON(data []byte) error {
	var in blockJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*b = Block{ID: in.ID, Type: in.Type}

	content := bytes.TrimSpace(in.Content)
	switch {
	case len(content) == 0 || bytes.Equal(content, []byte("null")):
	case content[0] == '[':
		children := []Block{}
		if err := json.Unmarshal(content, &children); err != nil {
			return fmt.Errorf("block %s content: %w", in.ID, err)
		}
		b.Slots = map[SlotKind][]Block{SlotContent: children}
	default:
		b.Text = bytes.Clone(content)
	}

	settings := bytes.TrimSpace(in.Settings)
	if len(settings) == 0 || bytes.Equal(settings, []byte("null")) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(settings, &fields); err != nil {
		return fmt.Errorf("block %s settings: %w", in.ID, err)
	}

	if raw, ok := fields[string(SlotBackContent)]; ok {
		delete(fields, string(SlotBackContent))
		back := []Block{}
		if err := json.Unmarshal(raw, &back); err != nil {
			return fmt.Errorf("block %s settings.backContent must be a list of blocks: %w", in.ID, err)
		}
		if b.Slots == nil {
			b.Slots = make(map[SlotKind][]Block, 1)
		}
		b.Slots[SlotBackContent] = back
	}

	if len(fields) == 0 {
		return nil
	}
	b.Settings = make(map[string]any, len(fields))
	for key, raw := range fields {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("block %s settings.%s: %w", in.ID, key, err)
		}
		b.Settings[key] = v
	}
	return nil
}

func marshalBlocks(blocks []Block) (json.RawMessage, error) {
	if blocks == nil {
		blocks = []Block{}
	}
	return json.Marshal(blocks)
}
