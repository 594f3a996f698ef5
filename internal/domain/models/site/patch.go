package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"sitecanvas/internal/domain"
)

// Patch is a JSON-shaped partial block or layout, keyed by top-level field
type Patch map[string]json.RawMessage

var blockPatchKeys = []string{"id", "type", "content", "settings"}

// Keys returns the patch keys in sorted order
func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyPatch returns {...b, ...patch, id: b.ID}.
//
// Top-level fields are replaced wholesale. When the patch replaces settings without
// naming backContent, the existing back face is kept. The id is always re-pinned.
func (b Block) ApplyPatch(p Patch) (Block, error) {
	for _, key := range p.Keys() {
		if !slices.Contains(blockPatchKeys, key) {
			return Block{}, domain.NewValidationError("unknown block field %q", key)
		}
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return Block{}, fmt.Errorf("encode block %s: %w", b.ID, err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Block{}, fmt.Errorf("decode block %s: %w", b.ID, err)
	}
	for key, value := range p {
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return Block{}, domain.NewValidationError("block %s patch: %v", b.ID, err)
	}
	var out Block
	if err := json.Unmarshal(merged, &out); err != nil {
		return Block{}, domain.NewValidationError("block %s patch: %v", b.ID, err)
	}
	out.ID = b.ID

	if rawSettings, ok := p["settings"]; ok && b.HasSlot(SlotBackContent) && !namesBackContent(rawSettings) {
		out = out.WithSlot(SlotBackContent, CloneBlocks(b.Children(SlotBackContent)))
	}
	return out, nil
}

func namesBackContent(rawSettings json.RawMessage) bool {
	trimmed := bytes.TrimSpace(rawSettings)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return false
	}
	_, ok := fields[string(SlotBackContent)]
	return ok
}

// ApplyPatch merges p into the layout root. "content" replaces the root list;
// every other key is a root setting, and null removes it.
func (l Layout) ApplyPatch(p Patch) (Layout, error) {
	out := l.Clone()
	settings := make(map[string]any, len(p))
	for _, key := range p.Keys() {
		raw := p[key]
		if key == "content" {
			var content []Block
			if err := json.Unmarshal(raw, &content); err != nil {
				return Layout{}, domain.NewValidationError("layout content must be a list of blocks: %v", err)
			}
			out = out.WithContent(content)
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Layout{}, domain.NewValidationError("layout setting %q: %v", key, err)
		}
		settings[key] = v
	}
	if len(settings) > 0 {
		out.Settings = mergeMap(out.Settings, settings)
	}
	return out, nil
}
