package site

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Layout is the value attached to one version: the root child list plus root settings.
// On the wire it is a single object {content: [...], ...settings}.
type Layout struct {
	Content  []Block
	Settings map[string]any
}

// EmptyLayout returns a layout with an empty root list.
func EmptyLayout() Layout {
	return Layout{Content: []Block{}}
}

// Clone returns a deep copy of l.
func (l Layout) Clone() Layout {
	content := CloneBlocks(l.Content)
	if content == nil {
		content = []Block{}
	}
	return Layout{
		Content:  content,
		Settings: cloneMap(l.Settings),
	}
}

// WithContent returns a copy of l with a new root list.
func (l Layout) WithContent(content []Block) Layout {
	if content == nil {
		content = []Block{}
	}
	l.Content = content
	return l
}

// MarshalJSON implements json.Marshaler.
func (l Layout) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Settings)+1)
	for k, v := range l.Settings {
		out[k] = v
	}
	content := l.Content
	if content == nil {
		content = []Block{}
	}
	out["content"] = content
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("layout must be an object: %w", err)
	}

	*l = Layout{Content: []Block{}}

	if raw, ok := fields["content"]; ok {
		delete(fields, "content")
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &l.Content); err != nil {
				return fmt.Errorf("layout content must be a list of blocks: %w", err)
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	l.Settings = make(map[string]any, len(fields))
	for key, raw := range fields {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("layout settings.%s: %w", key, err)
		}
		l.Settings[key] = v
	}
	return nil
}
