package site

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sitecanvas/internal/blocktree"
	models "sitecanvas/internal/domain/models/site"
)

// ExportFormat names a backup export rendering
type ExportFormat string

const (
	ExportJSON    ExportFormat = "json"
	ExportSummary ExportFormat = "summary"
)

// ExportDocument is the portable form of a backup. Its snapshot_json field is
// accepted as-is by ImportBackup.
type ExportDocument struct {
	Format     string                   `json:"format"`
	Name       string                   `json:"name"`
	BackupType models.BackupType        `json:"backup_type"`
	CreatedAt  time.Time                `json:"created_at"`
	Snapshot   []models.SectionSnapshot `json:"snapshot_json"`
}

const exportFormatTag = "sitecanvas-backup/v1"

// RenderExport renders b in the requested format
func RenderExport(b *models.Backup, format ExportFormat) ([]byte, string, error) {
	switch format {
	case "", ExportJSON:
		data, err := MarshalExport(b)
		return data, "application/json", err
	case ExportSummary:
		return []byte(Summarize(b)), "text/plain; charset=utf-8", nil
	}
	return nil, "", fmt.Errorf("unknown export format %q", format)
}

// MarshalExport renders b as an indented portable JSON document
func MarshalExport(b *models.Backup) ([]byte, error) {
	doc := ExportDocument{
		Format:     exportFormatTag,
		Name:       b.Name,
		BackupType: b.BackupType,
		CreatedAt:  b.CreatedAt.UTC(),
		Snapshot:   b.Snapshot,
	}
	if doc.Snapshot == nil {
		doc.Snapshot = []models.SectionSnapshot{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup %s: %w", b.ID, err)
	}
	return data, nil
}

// Summarize renders b as a flattened, human-readable outline
func Summarize(b *models.Backup) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Backup: %s (%s)\n", b.Name, b.BackupType)
	fmt.Fprintf(&sb, "Created: %s\n", b.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Sections: %d\n", len(b.Snapshot))

	for i, snap := range b.Snapshot {
		state := "enabled"
		if !snap.IsEnabled {
			state = "disabled"
		}
		fmt.Fprintf(&sb, "\n[%d] %s (sort %d, %s)\n", i+1, snap.Slug, snap.SortOrder, state)
		summarizeLayout(&sb, "published", snap.Published)
		summarizeLayout(&sb, "draft", snap.Draft)
	}
	return sb.String()
}

func summarizeLayout(sb *strings.Builder, label string, layout *models.Layout) {
	if layout == nil {
		fmt.Fprintf(sb, "  %s: none\n", label)
		return
	}
	fmt.Fprintf(sb, "  %s: %d blocks\n", label, blocktree.Count(layout.Content))
	blocktree.Walk(layout.Content, func(v blocktree.Visit) bool {
		indent := strings.Repeat("  ", v.Depth+2)
		face := ""
		if v.Slot == models.SlotBackContent {
			face = " [back]"
		}
		line := fmt.Sprintf("%s- %s %s%s", indent, v.Block.Type, v.Block.ID, face)
		if text := textSnippet(v.Block.Text, 48); text != "" {
			line += ": " + text
		}
		sb.WriteString(line + "\n")
		return true
	})
}

// textSnippet renders scalar content on one line, truncated to limit runes
func textSnippet(raw json.RawMessage, limit int) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit]) + "…"
	}
	if s == "" {
		return ""
	}
	return fmt.Sprintf("%q", s)
}
