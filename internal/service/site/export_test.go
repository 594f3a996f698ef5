package site

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "sitecanvas/internal/domain/models/site"
)

func sampleBackup() *models.Backup {
	published := heroLayout()
	return &models.Backup{
		ID:         "3f1c9a52-7d1e-4c7a-9a55-0c6c4f2b8e11",
		Name:       "pre-launch",
		BackupType: models.BackupPublished,
		CreatedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Snapshot: []models.SectionSnapshot{
			{ID: "9b2d7f10-1a2b-4c3d-8e9f-001122334455", Slug: "hero", SortOrder: 0, IsEnabled: true, Published: &published},
			{Slug: "footer", SortOrder: 1, IsEnabled: false},
		},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleBackup())

	for _, want := range []string{
		"Backup: pre-launch (published)\n",
		"Created: 2026-03-14T09:30:00Z\n",
		"Sections: 2\n",
		"[1] hero (sort 0, enabled)\n",
		"  published: 9 blocks\n",
		"    - heading h1: \"Welcome\"\n",
		"      - text t1: \"Old copy\"\n",
		"      - text t3 [back]: \"back\"\n",
		"[2] footer (sort 1, disabled)\n",
		"  draft: none\n",
	} {
		assert.Contains(t, summary, want)
	}
}

func TestTextSnippet(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: ``, want: ``},
		{name: "blank string", raw: `"   "`, want: ``},
		{name: "collapses whitespace", raw: `"two\n  lines"`, want: `"two lines"`},
		{name: "non-string content", raw: `{"html":"<b>x</b>"}`, want: `"{\"html\":\"<b>x</b>\"}"`},
		{name: "truncates", raw: `"` + strings.Repeat("a", 60) + `"`, want: `"` + strings.Repeat("a", 48) + `…"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textSnippet(json.RawMessage(tt.raw), 48))
		})
	}
}

func TestExportReimports(t *testing.T) {
	backup := sampleBackup()
	backup.Snapshot = backup.Snapshot[:1]

	data, contentType, err := RenderExport(backup, ExportJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var doc struct {
		Format   string          `json:"format"`
		Snapshot json.RawMessage `json:"snapshot_json"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "sitecanvas-backup/v1", doc.Format)

	snapshot, err := ParseSnapshot(doc.Snapshot, backup.BackupType)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.JSONEq(t, jsonOf(t, heroLayout()), jsonOf(t, snapshot[0].Published))

	_, _, err = RenderExport(backup, "xml")
	assert.Error(t, err)

	text, contentType, err := RenderExport(backup, ExportSummary)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
	assert.True(t, strings.HasPrefix(string(text), "Backup: pre-launch"))
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "backups/2026/03/14/3f1c9a52-7d1e-4c7a-9a55-0c6c4f2b8e11.json", ArchiveKey(sampleBackup()))
}
