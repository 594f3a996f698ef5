package handler

import (
	"log/slog"
	"net/http"

	"sitecanvas/internal/blocks"
	serviceSite "sitecanvas/internal/service/site"
)

// Handlers groups every HTTP handler
type Handlers struct {
	Sections *SectionHandler
	Blocks   *BlockHandler
	Backups  *BackupHandler
	Kinds    *KindsHandler
}

// NewHandlers builds the handlers over the site services
func NewHandlers(services *serviceSite.Services, kinds *blocks.Registry, logger *slog.Logger) *Handlers {
	return &Handlers{
		Sections: NewSectionHandler(services.Sections, services.Versions, logger),
		Blocks:   NewBlockHandler(services.Mutations, logger),
		Backups:  NewBackupHandler(services.Backups, logger),
		Kinds:    NewKindsHandler(kinds, logger),
	}
}

// NewRouter registers all routes (Go 1.22+ enhanced patterns).
// events and metrics are mounted when non-nil.
func NewRouter(h *Handlers, events, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Health and observability
	mux.HandleFunc("GET /health", h.Sections.HealthCheck)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	if events != nil {
		mux.Handle("GET /api/events", events)
	}

	// Section routes
	mux.HandleFunc("GET /api/sections", h.Sections.ListSections)
	mux.HandleFunc("POST /api/sections", h.Sections.CreateSection)
	mux.HandleFunc("POST /api/sections/reorder", h.Sections.ReorderSections)
	mux.HandleFunc("GET /api/sections/{ref}", h.Sections.GetSection)
	mux.HandleFunc("PATCH /api/sections/{ref}", h.Sections.UpdateSection)
	mux.HandleFunc("GET /api/sections/{ref}/layout", h.Sections.GetLayout)
	mux.HandleFunc("GET /api/sections/{ref}/versions", h.Sections.ListVersions)
	mux.HandleFunc("POST /api/sections/{ref}/publish", h.Sections.Publish)
	mux.HandleFunc("DELETE /api/sections/{ref}/draft", h.Sections.DiscardDraft)

	// Block routes
	mux.HandleFunc("GET /api/blocks/kinds", h.Kinds.ListKinds)
	mux.HandleFunc("POST /api/blocks", h.Blocks.InsertBlock)
	mux.HandleFunc("PATCH /api/blocks/{id}", h.Blocks.UpdateBlock)
	mux.HandleFunc("DELETE /api/sections/{ref}/blocks/{blockId}", h.Blocks.DeleteBlock)
	mux.HandleFunc("DELETE /api/sections/{ref}/blocks/{parentId}/children/{blockId}", h.Blocks.DeleteChild)
	mux.HandleFunc("POST /api/sections/{ref}/blocks/move", h.Blocks.MoveBlock)
	mux.HandleFunc("POST /api/sections/{ref}/blocks/drag", h.Blocks.DragBlock)

	// Version routes
	mux.HandleFunc("PUT /api/versions/{id}/layout", h.Sections.SaveVersion)
	mux.HandleFunc("DELETE /api/versions/{id}", h.Sections.DeleteVersion)
	mux.HandleFunc("POST /api/versions/{id}/revert", h.Sections.RevertToVersion)

	// Backup routes
	mux.HandleFunc("GET /api/backups", h.Backups.ListBackups)
	mux.HandleFunc("POST /api/backups", h.Backups.CreateBackup)
	mux.HandleFunc("POST /api/backups/import", h.Backups.ImportBackup)
	mux.HandleFunc("GET /api/backups/{id}", h.Backups.GetBackup)
	mux.HandleFunc("DELETE /api/backups/{id}", h.Backups.DeleteBackup)
	mux.HandleFunc("POST /api/backups/{id}/restore", h.Backups.Restore)
	mux.HandleFunc("GET /api/backups/{id}/export", h.Backups.ExportBackup)
	mux.HandleFunc("POST /api/backups/{id}/archive", h.Backups.ArchiveBackup)

	return mux
}
