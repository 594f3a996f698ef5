package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/httputil"
	serviceSite "sitecanvas/internal/service/site"
)

// BackupHandler handles backup HTTP requests
type BackupHandler struct {
	backups siteSvc.BackupService
	logger  *slog.Logger
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(backups siteSvc.BackupService, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		backups: backups,
		logger:  logger,
	}
}

// ListBackups lists backup metadata, newest first
// GET /api/backups
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, backups)
}

// CreateBackup snapshots the current layouts
// POST /api/backups
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.CreateBackupRequest
	if !parseJSON(w, r, &req) {
		return
	}

	backup, err := h.backups.CreateBackup(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, backup)
}

// ImportBackup stores an externally produced snapshot
// POST /api/backups/import
func (h *BackupHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.ImportBackupRequest
	if !parseJSON(w, r, &req) {
		return
	}

	backup, err := h.backups.ImportBackup(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, backup)
}

// GetBackup retrieves a backup with its snapshot
// GET /api/backups/{id}
func (h *BackupHandler) GetBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.backups.GetBackup(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, backup)
}

// DeleteBackup removes a backup
// DELETE /api/backups/{id}
func (h *BackupHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	if err := h.backups.DeleteBackup(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore writes every captured layout back as a draft
// POST /api/backups/{id}/restore
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	result, err := h.backups.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// ExportBackup downloads a backup as portable JSON or a text summary
// GET /api/backups/{id}/export?format=json|summary
func (h *BackupHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.backups.GetBackup(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	format := serviceSite.ExportFormat(r.URL.Query().Get("format"))
	body, contentType, err := serviceSite.RenderExport(backup, format)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ext := "json"
	if format == serviceSite.ExportSummary {
		ext = "txt"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="backup-%s.%s"`, backup.ID, ext))
	httputil.RespondBytes(w, http.StatusOK, contentType, body)
}

// ArchiveBackup uploads the backup export to object storage
// POST /api/backups/{id}/archive
func (h *BackupHandler) ArchiveBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backups.ArchiveBackup(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}
