package handler

import (
	"log/slog"
	"net/http"

	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/httputil"
)

// SectionHandler handles section and version lifecycle HTTP requests
type SectionHandler struct {
	sections siteSvc.SectionService
	versions siteSvc.VersionStore
	logger   *slog.Logger
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(sections siteSvc.SectionService, versions siteSvc.VersionStore, logger *slog.Logger) *SectionHandler {
	return &SectionHandler{
		sections: sections,
		versions: versions,
		logger:   logger,
	}
}

// HealthCheck returns server health status
// GET /health
func (h *SectionHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSections lists sections in page order
// GET /api/sections
func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.sections.ListSections(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sections)
}

// CreateSection creates a section with its first published layout
// POST /api/sections
// Returns 201 if created, 409 with the existing section if the slug is taken
func (h *SectionHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.CreateSectionRequest
	if !parseJSON(w, r, &req) {
		return
	}

	section, err := h.sections.CreateSection(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func() (*models.Section, error) {
			return h.sections.GetSection(r.Context(), models.BySlug(req.Slug))
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, section)
}

// GetSection retrieves a section by id or slug
// GET /api/sections/{ref}
func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	ref, ok := sectionRef(w, r)
	if !ok {
		return
	}
	section, err := h.sections.GetSection(r.Context(), ref)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, section)
}

// UpdateSection changes ordering or visibility
// PATCH /api/sections/{ref}
func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	ref, ok := sectionRef(w, r)
	if !ok {
		return
	}
	var req siteSvc.UpdateSectionRequest
	if !parseJSON(w, r, &req) {
		return
	}

	section, err := h.sections.UpdateSection(r.Context(), ref, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, section)
}

// ReorderSections assigns page order from a full list of ids
// POST /api/sections/reorder
func (h *SectionHandler) ReorderSections(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.ReorderSectionsRequest
	if !parseJSON(w, r, &req) {
		return
	}

	sections, err := h.sections.ReorderSections(r.Context(), req.IDs)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sections)
}

// GetLayout returns the live layout of a section
// GET /api/sections/{ref}/layout?status=published|draft (default published)
func (h *SectionHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	ref, ok := sectionRef(w, r)
	if !ok {
		return
	}
	status := models.VersionPublished
	if s := statusParam(r); s != nil {
		status = *s
	}

	version, err := h.versions.GetLayout(r.Context(), ref, status)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, version)
}

// ListVersions lists a section's versions, newest first
// GET /api/sections/{ref}/versions?status=
func (h *SectionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	ref, ok := sectionRef(w, r)
	if !ok {
		return
	}

	versions, err := h.versions.ListVersions(r.Context(), ref, statusParam(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, versions)
}

// Publish promotes the section's draft
// POST /api/sections/{ref}/publish
func (h *SectionHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ref, ok := sectionRef(w, r)
	if !ok {
		return
	}

	version, err := h.versions.Publish(r.Context(), ref)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, version)
}

// DiscardDraft deletes the section's draft
// DELETE /api/sections/{ref}/draft
func (h *SectionHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	ref, ok := sectionRef(w, r)
	if !ok {
		return
	}
	if err := h.versions.DiscardDraft(r.Context(), ref); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteVersion deletes an archived version
// DELETE /api/versions/{id}
func (h *SectionHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	if err := h.versions.DeleteVersion(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevertToVersion copies an archived version into the section draft
// POST /api/versions/{id}/revert
func (h *SectionHandler) RevertToVersion(w http.ResponseWriter, r *http.Request) {
	draft, err := h.versions.RevertToVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, draft)
}

// SaveVersion overwrites a version's layout
// PUT /api/versions/{id}/layout
func (h *SectionHandler) SaveVersion(w http.ResponseWriter, r *http.Request) {
	var layout models.Layout
	if !parseJSON(w, r, &layout) {
		return
	}
	id := r.PathValue("id")
	if err := h.versions.Save(r.Context(), id, layout); err != nil {
		handleError(w, err)
		return
	}
	h.logger.Debug("version layout replaced", "version_id", id, "user_id", httputil.GetUserID(r))
	w.WriteHeader(http.StatusNoContent)
}
