package handler

import (
	"log/slog"
	"net/http"

	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
	"sitecanvas/internal/httputil"
)

// BlockHandler handles block mutation HTTP requests
type BlockHandler struct {
	mutations siteSvc.MutationService
	logger    *slog.Logger
}

// NewBlockHandler creates a new block handler
func NewBlockHandler(mutations siteSvc.MutationService, logger *slog.Logger) *BlockHandler {
	return &BlockHandler{
		mutations: mutations,
		logger:    logger,
	}
}

// UpdateBlock patches a block, or a section root when {id} is a section reference
// PATCH /api/blocks/{id}
func (h *BlockHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.UpdateBlockRequest
	if !parseJSON(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")

	h.respond(w, r, http.StatusOK)(h.mutations.Update(r.Context(), &req))
}

// InsertBlock adds a block under a section root or a nested parent
// POST /api/blocks
func (h *BlockHandler) InsertBlock(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.InsertBlockRequest
	if !parseJSON(w, r, &req) {
		return
	}

	h.respond(w, r, http.StatusCreated)(h.mutations.Insert(r.Context(), &req))
}

// DeleteBlock removes a root child of a section
// DELETE /api/sections/{ref}/blocks/{blockId}
func (h *BlockHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	req := siteSvc.DeleteBlockRequest{
		SectionRef: r.PathValue("ref"),
		BlockID:    r.PathValue("blockId"),
	}

	h.respond(w, r, http.StatusOK)(h.mutations.Delete(r.Context(), &req))
}

// DeleteChild removes a direct child of a nested block
// DELETE /api/sections/{ref}/blocks/{parentId}/children/{blockId}?slot=content|backContent
func (h *BlockHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	req := siteSvc.DeleteChildRequest{
		SectionRef: r.PathValue("ref"),
		ParentID:   r.PathValue("parentId"),
		BlockID:    r.PathValue("blockId"),
		Slot:       models.SlotKind(r.URL.Query().Get("slot")),
	}

	h.respond(w, r, http.StatusOK)(h.mutations.DeleteChild(r.Context(), &req))
}

// MoveBlock moves a block relative to a drop target
// POST /api/sections/{ref}/blocks/move
func (h *BlockHandler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.MoveRequest
	if !parseJSON(w, r, &req) {
		return
	}
	req.SectionRef = r.PathValue("ref")

	h.respond(w, r, http.StatusOK)(h.mutations.Move(r.Context(), &req))
}

// DragBlock resolves raw drag geometry into a move and applies it
// POST /api/sections/{ref}/blocks/drag
func (h *BlockHandler) DragBlock(w http.ResponseWriter, r *http.Request) {
	var req siteSvc.DragRequest
	if !parseJSON(w, r, &req) {
		return
	}
	req.SectionRef = r.PathValue("ref")

	h.respond(w, r, http.StatusOK)(h.mutations.Drag(r.Context(), &req))
}

// respond writes a mutation result or maps its error
func (h *BlockHandler) respond(w http.ResponseWriter, r *http.Request, status int) func(*siteSvc.MutationResult, error) {
	return func(result *siteSvc.MutationResult, err error) {
		if err != nil {
			h.logger.Debug("mutation rejected", "path", r.URL.Path, "error", err)
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, status, result)
	}
}
