package handler

import (
	"log/slog"
	"net/http"

	"sitecanvas/internal/blocks"
	"sitecanvas/internal/httputil"
)

// KindsHandler serves the block palette
type KindsHandler struct {
	registry *blocks.Registry
	logger   *slog.Logger
}

// NewKindsHandler creates a new kinds handler
func NewKindsHandler(registry *blocks.Registry, logger *slog.Logger) *KindsHandler {
	return &KindsHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListKinds returns every block kind in palette order
// GET /api/blocks/kinds?category=layout
func (h *KindsHandler) ListKinds(w http.ResponseWriter, r *http.Request) {
	category := blocks.Category(r.URL.Query().Get("category"))

	kinds := []blocks.Kind{}
	for _, k := range h.registry.List() {
		if category != "" && k.Category != category {
			continue
		}
		kinds = append(kinds, k)
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"kinds": kinds,
	})
}
