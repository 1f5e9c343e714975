package handlers

import (
	"net/http"
	"strings"

	"github.com/DevPanatec/InfoPanama-sub001/internal/graph"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// GraphHandlers serves the read-only graph query endpoints.
type GraphHandlers struct {
	service *graph.Service
}

// NewGraphHandlers creates a GraphHandlers instance.
func NewGraphHandlers(service *graph.Service) *GraphHandlers {
	return &GraphHandlers{service: service}
}

// GetGraph handles GET /api/graph. Without query parameters it returns the
// full graph; limit/min_strength/types switch to the filtered view.
func (h *GraphHandlers) GetGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseInt(q.Get("limit"), 0)
	minStrength := parseFloat(q.Get("min_strength"), 0)

	var relationTypes []types.RelationType
	if raw := q.Get("types"); raw != "" {
		for _, token := range strings.Split(raw, ",") {
			relType := types.RelationType(strings.TrimSpace(token))
			if !types.ValidRelationType(relType) {
				respondError(w, http.StatusBadRequest, "unknown relation type", nil)
				return
			}
			relationTypes = append(relationTypes, relType)
		}
	}

	var view *graph.View
	var err error
	if limit == 0 && minStrength == 0 && len(relationTypes) == 0 {
		view, err = h.service.FullGraph(r.Context())
	} else {
		view, err = h.service.FilteredGraph(r.Context(), limit, minStrength, relationTypes)
	}
	if err != nil {
		respondStorageError(w, "failed to build graph", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetEntityGraph handles GET /api/graph/entities/{id} — one entity's edges
// partitioned by direction.
func (h *GraphHandlers) GetEntityGraph(w http.ResponseWriter, r *http.Request) {
	relations, err := h.service.EntityRelations(r.Context(), types.EntityRef(r.PathValue("id")))
	if err != nil {
		respondStorageError(w, "failed to load entity relations", err)
		return
	}
	respondJSON(w, http.StatusOK, relations)
}

// GetGraphStats handles GET /api/graph/stats.
func (h *GraphHandlers) GetGraphStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondStorageError(w, "failed to compute graph stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetGraphMetrics handles GET /api/graph/metrics — per-node degree and
// PageRank over the active graph.
func (h *GraphHandlers) GetGraphMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context())
	if err != nil {
		respondStorageError(w, "failed to compute graph metrics", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"metrics": metrics,
		"count":   len(metrics),
	})
}
