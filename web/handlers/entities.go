package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// maxListLimit caps pagination to keep one request from dragging the whole
// collection over the wire.
const maxListLimit = 1000

// EntityHandlers serves the entity query and curation endpoints.
type EntityHandlers struct {
	entities storage.EntityStore
	resolver *resolver.Resolver
	curator  *resolver.Curator
	hub      *WebSocketHub
}

// NewEntityHandlers creates an EntityHandlers instance.
func NewEntityHandlers(entities storage.EntityStore, res *resolver.Resolver, curator *resolver.Curator, hub *WebSocketHub) *EntityHandlers {
	return &EntityHandlers{entities: entities, resolver: res, curator: curator, hub: hub}
}

// ListEntities handles GET /api/entities with type/search/review filters
// and limit/offset pagination.
func (h *EntityHandlers) ListEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseInt(q.Get("limit"), 100)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	opts := storage.EntityListOptions{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: parseInt(q.Get("offset"), 0),
	}
	if t := q.Get("type"); t != "" {
		entityType := types.EntityType(strings.ToUpper(t))
		if !types.ValidEntityType(entityType) {
			respondError(w, http.StatusBadRequest, "unknown entity type", nil)
			return
		}
		opts.Type = entityType
	}
	if q.Get("review") == "true" {
		opts.MarkedForReview = true
	}

	entities, err := h.entities.List(r.Context(), opts)
	if err != nil {
		respondStorageError(w, "failed to list entities", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"count":    len(entities),
	})
}

// GetEntity handles GET /api/entities/{id}.
func (h *EntityHandlers) GetEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := h.entities.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondStorageError(w, "failed to get entity", err)
		return
	}
	respondJSON(w, http.StatusOK, entity)
}

// TopEntities handles GET /api/entities/top?limit=&type=.
func (h *EntityHandlers) TopEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseInt(q.Get("limit"), 10)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	var entityType types.EntityType
	if t := q.Get("type"); t != "" {
		entityType = types.EntityType(strings.ToUpper(t))
		if !types.ValidEntityType(entityType) {
			respondError(w, http.StatusBadRequest, "unknown entity type", nil)
			return
		}
	}

	entities, err := h.entities.TopMentioned(r.Context(), entityType, limit)
	if err != nil {
		respondStorageError(w, "failed to list top entities", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"count":    len(entities),
	})
}

// EntityStats handles GET /api/entities/stats.
func (h *EntityHandlers) EntityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.entities.Stats(r.Context())
	if err != nil {
		respondStorageError(w, "failed to compute entity stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ResolveRequest is the body of POST /api/entities/resolve.
type ResolveRequest struct {
	Name      string                `json:"name"`
	Type      string                `json:"type,omitempty"`
	ArticleID string                `json:"article_id,omitempty"`
	Metadata  *types.EntityMetadata `json:"metadata,omitempty"`
}

// ResolveEntity handles POST /api/entities/resolve — find-or-create for a
// single mention.
func (h *EntityHandlers) ResolveEntity(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	res, err := h.resolver.Resolve(r.Context(), resolver.Mention{
		Name:      req.Name,
		Type:      types.EntityType(strings.ToUpper(req.Type)),
		ArticleID: req.ArticleID,
		Metadata:  req.Metadata,
	})
	if err != nil {
		respondStorageError(w, "failed to resolve entity", err)
		return
	}

	if !res.Skipped {
		h.hub.Broadcast(NewEvent(EventEntityResolved, map[string]interface{}{
			"entity_id":  res.EntityID,
			"created":    res.Created,
			"similarity": res.Similarity,
		}))
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respondJSON(w, status, res)
}

// MergeRequest is the body of POST /api/entities/merge.
type MergeRequest struct {
	PrimaryID   string `json:"primary_id"`
	DuplicateID string `json:"duplicate_id"`
}

// MergeEntities handles POST /api/entities/merge — explicit merge of a
// duplicate into its primary.
func (h *EntityHandlers) MergeEntities(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.PrimaryID == "" || req.DuplicateID == "" {
		respondError(w, http.StatusBadRequest, "primary_id and duplicate_id are required", nil)
		return
	}

	report, err := h.curator.Merge(r.Context(), req.PrimaryID, req.DuplicateID)
	if err != nil {
		respondStorageError(w, "failed to merge entities", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// MarkReview handles POST /api/entities/{id}/review.
func (h *EntityHandlers) MarkReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestedBy string `json:"requested_by,omitempty"`
	}
	if r.Body != nil {
		// Body is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.curator.MarkForReview(r.Context(), r.PathValue("id"), req.RequestedBy); err != nil {
		respondStorageError(w, "failed to mark entity for review", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "marked"})
}

// UnmarkReview handles DELETE /api/entities/{id}/review.
func (h *EntityHandlers) UnmarkReview(w http.ResponseWriter, r *http.Request) {
	if err := h.curator.UnmarkForReview(r.Context(), r.PathValue("id")); err != nil {
		respondStorageError(w, "failed to clear review flag", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
