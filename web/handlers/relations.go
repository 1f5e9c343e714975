package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// RelationHandlers serves the relation mutation and query endpoints.
type RelationHandlers struct {
	relations storage.RelationStore
	hub       *WebSocketHub
}

// NewRelationHandlers creates a RelationHandlers instance.
func NewRelationHandlers(relations storage.RelationStore, hub *WebSocketHub) *RelationHandlers {
	return &RelationHandlers{relations: relations, hub: hub}
}

// ListRelations handles GET /api/relations with active/min_strength/types
// filters.
func (h *RelationHandlers) ListRelations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.RelationListOptions{
		ActiveOnly:  q.Get("active") != "false",
		MinStrength: parseFloat(q.Get("min_strength"), 0),
		Limit:       parseInt(q.Get("limit"), 0),
	}
	if raw := q.Get("types"); raw != "" {
		for _, token := range strings.Split(raw, ",") {
			relType := types.RelationType(strings.TrimSpace(token))
			if !types.ValidRelationType(relType) {
				respondError(w, http.StatusBadRequest, "unknown relation type", nil)
				return
			}
			opts.Types = append(opts.Types, relType)
		}
	}

	relations, err := h.relations.List(r.Context(), opts)
	if err != nil {
		respondStorageError(w, "failed to list relations", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"relations": relations,
		"count":     len(relations),
	})
}

// GetRelation handles GET /api/relations/{id}.
func (h *RelationHandlers) GetRelation(w http.ResponseWriter, r *http.Request) {
	relation, err := h.relations.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondStorageError(w, "failed to get relation", err)
		return
	}
	respondJSON(w, http.StatusOK, relation)
}

// UpsertRelation handles POST /api/relations — idempotent upsert of a
// directed edge.
func (h *RelationHandlers) UpsertRelation(w http.ResponseWriter, r *http.Request) {
	var candidate types.RelationCandidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id, err := h.relations.Upsert(r.Context(), &candidate)
	if err != nil {
		respondStorageError(w, "failed to upsert relation", err)
		return
	}

	h.hub.Broadcast(NewEvent(EventRelationUpsert, map[string]interface{}{
		"relation_id": id,
		"source":      candidate.Source,
		"target":      candidate.Target,
		"type":        candidate.Type,
	}))
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// DeactivateRelation handles DELETE /api/relations/{id} — soft delete.
func (h *RelationHandlers) DeactivateRelation(w http.ResponseWriter, r *http.Request) {
	if err := h.relations.Deactivate(r.Context(), r.PathValue("id")); err != nil {
		respondStorageError(w, "failed to deactivate relation", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
