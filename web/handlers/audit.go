package handlers

import (
	"net/http"

	"github.com/DevPanatec/InfoPanama-sub001/internal/audit"
)

// AuditHandlers serves the orphan audit and maintenance cleanup endpoints.
type AuditHandlers struct {
	auditor *audit.Auditor
	hub     *WebSocketHub
}

// NewAuditHandlers creates an AuditHandlers instance.
func NewAuditHandlers(auditor *audit.Auditor, hub *WebSocketHub) *AuditHandlers {
	return &AuditHandlers{auditor: auditor, hub: hub}
}

// GetOrphans handles GET /api/audit/orphans.
func (h *AuditHandlers) GetOrphans(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditor.FindOrphans(r.Context())
	if err != nil {
		respondStorageError(w, "failed to audit orphans", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetCleanupPlan handles GET /api/audit/cleanup — dry run listing what a
// cleanup would remove.
func (h *AuditHandlers) GetCleanupPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.auditor.PlanCleanup(r.Context())
	if err != nil {
		respondStorageError(w, "failed to plan cleanup", err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// RunCleanup handles POST /api/audit/cleanup — deletes deny-listed
// entities after deactivating their relations.
func (h *AuditHandlers) RunCleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.auditor.RunCleanup(r.Context())
	if err != nil {
		respondStorageError(w, "failed to run cleanup", err)
		return
	}
	h.hub.Broadcast(NewEvent(EventEntitiesCleaned, result))
	respondJSON(w, http.StatusOK, result)
}
