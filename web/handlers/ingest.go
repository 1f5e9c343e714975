package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/DevPanatec/InfoPanama-sub001/internal/ingest"
)

// IngestHandlers accepts extraction batches over HTTP.
type IngestHandlers struct {
	processor *ingest.Processor
	hub       *WebSocketHub
}

// NewIngestHandlers creates an IngestHandlers instance.
func NewIngestHandlers(processor *ingest.Processor, hub *WebSocketHub) *IngestHandlers {
	return &IngestHandlers{processor: processor, hub: hub}
}

// PostBatch handles POST /api/ingest — one extraction batch through the
// resolver and relation pipeline.
func (h *IngestHandlers) PostBatch(w http.ResponseWriter, r *http.Request) {
	var batch ingest.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(batch.Candidates) == 0 {
		respondError(w, http.StatusBadRequest, "batch has no candidates", nil)
		return
	}

	report, err := h.processor.Process(r.Context(), batch)
	if err != nil {
		respondStorageError(w, "failed to process batch", err)
		return
	}
	h.hub.Broadcast(NewEvent(EventBatchIngested, map[string]interface{}{
		"articleId": batch.ArticleID,
		"report":    report,
	}))
	respondJSON(w, http.StatusOK, report)
}
