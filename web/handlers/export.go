package handlers

import (
	"net/http"

	"github.com/DevPanatec/InfoPanama-sub001/internal/export"
)

// ExportHandlers serves the snapshot export endpoints.
type ExportHandlers struct {
	exporter *export.Exporter
}

// NewExportHandlers creates an ExportHandlers instance.
func NewExportHandlers(exporter *export.Exporter) *ExportHandlers {
	return &ExportHandlers{exporter: exporter}
}

// ExportJSON handles GET /api/export/json.
func (h *ExportHandlers) ExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.JSON(r.Context())
	if err != nil {
		respondStorageError(w, "failed to export graph", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="graph.json"`)
	w.Write(data)
}

// ExportNodesCSV handles GET /api/export/nodes.csv.
func (h *ExportHandlers) ExportNodesCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.NodesCSV(r.Context())
	if err != nil {
		respondStorageError(w, "failed to export nodes", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="nodes.csv"`)
	w.Write([]byte(data))
}

// ExportEdgesCSV handles GET /api/export/edges.csv.
func (h *ExportHandlers) ExportEdgesCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.EdgesCSV(r.Context())
	if err != nil {
		respondStorageError(w, "failed to export edges", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="edges.csv"`)
	w.Write([]byte(data))
}

// ExportGEXF handles GET /api/export/gexf.
func (h *ExportHandlers) ExportGEXF(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.GEXF(r.Context())
	if err != nil {
		respondStorageError(w, "failed to export GEXF", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="graph.gexf"`)
	w.Write([]byte(data))
}
