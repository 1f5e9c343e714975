// Package export serializes a graph snapshot into the three interchange
// formats consumed downstream: JSON for the dashboard, CSV node/edge files
// for spreadsheet analysis and GEXF for Gephi.
//
// All three formats are deterministic for a given snapshot: the stores
// return rows in creation order, and apart from the explicit export
// timestamp no field depends on when the export runs.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DevPanatec/InfoPanama-sub001/internal/graph"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// Exporter renders graph snapshots.
type Exporter struct {
	service *graph.Service

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewExporter creates an Exporter on top of the graph query service.
func NewExporter(service *graph.Service) *Exporter {
	return &Exporter{service: service, now: time.Now}
}

// Meta describes the exported snapshot.
type Meta struct {
	TotalNodes   int                    `json:"totalNodes"`
	TotalEdges   int                    `json:"totalEdges"`
	CountsByKind map[types.NodeKind]int `json:"countsByKind"`
	ExportedAt   string                 `json:"exportedAt"`
}

// Document is the JSON export envelope. Nodes are grouped by kind.
type Document struct {
	Meta  Meta                            `json:"meta"`
	Nodes map[types.NodeKind][]graph.Node `json:"nodes"`
	Edges []*types.Relation               `json:"edges"`
}

// JSON renders the full snapshot as an indented JSON document.
func (e *Exporter) JSON(ctx context.Context) ([]byte, error) {
	view, err := e.service.FullGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: failed to load graph: %w", err)
	}

	doc := Document{
		Meta: Meta{
			TotalNodes:   len(view.Nodes),
			TotalEdges:   len(view.Edges),
			CountsByKind: make(map[types.NodeKind]int),
			ExportedAt:   e.now().UTC().Format(time.RFC3339),
		},
		Nodes: make(map[types.NodeKind][]graph.Node),
		Edges: view.Edges,
	}
	for _, node := range view.Nodes {
		doc.Meta.CountsByKind[node.Kind]++
		doc.Nodes[node.Kind] = append(doc.Nodes[node.Kind], node)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: failed to marshal JSON: %w", err)
	}
	return data, nil
}
