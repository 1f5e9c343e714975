package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// NodesCSV renders every node as one CSV row. The type column carries the
// node kind and the category column the entity type, so a Gephi or
// spreadsheet import can partition on either. Free-text columns are quoted
// with internal quotes doubled.
func (e *Exporter) NodesCSV(ctx context.Context) (string, error) {
	view, err := e.service.FullGraph(ctx)
	if err != nil {
		return "", fmt.Errorf("export: failed to load graph: %w", err)
	}

	var b strings.Builder
	b.WriteString("id,label,type,category,mentionCount,description\n")
	for _, node := range view.Nodes {
		b.WriteString(node.ID)
		b.WriteByte(',')
		b.WriteString(csvQuote(node.Label))
		b.WriteByte(',')
		b.WriteString(string(node.Kind))
		b.WriteByte(',')
		b.WriteString(node.Category)
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(node.MentionCount))
		b.WriteByte(',')
		b.WriteString(csvQuote(node.Description))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// EdgesCSV renders every active edge as one CSV row.
func (e *Exporter) EdgesCSV(ctx context.Context) (string, error) {
	view, err := e.service.FullGraph(ctx)
	if err != nil {
		return "", fmt.Errorf("export: failed to load graph: %w", err)
	}

	var b strings.Builder
	b.WriteString("source,target,type,strength,confidence,context\n")
	for _, edge := range view.Edges {
		b.WriteString(edge.Source.ID)
		b.WriteByte(',')
		b.WriteString(edge.Target.ID)
		b.WriteByte(',')
		b.WriteString(string(edge.Type))
		b.WriteByte(',')
		b.WriteString(formatFloat(edge.Strength))
		b.WriteByte(',')
		b.WriteString(formatFloat(edge.Confidence))
		b.WriteByte(',')
		b.WriteString(csvQuote(edge.Context))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
