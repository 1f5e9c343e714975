package export

import (
	"context"
	"fmt"
	"strings"
)

// GEXF renders the snapshot as a GEXF 1.2 document for Gephi. Nodes carry
// the kind, entity category, description and mention count as attributes;
// edges carry the relation type, strength, confidence and context. Edge
// weight is the relation strength. Edge ids are sequential integers in
// snapshot order.
func (e *Exporter) GEXF(ctx context.Context) (string, error) {
	view, err := e.service.FullGraph(ctx)
	if err != nil {
		return "", fmt.Errorf("export: failed to load graph: %w", err)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<gexf xmlns="http://www.gexf.net/1.2draft" version="1.2">` + "\n")
	b.WriteString("  <meta lastmodifieddate=\"" + e.now().UTC().Format("2006-01-02") + "\">\n")
	b.WriteString("    <creator>InfoPanama OSINT Graph</creator>\n")
	b.WriteString("    <description>Actor and entity relationship network</description>\n")
	b.WriteString("  </meta>\n")
	b.WriteString(`  <graph mode="static" defaultedgetype="directed">` + "\n")

	b.WriteString(`    <attributes class="node">` + "\n")
	b.WriteString(`      <attribute id="0" title="type" type="string"/>` + "\n")
	b.WriteString(`      <attribute id="1" title="category" type="string"/>` + "\n")
	b.WriteString(`      <attribute id="2" title="description" type="string"/>` + "\n")
	b.WriteString(`      <attribute id="3" title="mentionCount" type="integer"/>` + "\n")
	b.WriteString("    </attributes>\n")
	b.WriteString(`    <attributes class="edge">` + "\n")
	b.WriteString(`      <attribute id="0" title="relationType" type="string"/>` + "\n")
	b.WriteString(`      <attribute id="1" title="strength" type="float"/>` + "\n")
	b.WriteString(`      <attribute id="2" title="confidence" type="float"/>` + "\n")
	b.WriteString(`      <attribute id="3" title="context" type="string"/>` + "\n")
	b.WriteString("    </attributes>\n")

	b.WriteString("    <nodes>\n")
	for _, node := range view.Nodes {
		fmt.Fprintf(&b, "      <node id=\"%s\" label=\"%s\">\n", node.ID, xmlEscape(node.Label))
		b.WriteString("        <attvalues>\n")
		fmt.Fprintf(&b, "          <attvalue for=\"0\" value=\"%s\"/>\n", xmlEscape(string(node.Kind)))
		fmt.Fprintf(&b, "          <attvalue for=\"1\" value=\"%s\"/>\n", xmlEscape(node.Category))
		fmt.Fprintf(&b, "          <attvalue for=\"2\" value=\"%s\"/>\n", xmlEscape(node.Description))
		fmt.Fprintf(&b, "          <attvalue for=\"3\" value=\"%d\"/>\n", node.MentionCount)
		b.WriteString("        </attvalues>\n")
		b.WriteString("      </node>\n")
	}
	b.WriteString("    </nodes>\n")

	b.WriteString("    <edges>\n")
	for i, edge := range view.Edges {
		fmt.Fprintf(&b, "      <edge id=\"%d\" source=\"%s\" target=\"%s\" weight=\"%s\">\n",
			i, edge.Source.ID, edge.Target.ID, formatFloat(edge.Strength))
		b.WriteString("        <attvalues>\n")
		fmt.Fprintf(&b, "          <attvalue for=\"0\" value=\"%s\"/>\n", xmlEscape(string(edge.Type)))
		fmt.Fprintf(&b, "          <attvalue for=\"1\" value=\"%s\"/>\n", formatFloat(edge.Strength))
		fmt.Fprintf(&b, "          <attvalue for=\"2\" value=\"%s\"/>\n", formatFloat(edge.Confidence))
		fmt.Fprintf(&b, "          <attvalue for=\"3\" value=\"%s\"/>\n", xmlEscape(edge.Context))
		b.WriteString("        </attvalues>\n")
		b.WriteString("      </edge>\n")
	}
	b.WriteString("    </edges>\n")

	b.WriteString("  </graph>\n")
	b.WriteString("</gexf>\n")
	return b.String(), nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
