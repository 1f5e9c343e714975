// Command infopanama-export writes snapshot exports of the graph to disk:
// the full JSON document, node and edge CSVs for spreadsheet work, and a
// GEXF file for Gephi.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/export"
	"github.com/DevPanatec/InfoPanama-sub001/internal/graph"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/postgres"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/sqlite"
)

func main() {
	outDir := flag.String("out", ".", "Directory to write export files into")
	formats := flag.String("formats", "json,csv,gexf", "Comma-separated list of formats: json, csv, gexf")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	exporter, closeStore, err := openExporter(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	ctx := context.Background()
	for _, format := range strings.Split(*formats, ",") {
		switch strings.TrimSpace(format) {
		case "json":
			data, err := exporter.JSON(ctx)
			if err != nil {
				log.Fatalf("JSON export failed: %v", err)
			}
			writeFile(*outDir, "graph.json", data)
		case "csv":
			nodes, err := exporter.NodesCSV(ctx)
			if err != nil {
				log.Fatalf("Nodes CSV export failed: %v", err)
			}
			writeFile(*outDir, "nodes.csv", []byte(nodes))
			edges, err := exporter.EdgesCSV(ctx)
			if err != nil {
				log.Fatalf("Edges CSV export failed: %v", err)
			}
			writeFile(*outDir, "edges.csv", []byte(edges))
		case "gexf":
			doc, err := exporter.GEXF(ctx)
			if err != nil {
				log.Fatalf("GEXF export failed: %v", err)
			}
			writeFile(*outDir, "graph.gexf", []byte(doc))
		case "":
		default:
			log.Fatalf("Unknown export format %q (want json, csv or gexf)", format)
		}
	}
}

func writeFile(dir, name string, data []byte) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	log.Printf("Wrote %s (%d bytes)", path, len(data))
}

func openExporter(cfg *config.Config) (*export.Exporter, func() error, error) {
	if cfg.Storage.Engine == "postgres" {
		store, err := postgres.NewStore(cfg.Storage.PostgresDSN, cfg.Matching.MergePolicy)
		if err != nil {
			return nil, nil, err
		}
		return export.NewExporter(graph.NewService(store.Entities(), store.Relations())), store.Close, nil
	}

	store, err := sqlite.NewStore(filepath.Join(cfg.Storage.DataPath, "infopanama.db"), cfg.Matching.MergePolicy)
	if err != nil {
		return nil, nil, err
	}
	return export.NewExporter(graph.NewService(store.Entities(), store.Relations())), store.Close, nil
}
