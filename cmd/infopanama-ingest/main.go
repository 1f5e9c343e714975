// Command infopanama-ingest runs extraction batches through the resolution
// pipeline from the command line. Each positional argument is a JSON file
// holding one batch ({"articleId": ..., "candidates": [...]}); the -seed
// flag additionally loads a directory of YAML seed files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/ingest"
	"github.com/DevPanatec/InfoPanama-sub001/internal/relations"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/seed"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/postgres"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/sqlite"
)

func main() {
	seedDir := flag.String("seed", "", "Directory of YAML seed files to load before the JSON batches")
	flag.Parse()

	if *seedDir == "" && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: infopanama-ingest [-seed dir] batch.json [batch.json ...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	entities, relationStore, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	var batches []ingest.Batch
	if *seedDir != "" {
		seeds, err := seed.LoadDir(*seedDir)
		if err != nil {
			log.Fatalf("Failed to load seeds: %v", err)
		}
		log.Printf("Loaded %d seed batches from %s", len(seeds), *seedDir)
		batches = append(batches, seeds...)
	}
	for _, path := range flag.Args() {
		batch, err := readBatch(path)
		if err != nil {
			log.Fatalf("Failed to read batch %s: %v", path, err)
		}
		batches = append(batches, batch)
	}

	res := resolver.New(entities, cfg.Matching, nil)
	parser := relations.NewParser(res, relationStore, nil)
	processor := ingest.NewProcessor(entities, res, parser, nil)

	report, err := processor.ProcessAll(context.Background(), batches)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	log.Printf("Processed %d candidates: %d created, %d matched, %d skipped, %d flagged for review",
		report.Processed, report.Created, report.Matched, report.Skipped, report.NeedsReview)
	log.Printf("Stored %d relations, %d candidate errors", report.RelationsStored, report.Errors)
	if report.Errors > 0 {
		os.Exit(1)
	}
}

func readBatch(path string) (ingest.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.Batch{}, err
	}
	var batch ingest.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return ingest.Batch{}, err
	}
	if batch.ArticleID == "" {
		batch.ArticleID = filepath.Base(path)
	}
	return batch, nil
}

func openStore(cfg *config.Config) (storage.EntityStore, storage.RelationStore, func() error, error) {
	if cfg.Storage.Engine == "postgres" {
		store, err := postgres.NewStore(cfg.Storage.PostgresDSN, cfg.Matching.MergePolicy)
		if err != nil {
			return nil, nil, nil, err
		}
		return store.Entities(), store.Relations(), store.Close, nil
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, nil, nil, err
	}
	store, err := sqlite.NewStore(filepath.Join(cfg.Storage.DataPath, "infopanama.db"), cfg.Matching.MergePolicy)
	if err != nil {
		return nil, nil, nil, err
	}
	return store.Entities(), store.Relations(), store.Close, nil
}
