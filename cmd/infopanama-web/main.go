// Command infopanama-web serves the entity and relation graph over HTTP:
// resolution and ingestion endpoints, graph queries, exports, the orphan
// audit and a websocket feed of graph changes.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/DevPanatec/InfoPanama-sub001/internal/audit"
	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/export"
	"github.com/DevPanatec/InfoPanama-sub001/internal/graph"
	"github.com/DevPanatec/InfoPanama-sub001/internal/ingest"
	"github.com/DevPanatec/InfoPanama-sub001/internal/relations"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/server"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/breaker"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/postgres"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	entities, relationStore, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := resolver.New(entities, cfg.Matching, nil)
	parser := relations.NewParser(res, relationStore, nil)
	graphs := graph.NewService(entities, relationStore)

	svc := server.Services{
		Entities:  entities,
		Relations: relationStore,
		Resolver:  res,
		Curator:   resolver.NewCurator(entities, relationStore, nil),
		Processor: ingest.NewProcessor(entities, res, parser, nil),
		Graph:     graphs,
		Exporter:  export.NewExporter(graphs),
		Auditor:   audit.NewAuditor(entities, relationStore),
	}

	addr, _, err := server.Start(ctx, cfg, svc)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("InfoPanama graph API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore opens the configured storage engine and wraps both views in a
// shared circuit breaker so a dead database trips one circuit.
func openStore(cfg *config.Config) (storage.EntityStore, storage.RelationStore, func() error, error) {
	b := breaker.New("storage", breaker.Config{})

	if cfg.Storage.Engine == "postgres" {
		store, err := postgres.NewStore(cfg.Storage.PostgresDSN, cfg.Matching.MergePolicy)
		if err != nil {
			return nil, nil, nil, err
		}
		return breaker.NewEntityStore(store.Entities(), b), breaker.NewRelationStore(store.Relations(), b), store.Close, nil
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, nil, nil, err
	}
	store, err := sqlite.NewStore(filepath.Join(cfg.Storage.DataPath, "infopanama.db"), cfg.Matching.MergePolicy)
	if err != nil {
		return nil, nil, nil, err
	}
	return breaker.NewEntityStore(store.Entities(), b), breaker.NewRelationStore(store.Relations(), b), store.Close, nil
}
