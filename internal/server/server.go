// Package server provides HTTP server initialization and lifecycle
// management for the graph engine API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/DevPanatec/InfoPanama-sub001/internal/audit"
	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/export"
	"github.com/DevPanatec/InfoPanama-sub001/internal/graph"
	"github.com/DevPanatec/InfoPanama-sub001/internal/ingest"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/web/handlers"
)

// Services bundles everything the API serves. All fields are required.
type Services struct {
	Entities  storage.EntityStore
	Relations storage.RelationStore
	Resolver  *resolver.Resolver
	Curator   *resolver.Curator
	Processor *ingest.Processor
	Graph     *graph.Service
	Exporter  *export.Exporter
	Auditor   *audit.Auditor
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0) and the
// WebSocketHub for wiring graph-change broadcasts. The server shuts down
// gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, svc Services) (string, *handlers.WebSocketHub, error) {
	mux := http.NewServeMux()

	host := cfg.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}
	wsHub := handlers.NewWebSocketHub([]string{
		fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		fmt.Sprintf("localhost:%d", cfg.Server.Port),
	})
	go wsHub.Run()

	rateLimiter := handlers.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)

	entityHandlers := handlers.NewEntityHandlers(svc.Entities, svc.Resolver, svc.Curator, wsHub)
	relationHandlers := handlers.NewRelationHandlers(svc.Relations, wsHub)
	graphHandlers := handlers.NewGraphHandlers(svc.Graph)
	exportHandlers := handlers.NewExportHandlers(svc.Exporter)
	auditHandlers := handlers.NewAuditHandlers(svc.Auditor, wsHub)
	ingestHandlers := handlers.NewIngestHandlers(svc.Processor, wsHub)

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/entities", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			entityHandlers.ListEntities(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/entities/resolve", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			entityHandlers.ResolveEntity(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/entities/merge", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			entityHandlers.MergeEntities(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/entities/top", entityHandlers.TopEntities)
	apiMux.HandleFunc("/api/entities/stats", entityHandlers.EntityStats)
	apiMux.HandleFunc("/api/entities/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			entityHandlers.GetEntity(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/entities/{id}/review", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			entityHandlers.MarkReview(w, r)
		case http.MethodDelete:
			entityHandlers.UnmarkReview(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	apiMux.HandleFunc("/api/relations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			relationHandlers.ListRelations(w, r)
		case http.MethodPost:
			relationHandlers.UpsertRelation(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/relations/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			relationHandlers.GetRelation(w, r)
		case http.MethodDelete:
			relationHandlers.DeactivateRelation(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	apiMux.HandleFunc("/api/graph", graphHandlers.GetGraph)
	apiMux.HandleFunc("/api/graph/entities/{id}", graphHandlers.GetEntityGraph)
	apiMux.HandleFunc("/api/graph/stats", graphHandlers.GetGraphStats)
	apiMux.HandleFunc("/api/graph/metrics", graphHandlers.GetGraphMetrics)

	apiMux.HandleFunc("/api/export/json", exportHandlers.ExportJSON)
	apiMux.HandleFunc("/api/export/nodes.csv", exportHandlers.ExportNodesCSV)
	apiMux.HandleFunc("/api/export/edges.csv", exportHandlers.ExportEdgesCSV)
	apiMux.HandleFunc("/api/export/gexf", exportHandlers.ExportGEXF)

	apiMux.HandleFunc("/api/audit/orphans", auditHandlers.GetOrphans)
	apiMux.HandleFunc("/api/audit/cleanup", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			auditHandlers.GetCleanupPlan(w, r)
		case http.MethodPost:
			auditHandlers.RunCleanup(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	apiMux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandlers.PostBatch(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Health endpoint — no auth required, used by monitoring
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (origin validation handles security)
	mux.Handle("/ws", wsHub)

	// Wrap entire server with rate limiting, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}
