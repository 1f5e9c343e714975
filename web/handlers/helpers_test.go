package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/DevPanatec/InfoPanama-sub001/internal/audit"
	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/export"
	"github.com/DevPanatec/InfoPanama-sub001/internal/graph"
	"github.com/DevPanatec/InfoPanama-sub001/internal/ingest"
	"github.com/DevPanatec/InfoPanama-sub001/internal/normalize"
	"github.com/DevPanatec/InfoPanama-sub001/internal/relations"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/sqlite"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// testEnv wires every handler against one temporary SQLite database.
type testEnv struct {
	store     *sqlite.Store
	hub       *WebSocketHub
	entities  *EntityHandlers
	relations *RelationHandlers
	graphs    *GraphHandlers
	exports   *ExportHandlers
	audits    *AuditHandlers
	ingests   *IngestHandlers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"), config.MergeLastWrite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := log.New(io.Discard, "", 0)
	matching := config.MatchingConfig{SimilarityThreshold: 0.85, AmbiguityMargin: 0.02}
	res := resolver.New(store.Entities(), matching, logger)
	curator := resolver.NewCurator(store.Entities(), store.Relations(), logger)
	parser := relations.NewParser(res, store.Relations(), logger)
	processor := ingest.NewProcessor(store.Entities(), res, parser, logger)
	service := graph.NewService(store.Entities(), store.Relations())
	exporter := export.NewExporter(service)
	auditor := audit.NewAuditor(store.Entities(), store.Relations())
	hub := NewWebSocketHub(nil)

	return &testEnv{
		store:     store,
		hub:       hub,
		entities:  NewEntityHandlers(store.Entities(), res, curator, hub),
		relations: NewRelationHandlers(store.Relations(), hub),
		graphs:    NewGraphHandlers(service),
		exports:   NewExportHandlers(exporter),
		audits:    NewAuditHandlers(auditor, hub),
		ingests:   NewIngestHandlers(processor, hub),
	}
}

// createEntity inserts an entity directly, bypassing the resolver.
func (env *testEnv) createEntity(t *testing.T, name string, typ types.EntityType) *types.Entity {
	t.Helper()
	now := time.Now().UTC()
	e := &types.Entity{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: normalize.Name(name),
		Type:           typ,
		MentionCount:   1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, env.store.Entities().Create(context.Background(), e))
	return e
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decode unmarshals a recorded JSON response body into out.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
