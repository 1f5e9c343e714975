package ingest

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/relations"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/sqlite"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

func newTestProcessor(t *testing.T) (*Processor, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"), config.MergeLastWrite)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(io.Discard, "", 0)
	cfg := config.MatchingConfig{SimilarityThreshold: 0.85, AmbiguityMargin: 0.02}
	r := resolver.New(store.Entities(), cfg, logger)
	parser := relations.NewParser(r, store.Relations(), logger)
	return NewProcessor(store.Entities(), r, parser, logger), store
}

func TestProcessBatch(t *testing.T) {
	p, store := newTestProcessor(t)
	ctx := context.Background()

	batch := Batch{
		ArticleID: "article-1",
		Candidates: []types.EntityCandidate{
			{Name: "José Raúl Mulino", Type: "PERSON"},
			{Name: "Asamblea Nacional", Type: "INSTITUTION"},
			{
				Name: "ACME Corp",
				Type: "ORGANIZATION",
				Metadata: &types.EntityMetadata{
					Owners: []string{"Ana Díaz"},
				},
			},
		},
	}

	report, err := p.Process(ctx, batch)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if report.Processed != 3 || report.Created != 3 || report.Errors != 0 {
		t.Errorf("report = %+v, want 3 processed and created", report)
	}
	if report.RelationsStored != 1 {
		t.Errorf("RelationsStored = %d, want 1 (owns edge)", report.RelationsStored)
	}

	stats, err := store.Entities().Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	// Three candidates plus the auto-created owner.
	if stats.Total != 4 {
		t.Errorf("entity total = %d, want 4", stats.Total)
	}
	if stats.ByType[types.EntityOrganization] != 2 {
		t.Errorf("organizations = %d, want 2 (INSTITUTION maps to ORGANIZATION)", stats.ByType[types.EntityOrganization])
	}
}

func TestProcessDropsUnknownTypeToken(t *testing.T) {
	p, store := newTestProcessor(t)
	ctx := context.Background()

	report, err := p.Process(ctx, Batch{
		ArticleID: "article-1",
		Candidates: []types.EntityCandidate{
			{Name: "Algo Raro", Type: "GIBBERISH"},
			{Name: "Juan Pérez", Type: "PERSON"},
		},
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if report.Skipped != 1 || report.Created != 1 {
		t.Errorf("report = %+v, want 1 skipped / 1 created", report)
	}

	stats, err := store.Entities().Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("entity total = %d, want 1 (no placeholder for unknown type)", stats.Total)
	}
}

func TestProcessRepeatBatchIsIdempotent(t *testing.T) {
	p, store := newTestProcessor(t)
	ctx := context.Background()

	batch := Batch{
		ArticleID: "article-1",
		Candidates: []types.EntityCandidate{
			{
				Name: "ACME Corp",
				Type: "ORGANIZATION",
				Metadata: &types.EntityMetadata{
					Owners: []string{"Ana Díaz"},
				},
			},
		},
	}
	if _, err := p.Process(ctx, batch); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	second, err := p.Process(ctx, batch)
	if err != nil {
		t.Fatalf("Process() second error = %v", err)
	}
	if second.Created != 0 || second.Matched != 1 {
		t.Errorf("second report = %+v, want 1 matched", second)
	}

	active, err := store.Relations().List(ctx, storage.RelationListOptions{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 {
		t.Errorf("active relations = %d, want 1", len(active))
	}
}

func TestProcessAllSumsReports(t *testing.T) {
	p, _ := newTestProcessor(t)

	total, err := p.ProcessAll(context.Background(), []Batch{
		{ArticleID: "a1", Candidates: []types.EntityCandidate{{Name: "Juan Pérez", Type: "PERSON"}}},
		{ArticleID: "a2", Candidates: []types.EntityCandidate{{Name: "Juan Perez", Type: "PERSON"}}},
	})
	if err != nil {
		t.Fatalf("ProcessAll() error = %v", err)
	}
	if total.Processed != 2 || total.Created != 1 || total.Matched != 1 {
		t.Errorf("total = %+v, want 2 processed / 1 created / 1 matched", total)
	}
}

func TestMapType(t *testing.T) {
	tests := []struct {
		token string
		want  types.EntityType
		ok    bool
	}{
		{"PERSON", types.EntityPerson, true},
		{"POI", types.EntityPerson, true},
		{"POLITICAL_PARTY", types.EntityOrganization, true},
		{"INSTITUTION", types.EntityOrganization, true},
		{"MEDIA", types.EntityOrganization, true},
		{"media", types.EntityOrganization, true},
		{" LOCATION ", types.EntityLocation, true},
		{"", "", true},
		{"NONSENSE", "", false},
	}
	for _, tt := range tests {
		got, ok := MapType(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MapType(%q) = (%s, %v), want (%s, %v)", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}
