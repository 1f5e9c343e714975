package relations

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/normalize"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/sqlite"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

type fixture struct {
	entities  *sqlite.EntityStore
	relations *sqlite.RelationStore
	resolver  *resolver.Resolver
	parser    *Parser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"), config.MergeLastWrite)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(io.Discard, "", 0)
	cfg := config.MatchingConfig{SimilarityThreshold: 0.85, AmbiguityMargin: 0.02}
	r := resolver.New(store.Entities(), cfg, logger)
	return &fixture{
		entities:  store.Entities(),
		relations: store.Relations(),
		resolver:  r,
		parser:    NewParser(r, store.Relations(), logger),
	}
}

func (f *fixture) createEntity(t *testing.T, name string, typ types.EntityType, meta *types.EntityMetadata) *types.Entity {
	t.Helper()
	now := time.Now().UTC()
	e := &types.Entity{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: normalize.Name(name),
		Type:           typ,
		MentionCount:   1,
		Metadata:       meta,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := f.entities.Create(context.Background(), e); err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return e
}

func TestParseOwners(t *testing.T) {
	entity := &types.Entity{
		ID:   "acme",
		Name: "ACME Corp",
		Metadata: &types.EntityMetadata{
			Owners: []string{"Ana Díaz", "Luis Vega"},
		},
	}

	cands := Parse(entity)
	if len(cands) != 2 {
		t.Fatalf("Parse() returned %d candidates, want 2", len(cands))
	}
	for _, c := range cands {
		if c.relType != types.RelationOwns {
			t.Errorf("relType = %s, want owns", c.relType)
		}
		if c.strength != 1.0 || c.confidence != 0.95 {
			t.Errorf("owns defaults = %f/%f, want 1.0/0.95", c.strength, c.confidence)
		}
		if !c.reversed {
			t.Error("ownership candidate not reversed (owner must be the source)")
		}
	}
}

func TestParseConnections(t *testing.T) {
	entity := &types.Entity{
		ID:   "x",
		Name: "Carlos Pérez",
		Metadata: &types.EntityMetadata{
			Connections: &types.Connections{
				Political: []string{"Partido Y (fundador)"},
				Family:    []string{"María Pérez"},
				Companies: []string{"Constructora Z"},
			},
		},
	}

	cands := Parse(entity)
	if len(cands) != 3 {
		t.Fatalf("Parse() returned %d candidates, want 3", len(cands))
	}

	want := map[types.RelationType][2]float64{
		types.RelationPoliticalConnection: {0.8, 0.9},
		types.RelationFamily:              {0.9, 0.95},
		types.RelationBusiness:            {0.85, 0.9},
	}
	for _, c := range cands {
		defaults, ok := want[c.relType]
		if !ok {
			t.Errorf("unexpected relType %s", c.relType)
			continue
		}
		if c.strength != defaults[0] || c.confidence != defaults[1] {
			t.Errorf("%s defaults = %f/%f, want %v", c.relType, c.strength, c.confidence, defaults)
		}
		if c.reversed {
			t.Errorf("%s candidate reversed, want entity as source", c.relType)
		}
	}
}

func TestParseEmptyMetadata(t *testing.T) {
	if got := Parse(&types.Entity{ID: "x", Name: "X"}); got != nil {
		t.Errorf("Parse() = %v, want nil", got)
	}
	if got := Parse(nil); got != nil {
		t.Errorf("Parse(nil) = %v, want nil", got)
	}
}

func TestProcessEntityOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acme := f.createEntity(t, "ACME Corp", types.EntityOrganization, &types.EntityMetadata{
		Owners: []string{"Ana Díaz"},
	})

	report, err := f.parser.ProcessEntity(ctx, acme, "article-1")
	if err != nil {
		t.Fatalf("ProcessEntity() error = %v", err)
	}
	if report.Stored != 1 || report.Skipped != 0 {
		t.Fatalf("report = %+v, want 1 stored", report)
	}

	// The owner was auto-created as a PERSON.
	owner, err := f.entities.GetByNormalizedName(ctx, "ana diaz")
	if err != nil {
		t.Fatalf("owner lookup error = %v", err)
	}
	if owner.Type != types.EntityPerson {
		t.Errorf("owner type = %s, want PERSON", owner.Type)
	}

	// Edge points from owner to owned company.
	outgoing, incoming, err := f.relations.ListByEndpoint(ctx, acme.Ref())
	if err != nil {
		t.Fatalf("ListByEndpoint() error = %v", err)
	}
	if len(outgoing) != 0 {
		t.Errorf("outgoing = %v, want none", outgoing)
	}
	if len(incoming) != 1 {
		t.Fatalf("incoming = %v, want one owns edge", incoming)
	}
	edge := incoming[0]
	if edge.Type != types.RelationOwns || edge.Source.ID != owner.ID {
		t.Errorf("edge = %+v, want owns from %s", edge, owner.ID)
	}
	if edge.Strength != 1.0 || edge.Confidence != 0.95 {
		t.Errorf("edge weights = %f/%f", edge.Strength, edge.Confidence)
	}
	if len(edge.EvidenceArticles) != 1 || edge.EvidenceArticles[0] != "article-1" {
		t.Errorf("evidence = %v", edge.EvidenceArticles)
	}
}

func TestProcessEntityStripsDescriptor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	person := f.createEntity(t, "Carlos Pérez", types.EntityPerson, &types.EntityMetadata{
		Connections: &types.Connections{
			Political: []string{"Partido Alianza (fundador)"},
		},
	})

	report, err := f.parser.ProcessEntity(ctx, person, "article-2")
	if err != nil {
		t.Fatalf("ProcessEntity() error = %v", err)
	}
	if report.Stored != 1 {
		t.Fatalf("report = %+v, want 1 stored", report)
	}

	// Descriptor stripped before resolution, kept in the edge context.
	party, err := f.entities.GetByNormalizedName(ctx, "partido alianza")
	if err != nil {
		t.Fatalf("party lookup error = %v", err)
	}
	if party.Type != types.EntityOrganization {
		t.Errorf("party type = %s, want ORGANIZATION", party.Type)
	}

	outgoing, _, err := f.relations.ListByEndpoint(ctx, person.Ref())
	if err != nil {
		t.Fatalf("ListByEndpoint() error = %v", err)
	}
	if len(outgoing) != 1 {
		t.Fatalf("outgoing = %v, want one edge", outgoing)
	}
	if outgoing[0].Context != "Partido Alianza (fundador)" {
		t.Errorf("context = %q, want raw connection string", outgoing[0].Context)
	}
}

func TestProcessEntityDropsUnresolvable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entity := f.createEntity(t, "Empresa Q", types.EntityOrganization, &types.EntityMetadata{
		Owners: []string{"", "fuentes", "Ana Díaz"},
	})

	report, err := f.parser.ProcessEntity(ctx, entity, "article-3")
	if err != nil {
		t.Fatalf("ProcessEntity() error = %v", err)
	}
	if report.Parsed != 3 || report.Stored != 1 || report.Skipped != 2 {
		t.Errorf("report = %+v, want 3 parsed / 1 stored / 2 skipped", report)
	}

	active, err := f.relations.List(ctx, storage.RelationListOptions{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 {
		t.Errorf("active relations = %d, want 1 (no dangling edges)", len(active))
	}
}

func TestProcessEntityIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entity := f.createEntity(t, "ACME Corp", types.EntityOrganization, &types.EntityMetadata{
		Owners: []string{"Ana Díaz"},
	})

	if _, err := f.parser.ProcessEntity(ctx, entity, "article-1"); err != nil {
		t.Fatalf("ProcessEntity() error = %v", err)
	}
	if _, err := f.parser.ProcessEntity(ctx, entity, "article-2"); err != nil {
		t.Fatalf("ProcessEntity() second error = %v", err)
	}

	active, err := f.relations.List(ctx, storage.RelationListOptions{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active relations = %d, want 1 (merged, not duplicated)", len(active))
	}
	if active[0].EvidenceCount != 2 {
		t.Errorf("EvidenceCount = %d, want 2", active[0].EvidenceCount)
	}
}
