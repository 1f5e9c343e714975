package resolver

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/normalize"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage/sqlite"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

func newTestResolver(t *testing.T) (*Resolver, *sqlite.EntityStore) {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"), config.MergeLastWrite)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	entities := store.Entities()
	cfg := config.MatchingConfig{SimilarityThreshold: 0.85, AmbiguityMargin: 0.02}
	return New(entities, cfg, log.New(io.Discard, "", 0)), entities
}

func TestResolveCreatesNewEntity(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	res, err := r.Resolve(ctx, Mention{Name: "José Raúl Mulino", Type: types.EntityPerson, ArticleID: "article-1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.Created || res.Skipped || res.NeedsReview {
		t.Errorf("Resolve() = %+v, want created", res)
	}

	got, err := entities.Get(ctx, res.EntityID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "José Raúl Mulino" || got.NormalizedName != "jose raul mulino" {
		t.Errorf("entity = %+v", got)
	}
	if got.MentionCount != 1 {
		t.Errorf("MentionCount = %d, want 1", got.MentionCount)
	}
	if len(got.MentionedIn) != 1 || got.MentionedIn[0] != "article-1" {
		t.Errorf("MentionedIn = %v", got.MentionedIn)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	first, err := r.Resolve(ctx, Mention{Name: "Ana Díaz", Type: types.EntityPerson})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := r.Resolve(ctx, Mention{Name: "Ana Díaz", Type: types.EntityPerson})
	if err != nil {
		t.Fatalf("Resolve() second error = %v", err)
	}
	if second.EntityID != first.EntityID {
		t.Fatalf("second resolve produced %s, want %s", second.EntityID, first.EntityID)
	}
	if second.Created {
		t.Error("second resolve reported Created")
	}

	got, err := entities.Get(ctx, first.EntityID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MentionCount != 2 {
		t.Errorf("MentionCount = %d, want 2", got.MentionCount)
	}
}

func TestResolveDedupAcrossSurfaceForms(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	// Same person through honorific, diacritic and case variation.
	forms := []string{"Dr. Juan Pérez", "Juan Perez", "JUAN PÉREZ"}
	var id string
	for _, form := range forms {
		res, err := r.Resolve(ctx, Mention{Name: form, Type: types.EntityPerson})
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", form, err)
		}
		if id == "" {
			id = res.EntityID
		} else if res.EntityID != id {
			t.Fatalf("Resolve(%q) = %s, want %s", form, res.EntityID, id)
		}
	}

	got, err := entities.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Type != types.EntityPerson {
		t.Errorf("Type = %s, want PERSON", got.Type)
	}
	if got.MentionCount != 3 {
		t.Errorf("MentionCount = %d, want 3", got.MentionCount)
	}
	if got.Name != "Dr. Juan Pérez" {
		t.Errorf("canonical name = %q, want first observed form", got.Name)
	}
	// Both later surface forms recorded as aliases.
	if !got.HasAlias("Juan Perez") || !got.HasAlias("JUAN PÉREZ") {
		t.Errorf("Aliases = %v", got.Aliases)
	}
}

func TestResolveSkipsGenericSpeakers(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	for _, name := range []string{"anónimo", "Fuentes", "testigos", ""} {
		res, err := r.Resolve(ctx, Mention{Name: name})
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", name, err)
		}
		if !res.Skipped {
			t.Errorf("Resolve(%q) = %+v, want skipped", name, res)
		}
		if res.EntityID != "" {
			t.Errorf("Resolve(%q) created an entity", name)
		}
	}
}

func TestResolveFuzzyMatch(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	first, err := r.Resolve(ctx, Mention{Name: "Ricardo Martinelli", Type: types.EntityPerson})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// One-character typo stays above the threshold.
	res, err := r.Resolve(ctx, Mention{Name: "Ricardo Martineli", Type: types.EntityPerson})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Created {
		t.Fatal("typo variant created a duplicate entity")
	}
	if res.EntityID != first.EntityID {
		t.Fatalf("typo resolved to %s, want %s", res.EntityID, first.EntityID)
	}
	if res.Similarity >= 1.0 || res.Similarity < 0.85 {
		t.Errorf("Similarity = %f, want fuzzy score in [0.85, 1.0)", res.Similarity)
	}

	got, err := entities.Get(ctx, first.EntityID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.HasAlias("Ricardo Martineli") {
		t.Errorf("aliases = %v, want variant recorded", got.Aliases)
	}
}

func TestResolveDistinctNamesStayDistinct(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	a, err := r.Resolve(ctx, Mention{Name: "Juan Perez", Type: types.EntityPerson})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, err := r.Resolve(ctx, Mention{Name: "Pedro Gomez", Type: types.EntityPerson})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if a.EntityID == b.EntityID {
		t.Error("dissimilar names merged into one entity")
	}
	if !b.Created {
		t.Error("second distinct name was not created")
	}
}

func TestResolveAmbiguousMatchFlagsReview(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	// Two near-identical entities seeded directly in the store (the
	// resolver itself would have merged them), then a mention between them.
	now := time.Now().UTC()
	for _, name := range []string{"Carlos Gonzalez A", "Carlos Gonzalez B"} {
		err := entities.Create(ctx, &types.Entity{
			ID:             uuid.New().String(),
			Name:           name,
			NormalizedName: normalize.Name(name),
			Type:           types.EntityPerson,
			MentionCount:   1,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	res, err := r.Resolve(ctx, Mention{Name: "Carlos Gonzalez C", Type: types.EntityPerson})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Created {
		t.Fatal("ambiguous mention created a duplicate")
	}
	if !res.NeedsReview {
		t.Fatal("ambiguous match not flagged for review")
	}

	winner, err := entities.Get(ctx, res.EntityID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !winner.MarkedForReview {
		t.Error("winning entity not marked for review")
	}
	if winner.ReviewRequestedAt == nil || winner.ReviewRequestedBy != "resolver" {
		t.Errorf("review fields = %v/%q", winner.ReviewRequestedAt, winner.ReviewRequestedBy)
	}
}

func TestResolveExactMatchWithCloseNeighborFlagsReview(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	// The second name is one edit away from the first over 51 characters,
	// scoring 0.980: inside the 0.02 margin of the exact match's 1.0.
	now := time.Now().UTC()
	names := []string{
		"Corporacion Panamena de Radiodifusion y Television",
		"Corporacion Panamena de Radiodifusion y Televisions",
	}
	for _, name := range names {
		err := entities.Create(ctx, &types.Entity{
			ID:             uuid.New().String(),
			Name:           name,
			NormalizedName: normalize.Name(name),
			Type:           types.EntityOrganization,
			MentionCount:   1,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	res, err := r.Resolve(ctx, Mention{Name: names[0], Type: types.EntityOrganization})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Created || res.Similarity != 1.0 {
		t.Fatalf("Resolve() = %+v, want exact match", res)
	}
	if !res.NeedsReview {
		t.Fatal("exact match with a neighbor inside the margin not flagged for review")
	}

	winner, err := entities.Get(ctx, res.EntityID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if winner.Name != names[0] {
		t.Errorf("resolved to %q, want the exact match", winner.Name)
	}
	if !winner.MarkedForReview {
		t.Error("exact-match entity not marked for review")
	}
}

func TestResolveMergesMetadata(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	first, err := r.Resolve(ctx, Mention{
		Name: "ACME Corp",
		Type: types.EntityOrganization,
		Metadata: &types.EntityMetadata{
			Description: "conglomerate",
			Owners:      []string{"Ana Díaz"},
		},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	_, err = r.Resolve(ctx, Mention{
		Name: "ACME Corp",
		Type: types.EntityOrganization,
		Metadata: &types.EntityMetadata{
			Description: "should not overwrite",
			Position:    "holding",
			Owners:      []string{"Luis Vega"},
			Connections: &types.Connections{Political: []string{"Partido Z"}},
		},
	})
	if err != nil {
		t.Fatalf("Resolve() second error = %v", err)
	}

	got, err := entities.Get(ctx, first.EntityID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	m := got.Metadata
	if m == nil {
		t.Fatal("metadata missing after merge")
	}
	if m.Description != "conglomerate" {
		t.Errorf("Description = %q, want original kept", m.Description)
	}
	if m.Position != "holding" {
		t.Errorf("Position = %q, want filled from second mention", m.Position)
	}
	if len(m.Owners) != 2 {
		t.Errorf("Owners = %v, want union of both", m.Owners)
	}
	if m.Connections == nil || len(m.Connections.Political) != 1 {
		t.Errorf("Connections = %+v", m.Connections)
	}
}

func TestResolveConcurrentSameName(t *testing.T) {
	r, entities := newTestResolver(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Resolve(ctx, Mention{Name: "Martín Torrijos", Type: types.EntityPerson})
			if err != nil {
				t.Errorf("Resolve() error = %v", err)
				return
			}
			ids[i] = res.EntityID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent resolves produced distinct ids: %v", ids)
		}
	}

	got, err := entities.Get(ctx, ids[0])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MentionCount != workers {
		t.Errorf("MentionCount = %d, want %d", got.MentionCount, workers)
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name string
		want types.EntityType
	}{
		{"Ministerio de Salud", types.EntityOrganization},
		{"Asamblea Nacional", types.EntityOrganization},
		{"Comisión Electoral", types.EntityOrganization},
		{"Banco General", types.EntityOrganization},
		{"Juan Carlos Varela", types.EntityPerson},
		{"Ana Díaz", types.EntityPerson},
		{"algo", types.EntityOther},
		{"Panamá", types.EntityOther},
	}
	for _, tt := range tests {
		if got := InferType(tt.name); got != tt.want {
			t.Errorf("InferType(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestIsGenericSpeaker(t *testing.T) {
	if !IsGenericSpeaker("anonimo") {
		t.Error("anonimo not recognized as generic")
	}
	if IsGenericSpeaker("jose raul mulino") {
		t.Error("real name flagged as generic")
	}
}
