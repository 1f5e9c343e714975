// Package resolver implements entity find-or-create: each raw mention is
// normalized, fuzzily matched against the known entities and either merged
// into the best match or created as a new canonical entity.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/normalize"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// Mention is one raw observation of an entity name.
type Mention struct {
	// Name is the surface form as extracted from the article.
	Name string

	// Type is the entity type when the upstream step knows it. Empty means
	// infer from the name.
	Type types.EntityType

	// ArticleID is recorded as evidence when set.
	ArticleID string

	// Metadata is merged additively into the matched or created entity.
	Metadata *types.EntityMetadata

	// Context is a free-text hint used for logging only.
	Context string
}

// Resolution is the outcome of resolving one mention.
type Resolution struct {
	// EntityID is the matched or created entity. Empty when Skipped.
	EntityID string

	// Created is true when no existing entity matched and a new one was
	// inserted.
	Created bool

	// NeedsReview is true when the match was ambiguous: a second candidate
	// scored within the ambiguity margin of the winner. The winner is also
	// marked for review in the store.
	NeedsReview bool

	// Skipped is true when the mention is degenerate (empty after
	// normalization, or a generic speaker token). Not an error.
	Skipped bool

	// Similarity is the winning score; 1.0 for exact matches and new
	// entities.
	Similarity float64
}

// Resolver serializes find-or-create per normalized name so concurrent
// mentions of the same name cannot race into duplicate entities.
type Resolver struct {
	entities storage.EntityStore
	cfg      config.MatchingConfig
	logger   *log.Logger

	mu    sync.Mutex
	locks map[string]*nameLock
}

type nameLock struct {
	sync.Mutex
	refs int
}

// New creates a Resolver. A nil logger falls back to the default logger.
func New(entities storage.EntityStore, cfg config.MatchingConfig, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		entities: entities,
		cfg:      cfg,
		logger:   logger,
		locks:    make(map[string]*nameLock),
	}
}

// Resolve matches the mention against the known entities and returns the
// canonical entity id, creating a new entity when nothing scores above the
// similarity threshold.
func (r *Resolver) Resolve(ctx context.Context, m Mention) (*Resolution, error) {
	normalized := normalize.Name(m.Name)
	if normalized == "" {
		return &Resolution{Skipped: true}, nil
	}
	if IsGenericSpeaker(normalized) {
		return &Resolution{Skipped: true}, nil
	}

	unlock := r.lockName(normalized)
	defer unlock()

	// Exact key match skips the find-or-create decision but still scans
	// for a near-identical neighbor: a second candidate inside the
	// ambiguity margin of 1.0 flags the match for review just as a
	// fuzzy win would.
	exact, err := r.entities.GetByNormalizedName(ctx, normalized)
	if err == nil {
		best, runnerUp, err := r.scan(ctx, normalized, m.Type)
		if err != nil {
			return nil, err
		}
		other := best
		if other.entity != nil && other.entity.ID == exact.ID {
			other = runnerUp
		}
		needsReview := other.entity != nil &&
			other.score >= r.cfg.SimilarityThreshold &&
			1.0-other.score <= r.cfg.AmbiguityMargin
		if needsReview {
			r.logger.Printf("resolver: ambiguous match for %q: exact %q vs %q (%.3f), flagging for review",
				m.Name, exact.Name, other.entity.Name, other.score)
			r.flagForReview(exact)
		}
		if err := r.patch(ctx, exact, m); err != nil {
			return nil, err
		}
		return &Resolution{EntityID: exact.ID, NeedsReview: needsReview, Similarity: 1.0}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("resolver: exact lookup failed: %w", err)
	}

	best, runnerUp, err := r.scan(ctx, normalized, m.Type)
	if err != nil {
		return nil, err
	}

	if best.entity != nil && best.score >= r.cfg.SimilarityThreshold {
		needsReview := runnerUp.entity != nil &&
			runnerUp.score >= r.cfg.SimilarityThreshold &&
			best.score-runnerUp.score <= r.cfg.AmbiguityMargin
		if needsReview {
			r.logger.Printf("resolver: ambiguous match for %q: %q (%.3f) vs %q (%.3f), flagging for review",
				m.Name, best.entity.Name, best.score, runnerUp.entity.Name, runnerUp.score)
			r.flagForReview(best.entity)
		}
		if err := r.patch(ctx, best.entity, m); err != nil {
			return nil, err
		}
		return &Resolution{
			EntityID:    best.entity.ID,
			NeedsReview: needsReview,
			Similarity:  best.score,
		}, nil
	}

	entity, err := r.create(ctx, m, normalized)
	if err != nil {
		return nil, err
	}
	return &Resolution{EntityID: entity.ID, Created: true, Similarity: 1.0}, nil
}

type scored struct {
	entity *types.Entity
	score  float64
}

// scan computes similarity against the candidate pool and returns the two
// best candidates. Ties on score break toward the most recently updated
// entity; List order makes the result deterministic beyond that.
func (r *Resolver) scan(ctx context.Context, normalized string, entityType types.EntityType) (best, runnerUp scored, err error) {
	opts := storage.EntityListOptions{}
	if r.cfg.ScopeToType && entityType != "" {
		opts.Type = entityType
	}
	pool, err := r.entities.List(ctx, opts)
	if err != nil {
		return scored{}, scored{}, fmt.Errorf("resolver: failed to load candidate pool: %w", err)
	}

	for _, candidate := range pool {
		score := normalize.Similarity(normalized, candidate.NormalizedName)
		s := scored{candidate, score}
		if better(s, best) {
			best, runnerUp = s, best
		} else if better(s, runnerUp) {
			runnerUp = s
		}
	}
	return best, runnerUp, nil
}

func better(a, b scored) bool {
	if b.entity == nil {
		return a.entity != nil
	}
	if a.score != b.score {
		return a.score > b.score
	}
	return a.entity.UpdatedAt.After(b.entity.UpdatedAt)
}

// patch merges the mention into an existing entity: new surface forms
// become aliases, the mention count grows, metadata merges additively.
func (r *Resolver) patch(ctx context.Context, entity *types.Entity, m Mention) error {
	if m.Name != entity.Name && !entity.HasAlias(m.Name) {
		entity.Aliases = append(entity.Aliases, m.Name)
	}
	entity.MentionCount++
	if m.ArticleID != "" {
		entity.MentionedIn = storage.UnionStrings(entity.MentionedIn, []string{m.ArticleID})
	}
	mergeMetadata(entity, m.Metadata)
	entity.UpdatedAt = time.Now().UTC()

	if err := r.entities.Update(ctx, entity); err != nil {
		return fmt.Errorf("resolver: failed to patch entity %s: %w", entity.ID, err)
	}
	return nil
}

// flagForReview marks the entity so an operator can confirm or split the
// ambiguous merge later. The Update in patch persists the flag.
func (r *Resolver) flagForReview(entity *types.Entity) {
	if entity.MarkedForReview {
		return
	}
	now := time.Now().UTC()
	entity.MarkedForReview = true
	entity.ReviewRequestedAt = &now
	entity.ReviewRequestedBy = "resolver"
}

func (r *Resolver) create(ctx context.Context, m Mention, normalized string) (*types.Entity, error) {
	entityType := m.Type
	if !types.ValidEntityType(entityType) {
		entityType = InferType(m.Name)
	}

	now := time.Now().UTC()
	entity := &types.Entity{
		ID:             uuid.New().String(),
		Name:           m.Name,
		NormalizedName: normalized,
		Type:           entityType,
		MentionCount:   1,
		Metadata:       m.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if m.ArticleID != "" {
		entity.MentionedIn = []string{m.ArticleID}
	}

	err := r.entities.Create(ctx, entity)
	if errors.Is(err, storage.ErrConflict) {
		// Lost a race with another writer outside our lock (e.g. a second
		// process on a shared database). Merge into the winner instead.
		existing, gerr := r.entities.GetByNormalizedName(ctx, normalized)
		if gerr != nil {
			return nil, fmt.Errorf("resolver: conflict recovery failed: %w", gerr)
		}
		if perr := r.patch(ctx, existing, m); perr != nil {
			return nil, perr
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolver: failed to create entity: %w", err)
	}
	return entity, nil
}

// mergeMetadata folds src into the entity additively: non-empty scalars fill
// empty fields, lists are unioned, existing data is never truncated.
func mergeMetadata(entity *types.Entity, src *types.EntityMetadata) {
	if src == nil {
		return
	}
	if entity.Metadata == nil {
		entity.Metadata = &types.EntityMetadata{}
	}
	dst := entity.Metadata

	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Position == "" {
		dst.Position = src.Position
	}
	if dst.Affiliation == "" {
		dst.Affiliation = src.Affiliation
	}
	dst.Owners = storage.UnionStrings(dst.Owners, src.Owners)

	if src.Connections != nil && !src.Connections.Empty() {
		if dst.Connections == nil {
			dst.Connections = &types.Connections{}
		}
		dst.Connections.Political = storage.UnionStrings(dst.Connections.Political, src.Connections.Political)
		dst.Connections.Family = storage.UnionStrings(dst.Connections.Family, src.Connections.Family)
		dst.Connections.Companies = storage.UnionStrings(dst.Connections.Companies, src.Connections.Companies)
	}
}

// lockName acquires the per-name lock, creating it on first use and
// dropping it from the table once the last holder releases it.
func (r *Resolver) lockName(normalized string) func() {
	r.mu.Lock()
	l, ok := r.locks[normalized]
	if !ok {
		l = &nameLock{}
		r.locks[normalized] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, normalized)
		}
		r.mu.Unlock()
	}
}
