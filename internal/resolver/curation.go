package resolver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// Curator performs the manual maintenance operations an operator runs after
// reviewing the graph: merging a duplicate entity into its primary and
// setting or clearing the review flag.
type Curator struct {
	entities  storage.EntityStore
	relations storage.RelationStore
	logger    *log.Logger
}

// NewCurator creates a Curator. A nil logger falls back to the default
// logger.
func NewCurator(entities storage.EntityStore, relations storage.RelationStore, logger *log.Logger) *Curator {
	if logger == nil {
		logger = log.Default()
	}
	return &Curator{entities: entities, relations: relations, logger: logger}
}

// MergeReport summarizes one explicit merge.
type MergeReport struct {
	PrimaryID        string `json:"primary_id"`
	RelationsMoved   int    `json:"relations_moved"`
	RelationsDropped int    `json:"relations_dropped"`
}

// Merge folds the duplicate entity into the primary: the duplicate's name
// and aliases become aliases of the primary, mention counts sum, evidence
// and metadata union, and every active relation touching the duplicate is
// re-pointed at the primary through the normal upsert path. The duplicate
// row is then removed. Edges that would become self-loops are dropped.
func (c *Curator) Merge(ctx context.Context, primaryID, duplicateID string) (*MergeReport, error) {
	if primaryID == duplicateID {
		return nil, fmt.Errorf("%w: cannot merge an entity into itself", storage.ErrInvalidInput)
	}

	primary, err := c.entities.Get(ctx, primaryID)
	if err != nil {
		return nil, fmt.Errorf("resolver: failed to load primary entity: %w", err)
	}
	duplicate, err := c.entities.Get(ctx, duplicateID)
	if err != nil {
		return nil, fmt.Errorf("resolver: failed to load duplicate entity: %w", err)
	}

	for _, name := range append([]string{duplicate.Name}, duplicate.Aliases...) {
		if !primary.HasAlias(name) {
			primary.Aliases = append(primary.Aliases, name)
		}
	}
	primary.MentionCount += duplicate.MentionCount
	primary.MentionedIn = storage.UnionStrings(primary.MentionedIn, duplicate.MentionedIn)
	mergeMetadata(primary, duplicate.Metadata)
	primary.UpdatedAt = time.Now().UTC()

	report := &MergeReport{PrimaryID: primary.ID}
	if err := c.moveRelations(ctx, duplicate, primary, report); err != nil {
		return nil, err
	}

	if err := c.entities.Update(ctx, primary); err != nil {
		return nil, fmt.Errorf("resolver: failed to update primary entity: %w", err)
	}
	if err := c.entities.Delete(ctx, duplicateID); err != nil {
		return nil, fmt.Errorf("resolver: failed to remove duplicate entity: %w", err)
	}
	c.logger.Printf("resolver: merged entity %s (%q) into %s (%q), moved %d relations",
		duplicateID, duplicate.Name, primaryID, primary.Name, report.RelationsMoved)
	return report, nil
}

// moveRelations re-points the duplicate's active edges at the
// primary. The upsert path merges evidence when the primary already has an
// edge in the same slot.
func (c *Curator) moveRelations(ctx context.Context, duplicate, primary *types.Entity, report *MergeReport) error {
	outgoing, incoming, err := c.relations.ListByEndpoint(ctx, duplicate.Ref())
	if err != nil {
		return fmt.Errorf("resolver: failed to list duplicate relations: %w", err)
	}

	for _, rel := range outgoing {
		if err := c.relations.Deactivate(ctx, rel.ID); err != nil {
			return fmt.Errorf("resolver: failed to deactivate relation %s: %w", rel.ID, err)
		}
		target := rel.Target
		if target == duplicate.Ref() {
			target = primary.Ref()
		}
		if target == primary.Ref() {
			report.RelationsDropped++
			continue
		}
		if _, err := c.relations.Upsert(ctx, &types.RelationCandidate{
			Source:           primary.Ref(),
			Target:           target,
			Type:             rel.Type,
			Strength:         rel.Strength,
			Confidence:       rel.Confidence,
			Context:          rel.Context,
			EvidenceArticles: rel.EvidenceArticles,
		}); err != nil {
			return fmt.Errorf("resolver: failed to re-point relation %s: %w", rel.ID, err)
		}
		report.RelationsMoved++
	}

	for _, rel := range incoming {
		if err := c.relations.Deactivate(ctx, rel.ID); err != nil {
			return fmt.Errorf("resolver: failed to deactivate relation %s: %w", rel.ID, err)
		}
		if rel.Source == primary.Ref() {
			report.RelationsDropped++
			continue
		}
		if _, err := c.relations.Upsert(ctx, &types.RelationCandidate{
			Source:           rel.Source,
			Target:           primary.Ref(),
			Type:             rel.Type,
			Strength:         rel.Strength,
			Confidence:       rel.Confidence,
			Context:          rel.Context,
			EvidenceArticles: rel.EvidenceArticles,
		}); err != nil {
			return fmt.Errorf("resolver: failed to re-point relation %s: %w", rel.ID, err)
		}
		report.RelationsMoved++
	}
	return nil
}

// MarkForReview flags an entity for manual review.
func (c *Curator) MarkForReview(ctx context.Context, id, requestedBy string) error {
	entity, err := c.entities.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("resolver: failed to load entity: %w", err)
	}
	if entity.MarkedForReview {
		return nil
	}
	now := time.Now().UTC()
	entity.MarkedForReview = true
	entity.ReviewRequestedAt = &now
	if requestedBy == "" {
		requestedBy = "operator"
	}
	entity.ReviewRequestedBy = requestedBy
	entity.UpdatedAt = now
	if err := c.entities.Update(ctx, entity); err != nil {
		return fmt.Errorf("resolver: failed to flag entity %s: %w", id, err)
	}
	return nil
}

// UnmarkForReview clears the review flag after an operator resolves it.
func (c *Curator) UnmarkForReview(ctx context.Context, id string) error {
	entity, err := c.entities.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("resolver: failed to load entity: %w", err)
	}
	if !entity.MarkedForReview {
		return nil
	}
	entity.MarkedForReview = false
	entity.ReviewRequestedAt = nil
	entity.ReviewRequestedBy = ""
	entity.UpdatedAt = time.Now().UTC()
	if err := c.entities.Update(ctx, entity); err != nil {
		return fmt.Errorf("resolver: failed to clear review flag on %s: %w", id, err)
	}
	return nil
}
