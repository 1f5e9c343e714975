// Package ingest consumes batches of entity candidates produced by the
// upstream extraction step and drives them through resolution and relation
// parsing.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/DevPanatec/InfoPanama-sub001/internal/relations"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// Batch is one article's worth of extracted candidates.
type Batch struct {
	ArticleID  string                  `json:"articleId"`
	Candidates []types.EntityCandidate `json:"candidates"`
}

// Report counts the outcomes of one batch.
type Report struct {
	Processed       int `json:"processed"`
	Created         int `json:"created"`
	Matched         int `json:"matched"`
	Skipped         int `json:"skipped"`
	NeedsReview     int `json:"needsReview"`
	RelationsStored int `json:"relationsStored"`
	Errors          int `json:"errors"`
}

// Processor resolves candidates into entities and materializes the relation
// metadata they carry.
type Processor struct {
	entities storage.EntityStore
	resolver *resolver.Resolver
	parser   *relations.Parser
	logger   *log.Logger
}

// NewProcessor creates a Processor. A nil logger falls back to the default
// logger.
func NewProcessor(entities storage.EntityStore, r *resolver.Resolver, parser *relations.Parser, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{entities: entities, resolver: r, parser: parser, logger: logger}
}

// Process runs every candidate in the batch. Per-candidate failures are
// counted and logged, never propagated: one bad candidate must not sink the
// batch. The returned error covers only batch-level problems.
func (p *Processor) Process(ctx context.Context, batch Batch) (Report, error) {
	var report Report

	for i := range batch.Candidates {
		cand := &batch.Candidates[i]
		report.Processed++

		entityType, ok := MapType(cand.Type)
		if !ok {
			p.logger.Printf("ingest: dropping candidate %q with unknown type token %q", cand.Name, cand.Type)
			report.Skipped++
			continue
		}

		res, err := p.resolver.Resolve(ctx, resolver.Mention{
			Name:      cand.Name,
			Type:      entityType,
			ArticleID: batch.ArticleID,
			Metadata:  cand.Metadata,
			Context:   cand.Context,
		})
		if err != nil {
			p.logger.Printf("ingest: failed to resolve %q: %v", cand.Name, err)
			report.Errors++
			continue
		}
		if res.Skipped {
			report.Skipped++
			continue
		}
		if res.Created {
			report.Created++
		} else {
			report.Matched++
		}
		if res.NeedsReview {
			report.NeedsReview++
		}

		if cand.Metadata == nil {
			continue
		}

		// Re-read so the parser sees the merged metadata, not just this
		// candidate's slice of it.
		entity, err := p.entities.Get(ctx, res.EntityID)
		if err != nil {
			p.logger.Printf("ingest: failed to reload entity %s: %v", res.EntityID, err)
			report.Errors++
			continue
		}
		parsed, err := p.parser.ProcessEntity(ctx, entity, batch.ArticleID)
		if err != nil {
			p.logger.Printf("ingest: relation parsing failed for %s: %v", entity.ID, err)
			report.Errors++
			continue
		}
		report.RelationsStored += parsed.Stored
	}

	return report, nil
}

// typeTokens maps the extraction step's raw type tokens onto entity types.
var typeTokens = map[string]types.EntityType{
	"PERSON":          types.EntityPerson,
	"POI":             types.EntityPerson,
	"ORGANIZATION":    types.EntityOrganization,
	"POLITICAL_PARTY": types.EntityOrganization,
	"INSTITUTION":     types.EntityOrganization,
	"MEDIA":           types.EntityOrganization,
	"LOCATION":        types.EntityLocation,
	"EVENT":           types.EntityEvent,
	"DATE":            types.EntityDate,
	"OTHER":           types.EntityOther,
}

// MapType translates an upstream type token. An empty token is valid and
// means "infer from the name"; an unknown token is rejected so malformed
// candidates never become placeholder entities.
func MapType(token string) (types.EntityType, bool) {
	if token == "" {
		return "", true
	}
	t, ok := typeTokens[strings.ToUpper(strings.TrimSpace(token))]
	return t, ok
}

// ProcessAll runs a sequence of batches and sums the reports.
func (p *Processor) ProcessAll(ctx context.Context, batches []Batch) (Report, error) {
	var total Report
	for _, batch := range batches {
		report, err := p.Process(ctx, batch)
		if err != nil {
			return total, fmt.Errorf("ingest: batch %s: %w", batch.ArticleID, err)
		}
		total.Processed += report.Processed
		total.Created += report.Created
		total.Matched += report.Matched
		total.Skipped += report.Skipped
		total.NeedsReview += report.NeedsReview
		total.RelationsStored += report.RelationsStored
		total.Errors += report.Errors
	}
	return total, nil
}
