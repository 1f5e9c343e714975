// Package relations turns the free-form relationship metadata attached to
// an entity (owners, political/family/business connections) into typed,
// directed relation candidates and stores them as graph edges.
package relations

import (
	"context"
	"fmt"
	"log"

	"github.com/DevPanatec/InfoPanama-sub001/internal/normalize"
	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// Default strength/confidence per metadata section.
const (
	ownsStrength   = 1.0
	ownsConfidence = 0.95

	politicalStrength   = 0.8
	politicalConfidence = 0.9

	familyStrength   = 0.9
	familyConfidence = 0.95

	businessStrength   = 0.85
	businessConfidence = 0.9
)

// namedCandidate is a relation candidate whose counterpart is still a raw
// name, not yet resolved to an entity id.
type namedCandidate struct {
	counterpart string
	relType     types.RelationType
	strength    float64
	confidence  float64
	context     string

	// reversed means the counterpart is the source (ownership points from
	// owner to owned).
	reversed bool
}

// Parse extracts the relation candidates embedded in the entity's metadata.
// Pure: no resolution, no storage.
func Parse(entity *types.Entity) []namedCandidate {
	if entity == nil || entity.Metadata == nil {
		return nil
	}
	m := entity.Metadata
	var out []namedCandidate

	for _, owner := range m.Owners {
		out = append(out, namedCandidate{
			counterpart: owner,
			relType:     types.RelationOwns,
			strength:    ownsStrength,
			confidence:  ownsConfidence,
			context:     fmt.Sprintf("%s es dueño/accionista de %s", owner, entity.Name),
			reversed:    true,
		})
	}

	if c := m.Connections; c != nil {
		for _, name := range c.Political {
			out = append(out, namedCandidate{
				counterpart: name,
				relType:     types.RelationPoliticalConnection,
				strength:    politicalStrength,
				confidence:  politicalConfidence,
				context:     name,
			})
		}
		for _, name := range c.Family {
			out = append(out, namedCandidate{
				counterpart: name,
				relType:     types.RelationFamily,
				strength:    familyStrength,
				confidence:  familyConfidence,
				context:     name,
			})
		}
		for _, name := range c.Companies {
			out = append(out, namedCandidate{
				counterpart: name,
				relType:     types.RelationBusiness,
				strength:    businessStrength,
				confidence:  businessConfidence,
				context:     name,
			})
		}
	}
	return out
}

// Parser resolves relation candidates against the entity collection and
// stores them as directed edges.
type Parser struct {
	resolver  *resolver.Resolver
	relations storage.RelationStore
	logger    *log.Logger
}

// NewParser creates a Parser. A nil logger falls back to the default logger.
func NewParser(r *resolver.Resolver, relations storage.RelationStore, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{resolver: r, relations: relations, logger: logger}
}

// Report summarizes one ProcessEntity call.
type Report struct {
	Parsed  int
	Stored  int
	Skipped int
}

// ProcessEntity parses the entity's metadata and upserts one edge per
// resolvable candidate. Counterparts that fail resolution are skipped, not
// stored as dangling edges; a single bad candidate never fails the batch.
func (p *Parser) ProcessEntity(ctx context.Context, entity *types.Entity, articleID string) (Report, error) {
	var report Report
	if entity == nil {
		return report, fmt.Errorf("relations: entity is required")
	}

	for _, cand := range Parse(entity) {
		report.Parsed++

		// Trailing parenthetical descriptors ("Partido X (fundador)") are
		// part of the context but not of the counterpart's name.
		name := normalize.StripDescriptor(cand.counterpart)
		res, err := p.resolver.Resolve(ctx, resolver.Mention{Name: name, ArticleID: articleID})
		if err != nil {
			p.logger.Printf("relations: failed to resolve counterpart %q for %s: %v", name, entity.ID, err)
			report.Skipped++
			continue
		}
		if res.Skipped || res.EntityID == entity.ID {
			report.Skipped++
			continue
		}

		source, target := entity.Ref(), types.EntityRef(res.EntityID)
		if cand.reversed {
			source, target = target, source
		}

		upsert := &types.RelationCandidate{
			Source:     source,
			Target:     target,
			Type:       cand.relType,
			Strength:   cand.strength,
			Confidence: cand.confidence,
			Context:    cand.context,
		}
		if articleID != "" {
			upsert.EvidenceArticles = []string{articleID}
		}

		if _, err := p.relations.Upsert(ctx, upsert); err != nil {
			p.logger.Printf("relations: failed to upsert %s edge for %s: %v", cand.relType, entity.ID, err)
			report.Skipped++
			continue
		}
		report.Stored++
	}
	return report, nil
}
