// Package audit inspects graph hygiene: entities with zero active relations
// and entities that never belonged in the graph at all.
package audit

import (
	"context"
	"fmt"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

const (
	orphanSampleLimit  = 50
	orphanPerTypeLimit = 20
)

// OrphanStats summarizes connectivity over the whole entity collection.
type OrphanStats struct {
	TotalEntities     int     `json:"totalEntities"`
	ConnectedEntities int     `json:"connectedEntities"`
	OrphanEntities    int     `json:"orphanEntities"`
	OrphanPercentage  float64 `json:"orphanPercentage"`
}

// OrphanEntity is one sampled orphan.
type OrphanEntity struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Type     types.EntityType      `json:"type"`
	Metadata *types.EntityMetadata `json:"metadata,omitempty"`
}

// OrphanGroup is the per-type breakdown. Entities is capped; Count is not.
type OrphanGroup struct {
	Type     types.EntityType `json:"type"`
	Count    int              `json:"count"`
	Entities []OrphanEntity   `json:"entities"`
}

// OrphanReport is the result of FindOrphans.
type OrphanReport struct {
	Stats         OrphanStats    `json:"stats"`
	OrphanSample  []OrphanEntity `json:"orphanSample"`
	OrphansByType []OrphanGroup  `json:"orphansByType"`
}

// Auditor runs read-only orphan analysis and the explicit cleanup
// maintenance operation.
type Auditor struct {
	entities  storage.EntityStore
	relations storage.RelationStore
}

// NewAuditor creates an Auditor.
func NewAuditor(entities storage.EntityStore, relations storage.RelationStore) *Auditor {
	return &Auditor{entities: entities, relations: relations}
}

// FindOrphans reports every entity that appears in no active relation. Only
// entity-kind endpoints count as connected; an entity referenced solely by
// inactive edges is an orphan.
func (a *Auditor) FindOrphans(ctx context.Context) (*OrphanReport, error) {
	entities, err := a.entities.List(ctx, storage.EntityListOptions{})
	if err != nil {
		return nil, fmt.Errorf("audit: failed to load entities: %w", err)
	}
	relations, err := a.relations.List(ctx, storage.RelationListOptions{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("audit: failed to load relations: %w", err)
	}

	connected := make(map[string]bool)
	for _, rel := range relations {
		if rel.Source.Kind == types.KindEntity {
			connected[rel.Source.ID] = true
		}
		if rel.Target.Kind == types.KindEntity {
			connected[rel.Target.ID] = true
		}
	}

	var orphans []*types.Entity
	for _, e := range entities {
		if !connected[e.ID] {
			orphans = append(orphans, e)
		}
	}

	report := &OrphanReport{
		Stats: OrphanStats{
			TotalEntities:     len(entities),
			ConnectedEntities: len(connected),
			OrphanEntities:    len(orphans),
		},
	}
	if len(entities) > 0 {
		report.Stats.OrphanPercentage = float64(len(orphans)) / float64(len(entities)) * 100
	}

	for i, orphan := range orphans {
		if i >= orphanSampleLimit {
			break
		}
		report.OrphanSample = append(report.OrphanSample, sampleEntity(orphan))
	}

	byType := make(map[types.EntityType][]*types.Entity)
	var typeOrder []types.EntityType
	for _, orphan := range orphans {
		if _, ok := byType[orphan.Type]; !ok {
			typeOrder = append(typeOrder, orphan.Type)
		}
		byType[orphan.Type] = append(byType[orphan.Type], orphan)
	}
	for _, t := range typeOrder {
		group := OrphanGroup{Type: t, Count: len(byType[t])}
		for i, orphan := range byType[t] {
			if i >= orphanPerTypeLimit {
				break
			}
			group.Entities = append(group.Entities, sampleEntity(orphan))
		}
		report.OrphansByType = append(report.OrphansByType, group)
	}

	return report, nil
}

func sampleEntity(e *types.Entity) OrphanEntity {
	return OrphanEntity{ID: e.ID, Name: e.Name, Type: e.Type, Metadata: e.Metadata}
}
