// Package graph composes the entity and relation stores into graph views:
// the full node universe, filtered neighborhoods, per-entity edge lists and
// aggregate statistics.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// Node is a graph view of one endpoint. For entity-kind nodes the fields
// come from the entity record; endpoints of other kinds (actors, sources,
// events live outside this engine) appear as id-and-kind stubs.
type Node struct {
	ID           string         `json:"id"`
	Kind         types.NodeKind `json:"kind"`
	Label        string         `json:"label"`
	Category     string         `json:"category"`
	MentionCount int            `json:"mentionCount"`
	Description  string         `json:"description"`
}

// View is a set of nodes plus the active edges among them.
type View struct {
	Nodes []Node            `json:"nodes"`
	Edges []*types.Relation `json:"edges"`
}

// EntityRelations partitions one node's active edges by direction.
type EntityRelations struct {
	Outgoing []*types.Relation `json:"outgoing"`
	Incoming []*types.Relation `json:"incoming"`
	Total    int               `json:"total"`
}

// Stats aggregates the active edge set.
type Stats struct {
	TotalNodes         int                        `json:"totalNodes"`
	TotalEdges         int                        `json:"totalEdges"`
	RelationTypeCounts map[types.RelationType]int `json:"relationTypeCounts"`
	AvgStrength        float64                    `json:"avgStrength"`
}

// Service answers read-only graph queries.
type Service struct {
	entities  storage.EntityStore
	relations storage.RelationStore
}

// NewService creates a Service.
func NewService(entities storage.EntityStore, relations storage.RelationStore) *Service {
	return &Service{entities: entities, relations: relations}
}

// FullGraph returns every entity as a node, isolated ones included, plus
// every active relation.
func (s *Service) FullGraph(ctx context.Context) (*View, error) {
	entities, err := s.entities.List(ctx, storage.EntityListOptions{})
	if err != nil {
		return nil, fmt.Errorf("graph: failed to load entities: %w", err)
	}
	edges, err := s.relations.List(ctx, storage.RelationListOptions{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("graph: failed to load relations: %w", err)
	}

	view := &View{Edges: edges}
	seen := make(map[types.NodeRef]bool, len(entities))
	for _, e := range entities {
		view.Nodes = append(view.Nodes, entityNode(e))
		seen[e.Ref()] = true
	}
	// Edges can touch nodes outside the entities collection.
	for _, edge := range edges {
		for _, ref := range []types.NodeRef{edge.Source, edge.Target} {
			if !seen[ref] {
				view.Nodes = append(view.Nodes, stubNode(ref))
				seen[ref] = true
			}
		}
	}
	return view, nil
}

// FilteredGraph returns at most limit active edges with strength ≥
// minStrength, optionally restricted to relationTypes, plus exactly the
// nodes those edges reference.
func (s *Service) FilteredGraph(ctx context.Context, limit int, minStrength float64, relationTypes []types.RelationType) (*View, error) {
	edges, err := s.relations.List(ctx, storage.RelationListOptions{
		ActiveOnly:  true,
		MinStrength: minStrength,
		Types:       relationTypes,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: failed to load filtered relations: %w", err)
	}

	view := &View{Edges: edges}
	seen := make(map[types.NodeRef]bool)
	for _, edge := range edges {
		for _, ref := range []types.NodeRef{edge.Source, edge.Target} {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			node, err := s.lookupNode(ctx, ref)
			if err != nil {
				return nil, err
			}
			view.Nodes = append(view.Nodes, node)
		}
	}
	return view, nil
}

// EntityRelations returns ref's active edges partitioned by direction.
func (s *Service) EntityRelations(ctx context.Context, ref types.NodeRef) (*EntityRelations, error) {
	outgoing, incoming, err := s.relations.ListByEndpoint(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("graph: failed to load relations for %s/%s: %w", ref.Kind, ref.ID, err)
	}
	return &EntityRelations{
		Outgoing: outgoing,
		Incoming: incoming,
		Total:    len(outgoing) + len(incoming),
	}, nil
}

// Stats aggregates over active relations only. Isolated entities do not
// count here; totalNodes is the number of distinct connected endpoints.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	edges, err := s.relations.List(ctx, storage.RelationListOptions{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("graph: failed to load relations: %w", err)
	}

	stats := &Stats{
		TotalEdges:         len(edges),
		RelationTypeCounts: make(map[types.RelationType]int),
	}
	endpoints := make(map[types.NodeRef]bool)
	var strengthSum float64
	for _, edge := range edges {
		endpoints[edge.Source] = true
		endpoints[edge.Target] = true
		stats.RelationTypeCounts[edge.Type]++
		strengthSum += edge.Strength
	}
	stats.TotalNodes = len(endpoints)
	if len(edges) > 0 {
		stats.AvgStrength = strengthSum / float64(len(edges))
	}
	return stats, nil
}

func (s *Service) lookupNode(ctx context.Context, ref types.NodeRef) (Node, error) {
	if ref.Kind != types.KindEntity {
		return stubNode(ref), nil
	}
	entity, err := s.entities.Get(ctx, ref.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return stubNode(ref), nil
	}
	if err != nil {
		return Node{}, fmt.Errorf("graph: failed to load entity %s: %w", ref.ID, err)
	}
	return entityNode(entity), nil
}

func entityNode(e *types.Entity) Node {
	node := Node{
		ID:           e.ID,
		Kind:         types.KindEntity,
		Label:        e.Name,
		Category:     string(e.Type),
		MentionCount: e.MentionCount,
	}
	if e.Metadata != nil {
		node.Description = e.Metadata.Description
	}
	return node
}

func stubNode(ref types.NodeRef) Node {
	return Node{ID: ref.ID, Kind: ref.Kind, Category: string(ref.Kind)}
}
