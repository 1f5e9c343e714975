package graph

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// NodeMetrics holds per-node connectivity measures computed over the
// active edge set.
type NodeMetrics struct {
	Node           types.NodeRef `json:"node"`
	Label          string        `json:"label"`
	Degree         int           `json:"degree"`
	InDegree       int           `json:"inDegree"`
	OutDegree      int           `json:"outDegree"`
	WeightedDegree float64       `json:"weightedDegree"`
	PageRank       float64       `json:"pageRank"`
}

const (
	pageRankDamping    = 0.85
	pageRankIterations = 20
	pageRankTolerance  = 0.0001
)

// Metrics computes degree measures and a simplified PageRank for every
// connected node, sorted by total degree descending.
func (s *Service) Metrics(ctx context.Context) ([]*NodeMetrics, error) {
	edges, err := s.relations.List(ctx, storage.RelationListOptions{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("graph: failed to load relations: %w", err)
	}
	if len(edges) == 0 {
		return nil, nil
	}

	byNode := make(map[types.NodeRef]*NodeMetrics)
	node := func(ref types.NodeRef) *NodeMetrics {
		m, ok := byNode[ref]
		if !ok {
			m = &NodeMetrics{Node: ref}
			byNode[ref] = m
		}
		return m
	}

	outLinks := make(map[types.NodeRef][]types.NodeRef)
	inLinks := make(map[types.NodeRef][]types.NodeRef)
	for _, edge := range edges {
		src, tgt := node(edge.Source), node(edge.Target)
		src.OutDegree++
		src.WeightedDegree += edge.Strength
		tgt.InDegree++
		tgt.WeightedDegree += edge.Strength
		outLinks[edge.Source] = append(outLinks[edge.Source], edge.Target)
		inLinks[edge.Target] = append(inLinks[edge.Target], edge.Source)
	}

	rank := pageRank(byNode, outLinks, inLinks)
	out := make([]*NodeMetrics, 0, len(byNode))
	for ref, m := range byNode {
		m.Degree = m.InDegree + m.OutDegree
		m.PageRank = rank[ref]
		if ref.Kind == types.KindEntity {
			if entity, err := s.entities.Get(ctx, ref.ID); err == nil {
				m.Label = entity.Name
			}
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Degree != out[j].Degree {
			return out[i].Degree > out[j].Degree
		}
		return out[i].Node.ID < out[j].Node.ID
	})
	return out, nil
}

// pageRank runs power iteration with damping until convergence or the
// iteration cap.
func pageRank(nodes map[types.NodeRef]*NodeMetrics, outLinks, inLinks map[types.NodeRef][]types.NodeRef) map[types.NodeRef]float64 {
	n := float64(len(nodes))
	rank := make(map[types.NodeRef]float64, len(nodes))
	for ref := range nodes {
		rank[ref] = 1 / n
	}

	for i := 0; i < pageRankIterations; i++ {
		next := make(map[types.NodeRef]float64, len(nodes))
		maxChange := 0.0

		for ref := range nodes {
			r := (1 - pageRankDamping) / n
			for _, in := range inLinks[ref] {
				outCount := len(outLinks[in])
				if outCount == 0 {
					outCount = 1
				}
				r += pageRankDamping * rank[in] / float64(outCount)
			}
			next[ref] = r
			maxChange = math.Max(maxChange, math.Abs(r-rank[ref]))
		}

		rank = next
		if maxChange < pageRankTolerance {
			break
		}
	}
	return rank
}
