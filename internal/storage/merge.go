package storage

import (
	"time"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// MergeRelation folds a repeat observation into an existing active relation.
// Both backends call this between the read and the write of their upsert
// transaction so the merge semantics live in exactly one place.
//
// Evidence articles are always unioned and EvidenceCount recomputed as the
// union cardinality, which keeps it monotonically non-decreasing. Scalar
// fields follow the configured policy. IsActive is never touched here:
// re-observation must not resurrect a deactivated edge slot (deactivated
// rows are excluded from the upsert lookup entirely).
func MergeRelation(existing *types.Relation, cand *types.RelationCandidate, policy config.MergePolicy, now time.Time) {
	switch policy {
	case config.MergeMax:
		if cand.Strength > existing.Strength {
			existing.Strength = cand.Strength
		}
		if cand.Confidence > existing.Confidence {
			existing.Confidence = cand.Confidence
		}
		if cand.Context != "" {
			existing.Context = cand.Context
		}
	default: // last_write
		existing.Strength = cand.Strength
		existing.Confidence = cand.Confidence
		if cand.Context != "" {
			existing.Context = cand.Context
		}
	}

	existing.EvidenceArticles = UnionStrings(existing.EvidenceArticles, cand.EvidenceArticles)
	existing.EvidenceCount = len(existing.EvidenceArticles)
	existing.UpdatedAt = now
}

// UnionStrings returns the union of two string slices, preserving the
// insertion order of first occurrence.
func UnionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
