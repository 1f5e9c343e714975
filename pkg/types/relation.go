package types

import "time"

// Relation is a directed, typed, weighted edge between two graph nodes.
//
// At most one active relation may exist for a given ordered
// (Source, Target, Type) tuple; repeated observations merge evidence into
// the existing row instead of duplicating it. Relations are soft-deleted
// by clearing IsActive — rows are never physically removed once evidence
// exists, so the audit trail survives deactivation.
type Relation struct {
	ID     string       `json:"id"`
	Source NodeRef      `json:"source"`
	Target NodeRef      `json:"target"`
	Type   RelationType `json:"relation_type"`

	Strength   float64 `json:"strength"`   // relative importance, [0,1]
	Confidence float64 `json:"confidence"` // certainty of the assertion, [0,1]
	Context    string  `json:"context,omitempty"`

	EvidenceArticles []string `json:"evidence_articles,omitempty"`
	EvidenceCount    int      `json:"evidence_count"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key identifies the directed edge slot this relation occupies.
type RelationKey struct {
	Source NodeRef
	Target NodeRef
	Type   RelationType
}

// Key returns the directed-edge key for this relation.
func (r *Relation) Key() RelationKey {
	return RelationKey{Source: r.Source, Target: r.Target, Type: r.Type}
}
