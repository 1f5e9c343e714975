package types

// EntityCandidate is an unresolved mention produced by the upstream
// extraction step. Optional fields may be missing or empty; names may carry
// excess whitespace or trailing parenthetical descriptors. The engine
// normalizes before resolution and never trusts the input shape.
type EntityCandidate struct {
	Name           string          `json:"name"`
	Type           string          `json:"type,omitempty"` // raw extractor token, mapped before use
	Role           string          `json:"role,omitempty"`
	Affiliation    string          `json:"affiliation,omitempty"`
	Context        string          `json:"context,omitempty"`
	IsPOI          bool            `json:"isPOI,omitempty"`
	RelevanceScore float64         `json:"relevanceScore,omitempty"`
	Metadata       *EntityMetadata `json:"metadata,omitempty"`
}

// RelationCandidate is a typed edge proposal derived from entity metadata,
// ready for idempotent upsert once both endpoints are resolved.
type RelationCandidate struct {
	Source NodeRef      `json:"source"`
	Target NodeRef      `json:"target"`
	Type   RelationType `json:"relation_type"`

	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`

	EvidenceArticles []string `json:"evidence_articles,omitempty"`
}
