package types

import "time"

// Connections groups the named counterparts a mention's metadata links an
// entity to, keyed by the nature of the link. Names may carry a trailing
// parenthetical descriptor ("Ana Díaz (hermana)") that is stripped before
// resolution.
type Connections struct {
	Political []string `json:"political,omitempty" yaml:"political,omitempty"`
	Family    []string `json:"family,omitempty" yaml:"family,omitempty"`
	Companies []string `json:"companies,omitempty" yaml:"companies,omitempty"`
}

// Empty reports whether no connection lists carry any names.
func (c *Connections) Empty() bool {
	return c == nil || (len(c.Political) == 0 && len(c.Family) == 0 && len(c.Companies) == 0)
}

// EntityMetadata is the optional structured bag attached to an entity.
// Fields merge additively across mentions: a new non-empty scalar fills an
// empty one, lists are unioned, existing data is never truncated.
type EntityMetadata struct {
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Position    string       `json:"position,omitempty" yaml:"position,omitempty"`
	Affiliation string       `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	Owners      []string     `json:"owners,omitempty" yaml:"owners,omitempty"`
	Connections *Connections `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// Entity is a deduplicated, canonical record for a real-world person,
// organization, location or event.
type Entity struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`            // display name as first observed
	NormalizedName string          `json:"normalized_name"` // derived comparison key
	Type           EntityType      `json:"type"`
	Aliases        []string        `json:"aliases,omitempty"` // alternate surface forms
	MentionedIn    []string        `json:"mentioned_in,omitempty"`
	MentionCount   int             `json:"mention_count"`
	Metadata       *EntityMetadata `json:"metadata,omitempty"`

	// Review flagging for ambiguous fuzzy matches and manual curation.
	MarkedForReview   bool       `json:"marked_for_review,omitempty"`
	ReviewRequestedAt *time.Time `json:"review_requested_at,omitempty"`
	ReviewRequestedBy string     `json:"review_requested_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the NodeRef for this entity.
func (e *Entity) Ref() NodeRef {
	return EntityRef(e.ID)
}

// HasAlias reports whether name already appears as the canonical name or
// one of the aliases (exact match on the surface form).
func (e *Entity) HasAlias(name string) bool {
	if e.Name == name {
		return true
	}
	for _, a := range e.Aliases {
		if a == name {
			return true
		}
	}
	return false
}
