package storage

import (
	"errors"

	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a write conflict on a uniqueness constraint.
	// Callers may retry the whole operation; every mutation is idempotent.
	ErrConflict = errors.New("write conflict")

	// ErrUnavailable indicates the store is temporarily unavailable
	// (connection failure or an open circuit breaker). Retryable.
	ErrUnavailable = errors.New("store unavailable")
)

// EntityListOptions filters and bounds entity listings.
type EntityListOptions struct {
	// Type restricts results to a single entity type. Empty means all.
	Type types.EntityType

	// Search filters by substring match on the display name. Empty means all.
	Search string

	// MarkedForReview, when true, returns only entities flagged for review.
	MarkedForReview bool

	// Limit bounds the result size. Zero means no bound.
	Limit int

	// Offset skips the first N results (for pagination).
	Offset int
}

// RelationListOptions filters and bounds relation listings.
type RelationListOptions struct {
	// ActiveOnly restricts results to active relations.
	ActiveOnly bool

	// MinStrength drops relations with strength below this value.
	MinStrength float64

	// Types restricts results to the given relation types. Empty means all.
	Types []types.RelationType

	// Limit bounds the result size. Zero means no bound.
	Limit int
}

// EntityStats summarizes the entity collection.
type EntityStats struct {
	Total         int                      `json:"total"`
	ByType        map[types.EntityType]int `json:"by_type"`
	TotalMentions int                      `json:"total_mentions"`
	AvgMentions   float64                  `json:"avg_mentions"`
}
