// Package storage provides the storage interfaces for the entity and
// relation collections.
//
// The layer is designed with small, focused interfaces that can be
// implemented independently: the SQLite backend is the embedded default,
// the PostgreSQL backend serves server deployments, and the breaker
// decorator wraps either one. Components receive these interfaces through
// their constructors — there is no package-level store handle.
package storage

import (
	"context"

	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// EntityStore owns the entities collection.
type EntityStore interface {
	// Create inserts a new entity. The caller assigns the ID.
	// Returns ErrConflict if an entity with the same normalized name and
	// type already exists (the uniqueness backstop behind the resolver's
	// check-then-act serialization).
	Create(ctx context.Context, entity *types.Entity) error

	// Get retrieves an entity by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*types.Entity, error)

	// GetByNormalizedName retrieves the entity with the exact normalized
	// name. When several types share the key the most recently updated
	// entity wins. Returns ErrNotFound if absent.
	GetByNormalizedName(ctx context.Context, normalized string) (*types.Entity, error)

	// List retrieves entities ordered by creation time then id, so listings
	// and exports built on it are deterministic for a given snapshot.
	List(ctx context.Context, opts EntityListOptions) ([]*types.Entity, error)

	// TopMentioned returns up to limit entities ordered by mention count
	// descending, optionally restricted to one type.
	TopMentioned(ctx context.Context, entityType types.EntityType, limit int) ([]*types.Entity, error)

	// Update persists changes to an existing entity. CreatedAt is never
	// modified. Returns ErrNotFound if the entity doesn't exist.
	Update(ctx context.Context, entity *types.Entity) error

	// Delete hard-deletes an entity. Reserved for explicit maintenance
	// operations; normal ingestion never removes entities.
	Delete(ctx context.Context, id string) error

	// Stats computes collection-level entity statistics.
	Stats(ctx context.Context) (*EntityStats, error)

	// Close releases any resources held by the store.
	Close() error
}

// RelationStore owns the relations collection and enforces the directed
// edge uniqueness invariant.
type RelationStore interface {
	// Upsert merges candidate into the single active relation for its
	// (source, target, type) tuple, or inserts a new active relation when
	// none exists. Evidence articles are unioned and EvidenceCount
	// recomputed as the union size; scalar merging follows the store's
	// configured merge policy. Returns the relation id.
	Upsert(ctx context.Context, candidate *types.RelationCandidate) (string, error)

	// Get retrieves a relation by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*types.Relation, error)

	// FindActive returns the active relation occupying the given directed
	// edge slot, or ErrNotFound.
	FindActive(ctx context.Context, key types.RelationKey) (*types.Relation, error)

	// List retrieves relations ordered by creation time then id.
	List(ctx context.Context, opts RelationListOptions) ([]*types.Relation, error)

	// ListByEndpoint returns active relations where ref appears as source
	// (outgoing) or as target (incoming).
	ListByEndpoint(ctx context.Context, ref types.NodeRef) (outgoing, incoming []*types.Relation, err error)

	// Deactivate soft-deletes a relation: IsActive becomes false, the row
	// stays for the audit trail. Returns ErrNotFound if absent.
	Deactivate(ctx context.Context, id string) error

	// DeactivateByEndpoint deactivates every active relation touching ref.
	// Used by maintenance cleanup before an entity is removed.
	DeactivateByEndpoint(ctx context.Context, ref types.NodeRef) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
