package breaker

import (
	"context"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// EntityStore decorates a storage.EntityStore with a circuit breaker.
type EntityStore struct {
	next    storage.EntityStore
	breaker *Breaker
}

// NewEntityStore wraps next with b.
func NewEntityStore(next storage.EntityStore, b *Breaker) *EntityStore {
	return &EntityStore{next: next, breaker: b}
}

var _ storage.EntityStore = (*EntityStore)(nil)

func (s *EntityStore) Create(ctx context.Context, entity *types.Entity) error {
	_, err := s.breaker.do(ctx, func() (interface{}, error) {
		return nil, s.next.Create(ctx, entity)
	})
	return err
}

func (s *EntityStore) Get(ctx context.Context, id string) (*types.Entity, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Entity), nil
}

func (s *EntityStore) GetByNormalizedName(ctx context.Context, normalized string) (*types.Entity, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.GetByNormalizedName(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Entity), nil
}

func (s *EntityStore) List(ctx context.Context, opts storage.EntityListOptions) ([]*types.Entity, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.List(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*types.Entity), nil
}

func (s *EntityStore) TopMentioned(ctx context.Context, entityType types.EntityType, limit int) ([]*types.Entity, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.TopMentioned(ctx, entityType, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*types.Entity), nil
}

func (s *EntityStore) Update(ctx context.Context, entity *types.Entity) error {
	_, err := s.breaker.do(ctx, func() (interface{}, error) {
		return nil, s.next.Update(ctx, entity)
	})
	return err
}

func (s *EntityStore) Delete(ctx context.Context, id string) error {
	_, err := s.breaker.do(ctx, func() (interface{}, error) {
		return nil, s.next.Delete(ctx, id)
	})
	return err
}

func (s *EntityStore) Stats(ctx context.Context) (*storage.EntityStats, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.Stats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*storage.EntityStats), nil
}

func (s *EntityStore) Close() error {
	return s.next.Close()
}

// RelationStore decorates a storage.RelationStore with a circuit breaker.
type RelationStore struct {
	next    storage.RelationStore
	breaker *Breaker
}

// NewRelationStore wraps next with b.
func NewRelationStore(next storage.RelationStore, b *Breaker) *RelationStore {
	return &RelationStore{next: next, breaker: b}
}

var _ storage.RelationStore = (*RelationStore)(nil)

func (s *RelationStore) Upsert(ctx context.Context, candidate *types.RelationCandidate) (string, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.Upsert(ctx, candidate)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *RelationStore) Get(ctx context.Context, id string) (*types.Relation, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Relation), nil
}

func (s *RelationStore) FindActive(ctx context.Context, key types.RelationKey) (*types.Relation, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.FindActive(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Relation), nil
}

func (s *RelationStore) List(ctx context.Context, opts storage.RelationListOptions) ([]*types.Relation, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.List(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*types.Relation), nil
}

func (s *RelationStore) ListByEndpoint(ctx context.Context, ref types.NodeRef) ([]*types.Relation, []*types.Relation, error) {
	type pair struct {
		outgoing []*types.Relation
		incoming []*types.Relation
	}
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		out, in, err := s.next.ListByEndpoint(ctx, ref)
		return pair{out, in}, err
	})
	if err != nil {
		return nil, nil, err
	}
	p := v.(pair)
	return p.outgoing, p.incoming, nil
}

func (s *RelationStore) Deactivate(ctx context.Context, id string) error {
	_, err := s.breaker.do(ctx, func() (interface{}, error) {
		return nil, s.next.Deactivate(ctx, id)
	})
	return err
}

func (s *RelationStore) DeactivateByEndpoint(ctx context.Context, ref types.NodeRef) (int, error) {
	v, err := s.breaker.do(ctx, func() (interface{}, error) {
		return s.next.DeactivateByEndpoint(ctx, ref)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *RelationStore) Close() error {
	return s.next.Close()
}
