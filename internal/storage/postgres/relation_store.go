package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

const relationColumns = `
	id, source_id, source_kind, target_id, target_kind, relation_type,
	strength, confidence, context, evidence_articles, evidence_count,
	is_active, created_at, updated_at
`

const upsertRetries = 2

// Upsert merges candidate into the active relation occupying its directed
// edge slot, or inserts a new active relation when the slot is empty.
func (s *RelationStore) Upsert(ctx context.Context, candidate *types.RelationCandidate) (string, error) {
	if candidate == nil {
		return "", fmt.Errorf("%w: candidate is required", storage.ErrInvalidInput)
	}
	if candidate.Source.ID == "" || candidate.Target.ID == "" {
		return "", fmt.Errorf("%w: candidate endpoints are required", storage.ErrInvalidInput)
	}
	if !types.ValidNodeKind(candidate.Source.Kind) {
		return "", fmt.Errorf("%w: unknown source kind %q", storage.ErrInvalidInput, candidate.Source.Kind)
	}
	if !types.ValidNodeKind(candidate.Target.Kind) {
		return "", fmt.Errorf("%w: unknown target kind %q", storage.ErrInvalidInput, candidate.Target.Kind)
	}
	if !types.ValidRelationType(candidate.Type) {
		return "", fmt.Errorf("%w: unknown relation type %q", storage.ErrInvalidInput, candidate.Type)
	}

	var lastErr error
	for attempt := 0; attempt < upsertRetries; attempt++ {
		id, err := s.upsertOnce(ctx, candidate)
		if err == nil {
			return id, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("postgres: relation upsert lost the edge slot race: %w", lastErr)
}

func (s *RelationStore) upsertOnce(ctx context.Context, candidate *types.RelationCandidate) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	key := types.RelationKey{
		Source: candidate.Source,
		Target: candidate.Target,
		Type:   candidate.Type,
	}

	existing, err := findActiveTx(ctx, tx, key, true)
	switch {
	case err == nil:
		storage.MergeRelation(existing, candidate, s.policy, now)
		evidence, err := marshalJSON(existing.EvidenceArticles)
		if err != nil {
			return "", fmt.Errorf("postgres: failed to marshal evidence: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE relations SET
				strength = $1, confidence = $2, context = $3,
				evidence_articles = $4, evidence_count = $5, updated_at = $6
			WHERE id = $7
		`,
			existing.Strength, existing.Confidence, nullString(existing.Context),
			evidence, existing.EvidenceCount, existing.UpdatedAt,
			existing.ID,
		)
		if err != nil {
			return "", fmt.Errorf("postgres: failed to update relation: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("postgres: failed to commit relation merge: %w", err)
		}
		return existing.ID, nil

	case err == storage.ErrNotFound:
		rel := &types.Relation{
			ID:               uuid.New().String(),
			Source:           candidate.Source,
			Target:           candidate.Target,
			Type:             candidate.Type,
			Strength:         candidate.Strength,
			Confidence:       candidate.Confidence,
			Context:          candidate.Context,
			EvidenceArticles: storage.UnionStrings(nil, candidate.EvidenceArticles),
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		rel.EvidenceCount = len(rel.EvidenceArticles)

		evidence, err := marshalJSON(rel.EvidenceArticles)
		if err != nil {
			return "", fmt.Errorf("postgres: failed to marshal evidence: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO relations (
				id, source_id, source_kind, target_id, target_kind, relation_type,
				strength, confidence, context, evidence_articles, evidence_count,
				is_active, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			rel.ID, rel.Source.ID, string(rel.Source.Kind), rel.Target.ID, string(rel.Target.Kind), string(rel.Type),
			rel.Strength, rel.Confidence, nullString(rel.Context), evidence, rel.EvidenceCount,
			rel.IsActive, rel.CreatedAt, rel.UpdatedAt,
		)
		if err != nil {
			return "", err
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("postgres: failed to commit relation insert: %w", err)
		}
		return rel.ID, nil

	default:
		return "", err
	}
}

// Get retrieves a relation by ID.
func (s *RelationStore) Get(ctx context.Context, id string) (*types.Relation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: relation ID is required", storage.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+relationColumns+" FROM relations WHERE id = $1", id)
	return scanRelation(row)
}

// FindActive returns the active relation occupying the directed edge slot.
func (s *RelationStore) FindActive(ctx context.Context, key types.RelationKey) (*types.Relation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+relationColumns+` FROM relations
		 WHERE source_id = $1 AND source_kind = $2 AND target_id = $3 AND target_kind = $4
		   AND relation_type = $5 AND is_active`,
		key.Source.ID, string(key.Source.Kind), key.Target.ID, string(key.Target.Kind), string(key.Type))
	return scanRelation(row)
}

// findActiveTx reads the edge slot inside tx. With forUpdate set the row is
// locked until commit so concurrent merges serialize.
func findActiveTx(ctx context.Context, tx *sql.Tx, key types.RelationKey, forUpdate bool) (*types.Relation, error) {
	query := "SELECT " + relationColumns + ` FROM relations
		WHERE source_id = $1 AND source_kind = $2 AND target_id = $3 AND target_kind = $4
		  AND relation_type = $5 AND is_active`
	if forUpdate {
		query += " FOR UPDATE"
	}
	row := tx.QueryRowContext(ctx, query,
		key.Source.ID, string(key.Source.Kind), key.Target.ID, string(key.Target.Kind), string(key.Type))
	return scanRelation(row)
}

// List retrieves relations ordered by creation time then id.
func (s *RelationStore) List(ctx context.Context, opts storage.RelationListOptions) ([]*types.Relation, error) {
	query := "SELECT " + relationColumns + " FROM relations WHERE 1=1"
	args := []interface{}{}

	if opts.ActiveOnly {
		query += " AND is_active"
	}
	if opts.MinStrength > 0 {
		args = append(args, opts.MinStrength)
		query += fmt.Sprintf(" AND strength >= $%d", len(args))
	}
	if len(opts.Types) > 0 {
		typeNames := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			typeNames[i] = string(t)
		}
		args = append(args, pq.Array(typeNames))
		query += fmt.Sprintf(" AND relation_type = ANY($%d)", len(args))
	}

	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list relations: %w", err)
	}
	defer rows.Close()

	return scanRelations(rows)
}

// ListByEndpoint returns the active relations where ref is the source
// (outgoing) and where it is the target (incoming).
func (s *RelationStore) ListByEndpoint(ctx context.Context, ref types.NodeRef) (outgoing, incoming []*types.Relation, err error) {
	if ref.ID == "" {
		return nil, nil, fmt.Errorf("%w: node ref ID is required", storage.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+relationColumns+` FROM relations
		 WHERE source_id = $1 AND source_kind = $2 AND is_active
		 ORDER BY created_at, id`,
		ref.ID, string(ref.Kind))
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: failed to query outgoing relations: %w", err)
	}
	outgoing, err = scanRelations(rows)
	rows.Close()
	if err != nil {
		return nil, nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT "+relationColumns+` FROM relations
		 WHERE target_id = $1 AND target_kind = $2 AND is_active
		 ORDER BY created_at, id`,
		ref.ID, string(ref.Kind))
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: failed to query incoming relations: %w", err)
	}
	incoming, err = scanRelations(rows)
	rows.Close()
	if err != nil {
		return nil, nil, err
	}

	return outgoing, incoming, nil
}

// Deactivate soft-deletes a relation.
func (s *RelationStore) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: relation ID is required", storage.ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE relations SET is_active = FALSE, updated_at = $1 WHERE id = $2",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("postgres: failed to deactivate relation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeactivateByEndpoint deactivates every active relation touching ref.
func (s *RelationStore) DeactivateByEndpoint(ctx context.Context, ref types.NodeRef) (int, error) {
	if ref.ID == "" {
		return 0, fmt.Errorf("%w: node ref ID is required", storage.ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE relations SET is_active = FALSE, updated_at = $1
		WHERE is_active AND (
			(source_id = $2 AND source_kind = $3) OR (target_id = $2 AND target_kind = $3)
		)
	`, time.Now().UTC(), ref.ID, string(ref.Kind))
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to deactivate relations by endpoint: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func scanRelation(row scanner) (*types.Relation, error) {
	var r types.Relation
	var sourceKind, targetKind, relationType string
	var relContext, evidence sql.NullString

	err := row.Scan(
		&r.ID, &r.Source.ID, &sourceKind, &r.Target.ID, &targetKind, &relationType,
		&r.Strength, &r.Confidence, &relContext, &evidence, &r.EvidenceCount,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan relation: %w", err)
	}

	r.Source.Kind = types.NodeKind(sourceKind)
	r.Target.Kind = types.NodeKind(targetKind)
	r.Type = types.RelationType(relationType)
	r.Context = relContext.String
	if r.EvidenceArticles, err = unmarshalStrings(evidence); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal evidence: %w", err)
	}
	return &r, nil
}

func scanRelations(rows *sql.Rows) ([]*types.Relation, error) {
	var out []*types.Relation
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: relation iteration: %w", err)
	}
	return out, nil
}
