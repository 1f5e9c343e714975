package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

const entityColumns = `
	id, name, normalized_name, type,
	aliases, mentioned_in, mention_count, metadata,
	marked_for_review, review_requested_at, review_requested_by,
	created_at, updated_at
`

// Create inserts a new entity.
func (s *EntityStore) Create(ctx context.Context, entity *types.Entity) error {
	if entity == nil || entity.ID == "" {
		return fmt.Errorf("%w: entity and entity ID are required", storage.ErrInvalidInput)
	}
	if entity.Name == "" {
		return fmt.Errorf("%w: entity name is required", storage.ErrInvalidInput)
	}
	if !types.ValidEntityType(entity.Type) {
		return fmt.Errorf("%w: unknown entity type %q", storage.ErrInvalidInput, entity.Type)
	}

	aliases, err := marshalJSON(entity.Aliases)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal aliases: %w", err)
	}
	mentionedIn, err := marshalJSON(entity.MentionedIn)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal mentioned_in: %w", err)
	}
	metadata, err := marshalMetadata(entity.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (
			id, name, normalized_name, type,
			aliases, mentioned_in, mention_count, metadata,
			marked_for_review, review_requested_at, review_requested_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		entity.ID, entity.Name, entity.NormalizedName, string(entity.Type),
		aliases, mentionedIn, entity.MentionCount, metadata,
		entity.MarkedForReview, entity.ReviewRequestedAt, nullString(entity.ReviewRequestedBy),
		entity.CreatedAt, entity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entity %q/%s already exists", storage.ErrConflict, entity.NormalizedName, entity.Type)
		}
		return fmt.Errorf("postgres: failed to insert entity: %w", err)
	}
	return nil
}

// Get retrieves an entity by ID.
func (s *EntityStore) Get(ctx context.Context, id string) (*types.Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: entity ID is required", storage.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE id = $1", id)
	return scanEntity(row)
}

// GetByNormalizedName retrieves the entity with the exact normalized name.
func (s *EntityStore) GetByNormalizedName(ctx context.Context, normalized string) (*types.Entity, error) {
	if normalized == "" {
		return nil, fmt.Errorf("%w: normalized name is required", storage.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE normalized_name = $1 ORDER BY updated_at DESC LIMIT 1",
		normalized)
	return scanEntity(row)
}

// List retrieves entities ordered by creation time then id.
func (s *EntityStore) List(ctx context.Context, opts storage.EntityListOptions) ([]*types.Entity, error) {
	query := "SELECT " + entityColumns + " FROM entities WHERE 1=1"
	args := []interface{}{}

	if opts.Type != "" {
		args = append(args, string(opts.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if opts.MarkedForReview {
		query += " AND marked_for_review"
	}

	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list entities: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// TopMentioned returns up to limit entities ordered by mention count.
func (s *EntityStore) TopMentioned(ctx context.Context, entityType types.EntityType, limit int) ([]*types.Entity, error) {
	if limit < 1 {
		limit = 20
	}

	query := "SELECT " + entityColumns + " FROM entities"
	args := []interface{}{}
	if entityType != "" {
		args = append(args, string(entityType))
		query += " WHERE type = $1"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY mention_count DESC, id LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query top mentioned: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// Update persists changes to an existing entity. CreatedAt is never written.
func (s *EntityStore) Update(ctx context.Context, entity *types.Entity) error {
	if entity == nil || entity.ID == "" {
		return fmt.Errorf("%w: entity and entity ID are required", storage.ErrInvalidInput)
	}

	aliases, err := marshalJSON(entity.Aliases)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal aliases: %w", err)
	}
	mentionedIn, err := marshalJSON(entity.MentionedIn)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal mentioned_in: %w", err)
	}
	metadata, err := marshalMetadata(entity.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal metadata: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE entities SET
			name = $1, normalized_name = $2, type = $3,
			aliases = $4, mentioned_in = $5, mention_count = $6, metadata = $7,
			marked_for_review = $8, review_requested_at = $9, review_requested_by = $10,
			updated_at = $11
		WHERE id = $12
	`,
		entity.Name, entity.NormalizedName, string(entity.Type),
		aliases, mentionedIn, entity.MentionCount, metadata,
		entity.MarkedForReview, entity.ReviewRequestedAt, nullString(entity.ReviewRequestedBy),
		entity.UpdatedAt,
		entity.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update entity: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete hard-deletes an entity. Maintenance only.
func (s *EntityStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: entity ID is required", storage.ErrInvalidInput)
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM entities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete entity: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Stats computes collection-level entity statistics.
func (s *EntityStore) Stats(ctx context.Context) (*storage.EntityStats, error) {
	stats := &storage.EntityStats{ByType: make(map[types.EntityType]int)}

	rows, err := s.db.QueryContext(ctx,
		"SELECT type, COUNT(*), COALESCE(SUM(mention_count), 0) FROM entities GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query entity stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityType string
		var count, mentions int
		if err := rows.Scan(&entityType, &count, &mentions); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan entity stats: %w", err)
		}
		stats.ByType[types.EntityType(entityType)] = count
		stats.Total += count
		stats.TotalMentions += mentions
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: entity stats iteration: %w", err)
	}

	if stats.Total > 0 {
		stats.AvgMentions = float64(stats.TotalMentions) / float64(stats.Total)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row scanner) (*types.Entity, error) {
	var e types.Entity
	var entityType string
	var aliases, mentionedIn, metadata, reviewedBy sql.NullString
	var reviewRequestedAt sql.NullTime

	err := row.Scan(
		&e.ID, &e.Name, &e.NormalizedName, &entityType,
		&aliases, &mentionedIn, &e.MentionCount, &metadata,
		&e.MarkedForReview, &reviewRequestedAt, &reviewedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan entity: %w", err)
	}

	e.Type = types.EntityType(entityType)
	if e.Aliases, err = unmarshalStrings(aliases); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal aliases: %w", err)
	}
	if e.MentionedIn, err = unmarshalStrings(mentionedIn); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal mentioned_in: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		var m types.EntityMetadata
		if err := json.Unmarshal([]byte(metadata.String), &m); err != nil {
			return nil, fmt.Errorf("postgres: failed to unmarshal metadata: %w", err)
		}
		e.Metadata = &m
	}
	if reviewRequestedAt.Valid {
		t := reviewRequestedAt.Time
		e.ReviewRequestedAt = &t
	}
	e.ReviewRequestedBy = reviewedBy.String

	return &e, nil
}

func scanEntities(rows *sql.Rows) ([]*types.Entity, error) {
	var out []*types.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: entity iteration: %w", err)
	}
	return out, nil
}

func marshalMetadata(m *types.EntityMetadata) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
