// Package postgres implements the storage interfaces on PostgreSQL for
// server deployments where several processes share one database.
package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
)

// Store owns the PostgreSQL connection pool shared by the entity and
// relation views.
type Store struct {
	db     *sql.DB
	policy config.MergePolicy
}

// EntityStore is the entities view of a Store.
type EntityStore struct{ *Store }

// RelationStore is the relations view of a Store.
type RelationStore struct{ *Store }

// Entities returns the storage.EntityStore view.
func (s *Store) Entities() *EntityStore { return &EntityStore{s} }

// Relations returns the storage.RelationStore view.
func (s *Store) Relations() *RelationStore { return &RelationStore{s} }

var (
	_ storage.EntityStore   = (*EntityStore)(nil)
	_ storage.RelationStore = (*RelationStore)(nil)
)

// NewStore connects to PostgreSQL and ensures the schema exists.
func NewStore(dsn string, policy config.MergePolicy) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}

	return &Store{db: db, policy: policy}, nil
}

// GetDB exposes the underlying connection pool for tests and maintenance.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// marshalJSON serializes v for a JSONB column, mapping empty lists to NULL.
func marshalJSON(v interface{}) (sql.NullString, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case nil:
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalStrings(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueViolation reports whether err is PostgreSQL error 23505.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
