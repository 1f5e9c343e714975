// Package sqlite implements the storage interfaces on an embedded SQLite
// database. It is the default backend: zero external services, suitable
// for single-node deployments and tests.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/DevPanatec/InfoPanama-sub001/internal/config"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
)

// Store owns the SQLite connection shared by the entity and relation
// views. Both views are served by the same single-writer handle.
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

// NewStore opens (or creates) the SQLite database at dsn, configures WAL
// mode and creates the schema.
func NewStore(dsn string, policy config.MergePolicy) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent
	// load; WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing with SQLITE_BUSY when the connection is held
	// by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &Store{db: db, policy: policy}, nil
}

// GetDB exposes the underlying connection for tests and maintenance tools.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// marshalJSON serializes v to a JSON string, mapping nil/empty to a NULL
// column so absent lists round-trip as nil.
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

// unmarshalStrings decodes a nullable JSON array column into a string slice.
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
