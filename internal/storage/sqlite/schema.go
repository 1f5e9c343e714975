package sqlite

// Schema defines the SQLite tables for the graph engine.
//
// The partial unique index on relations enforces the "at most one active
// relation per directed edge slot" invariant at the database level, so a
// lost race in the upsert surfaces as a constraint violation instead of a
// duplicate edge.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    normalized_name TEXT NOT NULL,
    type TEXT NOT NULL,

    aliases TEXT,       -- JSON array of alternate surface forms
    mentioned_in TEXT,  -- JSON array of article references
    mention_count INTEGER NOT NULL DEFAULT 0,
    metadata TEXT,      -- JSON object

    marked_for_review INTEGER NOT NULL DEFAULT 0,
    review_requested_at TIMESTAMP,
    review_requested_by TEXT,

    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,

    UNIQUE(normalized_name, type)
);

CREATE INDEX IF NOT EXISTS idx_entities_normalized ON entities(normalized_name);
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);
CREATE INDEX IF NOT EXISTS idx_entities_mentions ON entities(mention_count DESC);

CREATE TABLE IF NOT EXISTS relations (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL,
    source_kind TEXT NOT NULL,
    target_id TEXT NOT NULL,
    target_kind TEXT NOT NULL,
    relation_type TEXT NOT NULL,

    strength REAL NOT NULL DEFAULT 0,
    confidence REAL NOT NULL DEFAULT 0,
    context TEXT,

    evidence_articles TEXT, -- JSON array of article references
    evidence_count INTEGER NOT NULL DEFAULT 0,

    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_relations_active_edge
    ON relations(source_id, source_kind, target_id, target_kind, relation_type)
    WHERE is_active = 1;

CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source_id, source_kind);
CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target_id, target_kind);
CREATE INDEX IF NOT EXISTS idx_relations_active ON relations(is_active);
`
