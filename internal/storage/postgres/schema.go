package postgres

// Schema creates the entity and relation tables. Statements are idempotent
// so the store can run them on every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	type TEXT NOT NULL,
	aliases JSONB,
	mentioned_in JSONB,
	mention_count INTEGER NOT NULL DEFAULT 0,
	metadata JSONB,
	marked_for_review BOOLEAN NOT NULL DEFAULT FALSE,
	review_requested_at TIMESTAMPTZ,
	review_requested_by TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (normalized_name, type)
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
	strength DOUBLE PRECISION NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	context TEXT,
	evidence_articles JSONB,
	evidence_count INTEGER NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

-- One active relation per directed edge slot. Deactivated rows fall out of
-- the index so the slot can be reoccupied.
CREATE UNIQUE INDEX IF NOT EXISTS idx_relations_active_edge
	ON relations(source_id, source_kind, target_id, target_kind, relation_type)
	WHERE is_active;

CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source_id, source_kind);
CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target_id, target_kind);
CREATE INDEX IF NOT EXISTS idx_relations_active ON relations(is_active);
`
