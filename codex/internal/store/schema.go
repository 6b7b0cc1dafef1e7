package store

import "database/sql"

// Schema is the complete harvester schema. All timestamps are Unix
// milliseconds. "range" is quoted because it is an SQL keyword.
const Schema = `
-- Crawl frontier: overview page plus discovered class pages
CREATE TABLE IF NOT EXISTS sources (
    id              TEXT PRIMARY KEY,
    url             TEXT NOT NULL UNIQUE,
    kind            TEXT NOT NULL DEFAULT 'class',
    enabled         INTEGER NOT NULL DEFAULT 1,
    discovered_from TEXT NOT NULL DEFAULT '',
    last_seen_at    INTEGER NOT NULL,
    created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sources_kind ON sources(kind, enabled);

-- Keyword glossary from the overview page, overwritten on every parse
CREATE TABLE IF NOT EXISTS keywords (
    keyword      TEXT PRIMARY KEY,
    definition   TEXT NOT NULL DEFAULT '',
    source_url   TEXT NOT NULL DEFAULT '',
    last_seen_at INTEGER NOT NULL
);

-- One row per class, replaced wholesale on successful extraction
CREATE TABLE IF NOT EXISTS class_meta (
    class            TEXT PRIMARY KEY,
    source_url       TEXT NOT NULL DEFAULT '',
    last_update_note TEXT NOT NULL DEFAULT '',
    maturity         TEXT NOT NULL DEFAULT 'unknown',
    disciplines      TEXT NOT NULL DEFAULT '[]',
    summary          TEXT NOT NULL DEFAULT '',
    last_seen_at     INTEGER NOT NULL
);

-- Extracted abilities; swapped per class per successful run
CREATE TABLE IF NOT EXISTS skills (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    class           TEXT NOT NULL,
    tier            INTEGER NOT NULL DEFAULT 0,
    skill_points    REAL,
    discipline      TEXT NOT NULL DEFAULT '',
    ability         TEXT NOT NULL,
    description_raw TEXT NOT NULL DEFAULT '',
    "range"         REAL,
    mana_cost       REAL,
    mana_growth     REAL,
    dod             REAL,
    tags            TEXT NOT NULL DEFAULT '[]',
    source_url      TEXT NOT NULL DEFAULT '',
    last_seen_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_skills_class ON skills(class);

-- One row per orchestration run (audit aggregate)
CREATE TABLE IF NOT EXISTS runs (
    id                TEXT PRIMARY KEY,
    domain            TEXT NOT NULL DEFAULT 'combat_codex',
    status            TEXT NOT NULL DEFAULT 'running',
    started_at        INTEGER NOT NULL,
    finished_at       INTEGER,
    discovered_urls   INTEGER NOT NULL DEFAULT 0,
    keywords_upserted INTEGER NOT NULL DEFAULT 0,
    classes_attempted INTEGER NOT NULL DEFAULT 0,
    classes_ingested  INTEGER NOT NULL DEFAULT 0,
    skills_upserted   INTEGER NOT NULL DEFAULT 0,
    error             TEXT NOT NULL DEFAULT '',
    log               TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

-- Append-only audit trail: one row per URL touched per run
CREATE TABLE IF NOT EXISTS run_items (
    id           TEXT PRIMARY KEY,
    run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    item_type    TEXT NOT NULL,
    item_key     TEXT NOT NULL,
    status       TEXT NOT NULL,
    detail       TEXT NOT NULL DEFAULT '',
    skills_count INTEGER NOT NULL DEFAULT 0,
    updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_items_run ON run_items(run_id, updated_at);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
