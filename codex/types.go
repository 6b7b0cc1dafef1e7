package codex

import (
	"database/sql"

	"github.com/codexwatch/codexwatch/codex/internal/store"
)

// Schema is the harvester's SQLite schema, re-exported for callers that open
// the database themselves (the cmd entry point, tests).
const Schema = store.Schema

// ApplySchema creates all tables and indexes on an open database.
func ApplySchema(db *sql.DB) error { return store.ApplySchema(db) }

// Re-exported store types so API consumers don't import internal packages.
type (
	Source    = store.Source
	Keyword   = store.Keyword
	ClassMeta = store.ClassMeta
	Skill     = store.Skill
	Run       = store.Run
	RunItem   = store.RunItem
	Stats     = store.Stats
)

// RefreshOptions tune one orchestration run. Zero values fall back to the
// service config: discovery on, concurrency from Config.
type RefreshOptions struct {
	// Discover controls whether the overview page's links repopulate the
	// crawl frontier. Nil means true.
	Discover *bool `json:"discover"`

	// Concurrency overrides the class-processing pool size when positive.
	Concurrency int `json:"concurrency"`
}

func (o RefreshOptions) discover() bool {
	return o.Discover == nil || *o.Discover
}

// Summary is the result of one orchestration run, mirroring the run row's
// counters at the moment the run finished.
type Summary struct {
	RunID            string `json:"run_id"`
	Status           string `json:"status"`
	DiscoveredURLs   int    `json:"discovered_urls"`
	KeywordsUpserted int    `json:"keywords_upserted"`
	ClassesAttempted int    `json:"classes_attempted"`
	ClassesIngested  int    `json:"classes_ingested"`
	SkillsUpserted   int    `json:"skills_upserted"`
}
