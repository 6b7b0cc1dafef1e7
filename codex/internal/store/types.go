package store

// Source kinds.
const (
	KindOverview = "overview"
	KindClass    = "class"
)

// Run statuses.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunFailed  = "failed"
)

// Run item types.
const (
	ItemKeywords = "keywords"
	ItemClassURL = "class_url"
)

// Run item statuses. Skipped means the page rendered but yielded zero skill
// rows — ambiguous between a genuinely empty page and a heuristic mismatch.
const (
	ItemSuccess = "success"
	ItemSkipped = "skipped"
	ItemFailed  = "failed"
)

// TierUnknown is the sentinel stored when the source table carries no tier
// information. The column exists for future per-tier segmentation; zero is
// "unknown", not "tier zero".
const TierUnknown = 0

// Source is a crawlable URL: the overview page or a discovered class page.
// Never auto-deleted; enabled is only toggled by an external actor.
type Source struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Kind           string `json:"kind"`
	Enabled        bool   `json:"enabled"`
	DiscoveredFrom string `json:"discovered_from"`
	LastSeenAt     int64  `json:"last_seen_at"`
	CreatedAt      int64  `json:"created_at"`
}

// Keyword is one glossary entry parsed from the overview page.
type Keyword struct {
	Keyword    string `json:"keyword"`
	Definition string `json:"definition"`
	SourceURL  string `json:"source_url"`
	LastSeenAt int64  `json:"last_seen_at"`
}

// ClassMeta is per-class page metadata, replaced wholesale on each
// successful extraction. Class is derived from the URL's final path segment;
// two URLs mapping to the same name overwrite each other.
type ClassMeta struct {
	Class          string `json:"class"`
	SourceURL      string `json:"source_url"`
	LastUpdateNote string `json:"last_update_note"`
	Maturity       string `json:"maturity"`
	Disciplines    string `json:"disciplines"` // JSON array, currently always []
	Summary        string `json:"summary"`
	LastSeenAt     int64  `json:"last_seen_at"`
}

// Skill is one extracted ability row. Nil pointers mean the source cell was
// empty or unparseable.
type Skill struct {
	ID             int64    `json:"id"`
	Class          string   `json:"class"`
	Tier           int      `json:"tier"`
	SkillPoints    *float64 `json:"skill_points"`
	Discipline     string   `json:"discipline"`
	Ability        string   `json:"ability"`
	DescriptionRaw string   `json:"description_raw"`
	Range          *float64 `json:"range"`
	ManaCost       *float64 `json:"mana_cost"`
	ManaGrowth     *float64 `json:"mana_growth"`
	DoD            *float64 `json:"dod"`
	Tags           string   `json:"tags"` // JSON array, currently always []
	SourceURL      string   `json:"source_url"`
	LastSeenAt     int64    `json:"last_seen_at"`
}

// Run is the audit aggregate for one orchestration execution.
// FinishedAt is set iff status is success or failed.
type Run struct {
	ID               string `json:"id"`
	Domain           string `json:"domain"`
	Status           string `json:"status"`
	StartedAt        int64  `json:"started_at"`
	FinishedAt       *int64 `json:"finished_at"`
	DiscoveredURLs   int    `json:"discovered_urls"`
	KeywordsUpserted int    `json:"keywords_upserted"`
	ClassesAttempted int    `json:"classes_attempted"`
	ClassesIngested  int    `json:"classes_ingested"`
	SkillsUpserted   int    `json:"skills_upserted"`
	Error            string `json:"error"`
	Log              string `json:"log"`
}

// RunItem is one audit row per URL processed in a run.
type RunItem struct {
	ID          string `json:"id"`
	RunID       string `json:"run_id"`
	ItemType    string `json:"item_type"`
	ItemKey     string `json:"item_key"`
	Status      string `json:"status"`
	Detail      string `json:"detail"`
	SkillsCount int    `json:"skills_count"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Stats are aggregate counters backing the status endpoint.
type Stats struct {
	Sources  int `json:"sources"`
	Keywords int `json:"keywords"`
	Classes  int `json:"classes"`
	Skills   int `json:"skills"`
	Runs     int `json:"runs"`
}
