package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/codexwatch/codexwatch/dbopen"
	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if err := ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return NewStore(db)
}

func TestApplySchema(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"sources", "keywords", "class_meta", "skills", "runs", "run_items"} {
		var name string
		err := s.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestUpsertSourceRefreshesLastSeen(t *testing.T) {
	// WHAT: Re-upserting the same URL keeps one row and refreshes last_seen_at.
	// WHY: Sources are unique by URL and never duplicated across runs.
	s := openTestStore(t)
	ctx := context.Background()

	first := &Source{ID: "s1", URL: "https://docs.example.com/gameplay/combat/warrior", Kind: KindClass, Enabled: true}
	if err := s.UpsertSource(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetSourceByURL(ctx, first.URL)
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	created := got.CreatedAt

	time.Sleep(2 * time.Millisecond)
	second := &Source{ID: "s2", URL: first.URL, Kind: KindClass, Enabled: true}
	if err := s.UpsertSource(ctx, second); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	var count int
	s.DB.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count)
	if count != 1 {
		t.Fatalf("want 1 source row, got %d", count)
	}

	got, _ = s.GetSourceByURL(ctx, first.URL)
	if got.ID != "s1" {
		t.Errorf("original id should survive re-observation, got %q", got.ID)
	}
	if got.CreatedAt != created {
		t.Errorf("created_at changed on re-observation")
	}
	if got.LastSeenAt <= created {
		t.Errorf("last_seen_at not refreshed: %d <= %d", got.LastSeenAt, created)
	}
}

func TestSetSourceEnabled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src := &Source{ID: "s1", URL: "https://docs.example.com/gameplay/combat/pirate", Kind: KindClass, Enabled: true}
	if err := s.UpsertSource(ctx, src); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SetSourceEnabled(ctx, src.URL, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	got, _ := s.GetSourceByURL(ctx, src.URL)
	if got.Enabled {
		t.Error("source should be disabled")
	}
	if err := s.SetSourceEnabled(ctx, "https://docs.example.com/nope", false); err == nil {
		t.Error("expected error for unknown URL")
	}
}

func TestEnabledClassSourcesExcludesOverviewAndDisabled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.UpsertSource(ctx, &Source{ID: "o", URL: "https://d/gameplay/combat", Kind: KindOverview, Enabled: true})
	s.UpsertSource(ctx, &Source{ID: "a", URL: "https://d/gameplay/combat/archer", Kind: KindClass, Enabled: true})
	s.UpsertSource(ctx, &Source{ID: "b", URL: "https://d/gameplay/combat/wizard", Kind: KindClass, Enabled: true})
	s.UpsertSource(ctx, &Source{ID: "c", URL: "https://d/gameplay/combat/thief", Kind: KindClass, Enabled: false})

	got, err := s.EnabledClassSources(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 enabled class sources, got %d", len(got))
	}
	if got[0].URL != "https://d/gameplay/combat/archer" || got[1].URL != "https://d/gameplay/combat/wizard" {
		t.Errorf("wrong order: %q, %q", got[0].URL, got[1].URL)
	}
}

func TestUpsertKeywordsIdempotent(t *testing.T) {
	// WHAT: Upserting the same keyword list twice leaves one row per keyword
	// with the latest definition.
	// WHY: The overview page is re-parsed on every run.
	s := openTestStore(t)
	ctx := context.Background()

	batch := []*Keyword{
		{Keyword: "DoD", Definition: "Degree of Difficulty", SourceURL: "https://d/gameplay/combat"},
		{Keyword: "Tier", Definition: "Skill tier", SourceURL: "https://d/gameplay/combat"},
	}
	if _, err := s.UpsertKeywords(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	batch[0].Definition = "Degree of Difficulty (revised)"
	n, err := s.UpsertKeywords(ctx, batch)
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if n != 2 {
		t.Errorf("want 2 upserted, got %d", n)
	}

	kws, _ := s.ListKeywords(ctx)
	if len(kws) != 2 {
		t.Fatalf("want 2 keyword rows, got %d", len(kws))
	}
	if kws[0].Definition != "Degree of Difficulty (revised)" {
		t.Errorf("definition not overwritten: %q", kws[0].Definition)
	}
}

func TestReplaceSkillsSwapsPreviousBatch(t *testing.T) {
	// WHAT: A second ingestion for a class replaces, not appends to, its rows.
	// WHY: Resolution of the unbounded-accumulation hazard — re-runs must not
	// pile up stale duplicates.
	s := openTestStore(t)
	ctx := context.Background()

	sp := func(v float64) *float64 { return &v }
	first := []*Skill{
		{Ability: "Slash", SkillPoints: sp(1), SourceURL: "https://d/c/warrior"},
		{Ability: "Cleave", SkillPoints: sp(2), SourceURL: "https://d/c/warrior"},
		{Ability: "Rend", SkillPoints: sp(3), SourceURL: "https://d/c/warrior"},
	}
	if _, err := s.ReplaceSkills(ctx, "Warrior", first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := []*Skill{
		{Ability: "Slash", SkillPoints: sp(1), SourceURL: "https://d/c/warrior"},
		{Ability: "Whirlwind", SkillPoints: sp(4), SourceURL: "https://d/c/warrior"},
	}
	n, err := s.ReplaceSkills(ctx, "Warrior", second)
	if err != nil {
		t.Fatalf("re-replace: %v", err)
	}
	if n != 2 {
		t.Errorf("want 2 inserted, got %d", n)
	}

	rows, _ := s.SkillsByClass(ctx, "Warrior")
	if len(rows) != 2 {
		t.Fatalf("want 2 rows after swap, got %d", len(rows))
	}
	if rows[0].Ability != "Slash" || rows[1].Ability != "Whirlwind" {
		t.Errorf("unexpected rows: %q, %q", rows[0].Ability, rows[1].Ability)
	}
	if rows[0].Tier != TierUnknown {
		t.Errorf("tier sentinel: got %d", rows[0].Tier)
	}
	if rows[0].ManaCost != nil {
		t.Errorf("unset mana cost should scan as nil")
	}
}

func TestReplaceSkillsOtherClassUntouched(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.ReplaceSkills(ctx, "Warrior", []*Skill{{Ability: "Slash"}})
	s.ReplaceSkills(ctx, "Wizard", []*Skill{{Ability: "Fireball"}})
	s.ReplaceSkills(ctx, "Warrior", []*Skill{{Ability: "Bash"}})

	wiz, _ := s.SkillsByClass(ctx, "Wizard")
	if len(wiz) != 1 || wiz[0].Ability != "Fireball" {
		t.Errorf("wizard rows disturbed by warrior swap: %+v", wiz)
	}
}

func TestRunLifecycle(t *testing.T) {
	// WHAT: Start → incremental patches → terminal patch stamps finished_at.
	// WHY: finished_at must be set iff status is terminal.
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "run-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if run.Status != RunRunning || run.Domain != "combat_codex" {
		t.Fatalf("unexpected run: %+v", run)
	}

	got, _ := s.GetRun(ctx, "run-1")
	if got.FinishedAt != nil {
		t.Error("finished_at must be nil while running")
	}

	five := 5
	if err := s.UpdateRun(ctx, "run-1", RunPatch{DiscoveredURLs: &five, AppendLog: "discovery done"}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	status := RunSuccess
	two, one := 2, 1
	if err := s.UpdateRun(ctx, "run-1", RunPatch{
		ClassesAttempted: &two, ClassesIngested: &one, SkillsUpserted: &five, Status: &status,
	}); err != nil {
		t.Fatalf("final patch: %v", err)
	}

	got, _ = s.GetRun(ctx, "run-1")
	if got.Status != RunSuccess {
		t.Errorf("status: %q", got.Status)
	}
	if got.FinishedAt == nil {
		t.Error("finished_at not stamped on terminal status")
	}
	if got.DiscoveredURLs != 5 || got.ClassesAttempted != 2 || got.ClassesIngested != 1 || got.SkillsUpserted != 5 {
		t.Errorf("counters: %+v", got)
	}
	if got.Log == "" {
		t.Error("log not appended")
	}
}

func TestUpdateRunUnknownID(t *testing.T) {
	s := openTestStore(t)
	status := RunFailed
	if err := s.UpdateRun(context.Background(), "ghost", RunPatch{Status: &status}); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestRecordItemAndRunItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.StartRun(ctx, "run-1", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	items := []*RunItem{
		{ID: "i1", RunID: "run-1", ItemType: ItemKeywords, ItemKey: "https://d/gameplay/combat", Status: ItemSuccess},
		{ID: "i2", RunID: "run-1", ItemType: ItemClassURL, ItemKey: "https://d/gameplay/combat/warrior", Status: ItemSuccess, SkillsCount: 5},
		{ID: "i3", RunID: "run-1", ItemType: ItemClassURL, ItemKey: "https://d/gameplay/combat/monk", Status: ItemFailed, Detail: "navigate: timeout"},
	}
	for _, it := range items {
		if err := s.RecordItem(ctx, it); err != nil {
			t.Fatalf("record %s: %v", it.ID, err)
		}
	}

	got, err := s.RunItems(ctx, "run-1")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 items, got %d", len(got))
	}
	if got[2].Detail != "navigate: timeout" {
		t.Errorf("detail: %q", got[2].Detail)
	}
}

func TestFailStaleRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.StartRun(ctx, "old", "")
	s.StartRun(ctx, "fresh", "")
	// Backdate the first run.
	old := time.Now().Add(-3 * time.Hour).UnixMilli()
	if _, err := s.DB.Exec(`UPDATE runs SET started_at = ? WHERE id = 'old'`, old); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := s.FailStaleRuns(ctx, time.Hour)
	if err != nil {
		t.Fatalf("fail stale: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 stale run failed, got %d", n)
	}

	got, _ := s.GetRun(ctx, "old")
	if got.Status != RunFailed || got.FinishedAt == nil {
		t.Errorf("stale run not finalized: %+v", got)
	}
	fresh, _ := s.GetRun(ctx, "fresh")
	if fresh.Status != RunRunning {
		t.Errorf("fresh run touched: %+v", fresh)
	}
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.UpsertSource(ctx, &Source{ID: "s", URL: "https://d/gameplay/combat", Kind: KindOverview, Enabled: true})
	s.UpsertKeywords(ctx, []*Keyword{{Keyword: "DoD"}})
	s.ReplaceClassMeta(ctx, &ClassMeta{Class: "Warrior"})
	s.ReplaceSkills(ctx, "Warrior", []*Skill{{Ability: "Slash"}})
	s.StartRun(ctx, "r", "")

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := Stats{Sources: 1, Keywords: 1, Classes: 1, Skills: 1, Runs: 1}
	if *st != want {
		t.Errorf("stats: got %+v want %+v", *st, want)
	}
}

// Guard against driver differences in nullable scans.
func TestNullableSkillColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var r sql.NullFloat64
	s.ReplaceSkills(ctx, "Monk", []*Skill{{Ability: "Meditate"}})
	err := s.DB.QueryRowContext(ctx, `SELECT "range" FROM skills WHERE class='Monk'`).Scan(&r)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if r.Valid {
		t.Error("range should be NULL")
	}
}
