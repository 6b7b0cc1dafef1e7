package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RunPatch is a partial update merged into a run row. Nil fields are left
// untouched. Counters only ever move forward within a run; callers pass the
// new absolute values.
type RunPatch struct {
	DiscoveredURLs   *int
	KeywordsUpserted *int
	ClassesAttempted *int
	ClassesIngested  *int
	SkillsUpserted   *int
	Status           *string
	Error            *string
	AppendLog        string
}

// StartRun inserts a run row with status=running and returns it.
func (s *Store) StartRun(ctx context.Context, id, domain string) (*Run, error) {
	if domain == "" {
		domain = "combat_codex"
	}
	run := &Run{
		ID:        id,
		Domain:    domain,
		Status:    RunRunning,
		StartedAt: time.Now().UnixMilli(),
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, domain, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Domain, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

// UpdateRun merges patch into the run row. When the patch sets a terminal
// status (success or failed) it also stamps finished_at.
func (s *Store) UpdateRun(ctx context.Context, id string, patch RunPatch) error {
	var sets []string
	var args []any

	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.DiscoveredURLs != nil {
		add("discovered_urls", *patch.DiscoveredURLs)
	}
	if patch.KeywordsUpserted != nil {
		add("keywords_upserted", *patch.KeywordsUpserted)
	}
	if patch.ClassesAttempted != nil {
		add("classes_attempted", *patch.ClassesAttempted)
	}
	if patch.ClassesIngested != nil {
		add("classes_ingested", *patch.ClassesIngested)
	}
	if patch.SkillsUpserted != nil {
		add("skills_upserted", *patch.SkillsUpserted)
	}
	if patch.Error != nil {
		add("error", *patch.Error)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
		if *patch.Status == RunSuccess || *patch.Status == RunFailed {
			add("finished_at", time.Now().UnixMilli())
		}
	}
	if patch.AppendLog != "" {
		sets = append(sets, "log = log || ?")
		args = append(args, patch.AppendLog+"\n")
	}

	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := s.DB.ExecContext(ctx,
		`UPDATE runs SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// RecordItem appends a run item. Append-only: items are never updated.
func (s *Store) RecordItem(ctx context.Context, item *RunItem) error {
	item.UpdatedAt = time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO run_items (id, run_id, item_type, item_key, status, detail,
		skills_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.RunID, item.ItemType, item.ItemKey, item.Status,
		item.Detail, item.SkillsCount, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record item: %w", err)
	}
	return nil
}

// GetRun returns a run by id, or nil.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, domain, status, started_at, finished_at, discovered_urls,
		keywords_upserted, classes_attempted, classes_ingested, skills_upserted,
		error, log
		FROM runs WHERE id = ?`, id)
	var r Run
	err := row.Scan(&r.ID, &r.Domain, &r.Status, &r.StartedAt, &r.FinishedAt,
		&r.DiscoveredURLs, &r.KeywordsUpserted, &r.ClassesAttempted,
		&r.ClassesIngested, &r.SkillsUpserted, &r.Error, &r.Log)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, domain, status, started_at, finished_at, discovered_urls,
		keywords_upserted, classes_attempted, classes_ingested, skills_upserted,
		error, log
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Domain, &r.Status, &r.StartedAt, &r.FinishedAt,
			&r.DiscoveredURLs, &r.KeywordsUpserted, &r.ClassesAttempted,
			&r.ClassesIngested, &r.SkillsUpserted, &r.Error, &r.Log); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// RunItems returns the audit trail for a run, in insertion order.
func (s *Store) RunItems(ctx context.Context, runID string) ([]*RunItem, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, run_id, item_type, item_key, status, detail, skills_count, updated_at
		FROM run_items WHERE run_id = ? ORDER BY updated_at ASC, id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*RunItem
	for rows.Next() {
		var item RunItem
		if err := rows.Scan(&item.ID, &item.RunID, &item.ItemType, &item.ItemKey,
			&item.Status, &item.Detail, &item.SkillsCount, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}

// FailStaleRuns marks runs stuck in status=running for longer than maxAge as
// failed. A crash mid-run leaves the run row orphaned; this is the staleness
// recovery the HTTP layer invokes on boot. Returns the number of runs failed.
func (s *Store) FailStaleRuns(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	now := time.Now().UnixMilli()
	res, err := s.DB.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error = 'stale: process exited mid-run'
		WHERE status = ? AND started_at < ?`,
		RunFailed, now, RunRunning, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Stats returns aggregate row counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	queries := []struct {
		q    string
		dest *int
	}{
		{`SELECT COUNT(*) FROM sources`, &st.Sources},
		{`SELECT COUNT(*) FROM keywords`, &st.Keywords},
		{`SELECT COUNT(*) FROM class_meta`, &st.Classes},
		{`SELECT COUNT(*) FROM skills`, &st.Skills},
		{`SELECT COUNT(*) FROM runs`, &st.Runs},
	}
	for _, q := range queries {
		if err := s.DB.QueryRowContext(ctx, q.q).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return &st, nil
}
