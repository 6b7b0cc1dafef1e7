package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codexwatch/codexwatch/dbopen"
)

// ReplaceSkills atomically swaps a class's skill rows: previous rows for the
// class are deleted and the new batch inserted in one transaction. Re-running
// ingestion therefore never accumulates stale rows; run history lives in
// runs/run_items instead. Returns the number of rows inserted.
func (s *Store) ReplaceSkills(ctx context.Context, class string, skills []*Skill) (int, error) {
	now := time.Now().UnixMilli()
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM skills WHERE class = ?`, class); err != nil {
			return fmt.Errorf("delete skills for %q: %w", class, err)
		}
		for _, sk := range skills {
			if sk.Tags == "" {
				sk.Tags = "[]"
			}
			sk.Class = class
			sk.LastSeenAt = now
			_, err := tx.ExecContext(ctx,
				`INSERT INTO skills (class, tier, skill_points, discipline, ability,
				description_raw, "range", mana_cost, mana_growth, dod, tags,
				source_url, last_seen_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sk.Class, sk.Tier, sk.SkillPoints, sk.Discipline, sk.Ability,
				sk.DescriptionRaw, sk.Range, sk.ManaCost, sk.ManaGrowth, sk.DoD,
				sk.Tags, sk.SourceURL, sk.LastSeenAt,
			)
			if err != nil {
				return fmt.Errorf("insert skill %q: %w", sk.Ability, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(skills), nil
}

// SkillsByClass returns all skill rows for a class in insertion order.
func (s *Store) SkillsByClass(ctx context.Context, class string) ([]*Skill, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, class, tier, skill_points, discipline, ability, description_raw,
		"range", mana_cost, mana_growth, dod, tags, source_url, last_seen_at
		FROM skills WHERE class = ? ORDER BY id ASC`, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Skill
	for rows.Next() {
		var sk Skill
		if err := rows.Scan(&sk.ID, &sk.Class, &sk.Tier, &sk.SkillPoints,
			&sk.Discipline, &sk.Ability, &sk.DescriptionRaw, &sk.Range,
			&sk.ManaCost, &sk.ManaGrowth, &sk.DoD, &sk.Tags,
			&sk.SourceURL, &sk.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		result = append(result, &sk)
	}
	return result, rows.Err()
}

// CountSkills returns the total number of skill rows.
func (s *Store) CountSkills(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM skills`).Scan(&n)
	return n, err
}
