package store

import (
	"context"
	"fmt"
	"time"
)

// UpsertKeywords inserts or fully overwrites keyword rows. Returns the number
// of keywords written.
func (s *Store) UpsertKeywords(ctx context.Context, kws []*Keyword) (int, error) {
	if len(kws) == 0 {
		return 0, nil
	}
	now := time.Now().UnixMilli()
	for _, kw := range kws {
		_, err := s.DB.ExecContext(ctx,
			`INSERT INTO keywords (keyword, definition, source_url, last_seen_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(keyword) DO UPDATE SET
				definition = excluded.definition,
				source_url = excluded.source_url,
				last_seen_at = excluded.last_seen_at`,
			kw.Keyword, kw.Definition, kw.SourceURL, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert keyword %q: %w", kw.Keyword, err)
		}
	}
	return len(kws), nil
}

// ListKeywords returns all keywords, alphabetical.
func (s *Store) ListKeywords(ctx context.Context) ([]*Keyword, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT keyword, definition, source_url, last_seen_at
		FROM keywords ORDER BY keyword ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Keyword
	for rows.Next() {
		var kw Keyword
		if err := rows.Scan(&kw.Keyword, &kw.Definition, &kw.SourceURL, &kw.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		result = append(result, &kw)
	}
	return result, rows.Err()
}
