package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertSource inserts a source or, if the URL is already registered,
// refreshes its last_seen_at. Kind is updated on re-observation; enabled,
// discovered_from and created_at keep their original values.
func (s *Store) UpsertSource(ctx context.Context, src *Source) error {
	now := time.Now().UnixMilli()
	if src.CreatedAt == 0 {
		src.CreatedAt = now
	}
	src.LastSeenAt = now
	if src.Kind == "" {
		src.Kind = KindClass
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO sources (id, url, kind, enabled, discovered_from, last_seen_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			kind = excluded.kind,
			last_seen_at = excluded.last_seen_at`,
		src.ID, src.URL, src.Kind, src.Enabled, src.DiscoveredFrom,
		src.LastSeenAt, src.CreatedAt,
	)
	return err
}

// GetSourceByURL returns the source with the given URL, or nil.
func (s *Store) GetSourceByURL(ctx context.Context, url string) (*Source, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, url, kind, enabled, discovered_from, last_seen_at, created_at
		FROM sources WHERE url = ?`, url)
	var src Source
	var enabled int
	err := row.Scan(&src.ID, &src.URL, &src.Kind, &enabled,
		&src.DiscoveredFrom, &src.LastSeenAt, &src.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}
	src.Enabled = enabled != 0
	return &src, nil
}

// EnabledClassSources returns all enabled class-kind sources, ordered by URL
// for deterministic processing.
func (s *Store) EnabledClassSources(ctx context.Context) ([]*Source, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, url, kind, enabled, discovered_from, last_seen_at, created_at
		FROM sources WHERE kind = ? AND enabled = 1
		ORDER BY url ASC`, KindClass)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var src Source
		var enabled int
		if err := rows.Scan(&src.ID, &src.URL, &src.Kind, &enabled,
			&src.DiscoveredFrom, &src.LastSeenAt, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Enabled = enabled != 0
		sources = append(sources, &src)
	}
	return sources, rows.Err()
}

// ListSources returns all sources, newest first.
func (s *Store) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, url, kind, enabled, discovered_from, last_seen_at, created_at
		FROM sources ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var src Source
		var enabled int
		if err := rows.Scan(&src.ID, &src.URL, &src.Kind, &enabled,
			&src.DiscoveredFrom, &src.LastSeenAt, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Enabled = enabled != 0
		sources = append(sources, &src)
	}
	return sources, rows.Err()
}

// SetSourceEnabled toggles a source. Only an external actor calls this; the
// reconciler never disables sources on its own.
func (s *Store) SetSourceEnabled(ctx context.Context, url string, enabled bool) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE sources SET enabled = ? WHERE url = ?`, enabled, url)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("source not found: %s", url)
	}
	return nil
}
