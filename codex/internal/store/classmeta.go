package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ReplaceClassMeta inserts or fully overwrites the metadata row for a class.
func (s *Store) ReplaceClassMeta(ctx context.Context, m *ClassMeta) error {
	if m.Disciplines == "" {
		m.Disciplines = "[]"
	}
	if m.Maturity == "" {
		m.Maturity = "unknown"
	}
	m.LastSeenAt = time.Now().UnixMilli()

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO class_meta (class, source_url, last_update_note, maturity,
		disciplines, summary, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(class) DO UPDATE SET
			source_url = excluded.source_url,
			last_update_note = excluded.last_update_note,
			maturity = excluded.maturity,
			disciplines = excluded.disciplines,
			summary = excluded.summary,
			last_seen_at = excluded.last_seen_at`,
		m.Class, m.SourceURL, m.LastUpdateNote, m.Maturity,
		m.Disciplines, m.Summary, m.LastSeenAt,
	)
	return err
}

// GetClassMeta returns the metadata row for a class, or nil.
func (s *Store) GetClassMeta(ctx context.Context, class string) (*ClassMeta, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT class, source_url, last_update_note, maturity, disciplines, summary, last_seen_at
		FROM class_meta WHERE class = ?`, class)
	var m ClassMeta
	err := row.Scan(&m.Class, &m.SourceURL, &m.LastUpdateNote, &m.Maturity,
		&m.Disciplines, &m.Summary, &m.LastSeenAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan class_meta: %w", err)
	}
	return &m, nil
}

// ListClassMeta returns all class metadata rows, alphabetical by class.
func (s *Store) ListClassMeta(ctx context.Context) ([]*ClassMeta, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT class, source_url, last_update_note, maturity, disciplines, summary, last_seen_at
		FROM class_meta ORDER BY class ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ClassMeta
	for rows.Next() {
		var m ClassMeta
		if err := rows.Scan(&m.Class, &m.SourceURL, &m.LastUpdateNote, &m.Maturity,
			&m.Disciplines, &m.Summary, &m.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan class_meta: %w", err)
		}
		result = append(result, &m)
	}
	return result, rows.Err()
}
