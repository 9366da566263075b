package store

import (
	"fmt"
	"time"
)

// SaveStreams replaces the cached stream catalog.
func (s *Store) SaveStreams(streams []StreamRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM streams`); err != nil {
		return fmt.Errorf("clear streams: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, st := range streams {
		_, err := tx.Exec(
			`INSERT INTO streams (id, name, duration, total_semesters, description, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			st.ID, st.Name, st.Duration, st.TotalSemesters, st.Description, now,
		)
		if err != nil {
			return fmt.Errorf("insert stream %q: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListStreams() ([]StreamRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, name, duration, total_semesters, description, updated_at FROM streams ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var streams []StreamRecord
	for rows.Next() {
		var st StreamRecord
		var updatedAt string
		if err := rows.Scan(&st.ID, &st.Name, &st.Duration, &st.TotalSemesters, &st.Description, &updatedAt); err != nil {
			return nil, err
		}
		st.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		streams = append(streams, st)
	}
	return streams, rows.Err()
}
