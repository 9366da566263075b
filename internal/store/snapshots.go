package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PutSnapshot writes payload under name, replacing any previous version.
func (s *Store) PutSnapshot(name string, payload []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO snapshots (name, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		name, string(payload), now,
	)
	if err != nil {
		return fmt.Errorf("put snapshot %q: %w", name, err)
	}
	return nil
}

// Snapshot returns the payload saved under name, or nil if there is none.
func (s *Store) Snapshot(name string) ([]byte, error) {
	snap, err := s.GetSnapshot(name)
	if err != nil || snap == nil {
		return nil, err
	}
	return snap.Payload, nil
}

// GetSnapshot returns the full record, or nil if there is none.
func (s *Store) GetSnapshot(name string) (*Snapshot, error) {
	snap := &Snapshot{}
	var payload, savedAt string
	err := s.db.QueryRow(
		`SELECT name, payload, saved_at FROM snapshots WHERE name = ?`, name,
	).Scan(&snap.Name, &payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %q: %w", name, err)
	}
	snap.Payload = []byte(payload)
	snap.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
	return snap, nil
}

// DeleteSnapshot removes name. Deleting a missing snapshot is not an error.
func (s *Store) DeleteSnapshot(name string) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	return nil
}

func (s *Store) ListSnapshots() ([]Snapshot, error) {
	rows, err := s.db.Query(`SELECT name, payload, saved_at FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var payload, savedAt string
		if err := rows.Scan(&snap.Name, &payload, &savedAt); err != nil {
			return nil, err
		}
		snap.Payload = []byte(payload)
		snap.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
