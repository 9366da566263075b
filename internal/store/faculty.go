package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBlankFaculty is returned when adding a faculty member without a name.
var ErrBlankFaculty = errors.New("faculty name is required")

// AddFaculty adds name to the allow-list, updating the specialization if the
// name is already there.
func (s *Store) AddFaculty(name, specialization string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankFaculty
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO faculty (name, specialization, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET specialization = excluded.specialization`,
		name, specialization, now,
	)
	if err != nil {
		return fmt.Errorf("insert faculty: %w", err)
	}
	return nil
}

// UpdateSpecializations refreshes the specialization of names already on the
// allow-list. Names not on the list are ignored. It returns the number of
// members updated.
func (s *Store) UpdateSpecializations(faculty map[string]string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	updated := 0
	for name, specialization := range faculty {
		res, err := tx.Exec(`UPDATE faculty SET specialization = ? WHERE name = ?`, specialization, name)
		if err != nil {
			return 0, fmt.Errorf("update faculty %q: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *Store) RemoveFaculty(name string) error {
	_, err := s.db.Exec(`DELETE FROM faculty WHERE name = ?`, name)
	return err
}

func (s *Store) ListFaculty() ([]FacultyMember, error) {
	rows, err := s.db.Query(`SELECT name, specialization, created_at FROM faculty ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	defer rows.Close()

	var members []FacultyMember
	for rows.Next() {
		var f FacultyMember
		var createdAt string
		if err := rows.Scan(&f.Name, &f.Specialization, &createdAt); err != nil {
			return nil, err
		}
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		members = append(members, f)
	}
	return members, rows.Err()
}

// FacultyMap returns the allow-list as name -> specialization.
func (s *Store) FacultyMap() (map[string]string, error) {
	members, err := s.ListFaculty()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(members))
	for _, f := range members {
		out[f.Name] = f.Specialization
	}
	return out, nil
}
