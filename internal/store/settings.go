package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// EnvAPIURL overrides the api_base_url setting when set.
const EnvAPIURL = "TIMETABLE_API_URL"

// LoadConfig reads the settings table into a Config. Unparseable numbers
// fall back to their defaults.
func (s *Store) LoadConfig() (Config, error) {
	settings, err := s.GetAllSettings()
	if err != nil {
		return Config{}, err
	}
	vals := make(map[string]string, len(settings))
	for _, st := range settings {
		vals[st.Key] = st.Value
	}

	cfg := Config{
		APIBaseURL:       vals["api_base_url"],
		FetchTimeout:     secondsOr(vals["fetch_timeout"], 5),
		NotifyDuration:   secondsOr(vals["notify_seconds"], 3),
		ExportDir:        vals["export_dir"],
		ICSWeeks:         intOr(vals["ics_weeks"], 16),
		RestrictedStream: strings.TrimSpace(vals["restricted_stream"]),
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIBaseURL = v
	}
	for _, sem := range strings.Split(vals["restricted_semesters"], ",") {
		if sem = strings.TrimSpace(sem); sem != "" {
			cfg.RestrictedSemesters = append(cfg.RestrictedSemesters, sem)
		}
	}
	return cfg, nil
}

func secondsOr(v string, fallback int) time.Duration {
	return time.Duration(intOr(v, fallback)) * time.Second
}

func intOr(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
