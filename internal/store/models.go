package store

import "time"

// Snapshot is a serialized document kept under a fixed name.
type Snapshot struct {
	Name    string
	Payload []byte
	SavedAt time.Time
}

// StreamRecord is cached stream metadata.
type StreamRecord struct {
	ID             string
	Name           string
	Duration       string
	TotalSemesters int
	Description    string
	UpdatedAt      time.Time
}

// FacultyMember is one name on the restricted-faculty allow-list.
type FacultyMember struct {
	Name           string
	Specialization string
	CreatedAt      time.Time
}

type Setting struct {
	Key   string
	Value string
}

// Config is the typed view of the settings table.
type Config struct {
	APIBaseURL          string
	FetchTimeout        time.Duration
	NotifyDuration      time.Duration
	ExportDir           string
	ICSWeeks            int
	RestrictedStream    string
	RestrictedSemesters []string
}
