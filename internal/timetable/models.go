package timetable

import (
	"fmt"
	"strings"
	"time"
)

type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

// Days lists the grid columns in display order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

type TimeSlot string

// TimeSlots lists the grid rows in display order.
var TimeSlots = []TimeSlot{
	"9:00 AM - 11:00 AM",
	"11:00 AM - 12:00 PM",
	"12:00 PM - 1:00 PM",
	"1:00 PM - 2:00 PM",
	"2:00 PM - 3:00 PM",
	"3:00 PM - 4:00 PM",
	"4:00 PM - 5:00 PM",
}

// ClassTypes are the form choices. Entries may still carry any free text.
var ClassTypes = []string{"Lecture", "Lab", "Tutorial", "Break"}

func ValidDay(d Day) bool {
	for _, v := range Days {
		if v == d {
			return true
		}
	}
	return false
}

func ValidTimeSlot(ts TimeSlot) bool {
	for _, v := range TimeSlots {
		if v == ts {
			return true
		}
	}
	return false
}

// Bounds returns the start and end of the slot as offsets from midnight.
func (ts TimeSlot) Bounds() (start, end time.Duration, err error) {
	parts := strings.Split(string(ts), " - ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time slot %q: expected two bounds", ts)
	}
	var offs [2]time.Duration
	for i, p := range parts {
		t, err := time.Parse("3:04 PM", strings.TrimSpace(p))
		if err != nil {
			return 0, 0, fmt.Errorf("time slot %q: %w", ts, err)
		}
		offs[i] = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	}
	return offs[0], offs[1], nil
}

type Stream struct {
	ID             string `json:"-"`
	Name           string `json:"name"`
	Duration       string `json:"duration"`
	TotalSemesters int    `json:"totalSemesters"`
	Description    string `json:"description"`
}

// DefaultStreams is the compiled-in catalog used until the API answers.
func DefaultStreams() map[string]Stream {
	return map[string]Stream{
		"MCA": {
			ID:             "MCA",
			Name:           "Master of Computer Applications",
			Duration:       "2 Years",
			TotalSemesters: 4,
			Description:    "Advanced computer science and applications program",
		},
		"MSC_AI_ML": {
			ID:             "MSC_AI_ML",
			Name:           "MSc Artificial Intelligence & Machine Learning",
			Duration:       "2 Years",
			TotalSemesters: 4,
			Description:    "Specialized program in AI and ML technologies",
		},
		"PGDCSA": {
			ID:             "PGDCSA",
			Name:           "Post Graduate Diploma in Computer Science & Applications",
			Duration:       "5 Years",
			TotalSemesters: 10,
			Description:    "Intensive computer science diploma program",
		},
		"INTEGRATED_CS": {
			ID:             "INTEGRATED_CS",
			Name:           "Integrated Computer Science",
			Duration:       "5 Years",
			TotalSemesters: 10,
			Description:    "Comprehensive integrated computer science program",
		},
	}
}

type ClassEntry struct {
	SubjectName string   `json:"subjectName"`
	FacultyName string   `json:"facultyName"`
	ClassType   string   `json:"classType"`
	Room        string   `json:"room"`
	Day         Day      `json:"day"`
	TimeSlot    TimeSlot `json:"timeSlot"`
}

// Key returns the slot key the entry is stored under.
func (e ClassEntry) Key() SlotKey {
	return NewSlotKey(e.Day, e.TimeSlot)
}

// DisplayKind classifies the entry for rendering: break, lab, or the
// lower-cased class type.
func (e ClassEntry) DisplayKind() string {
	subject := strings.ToLower(e.SubjectName)
	if strings.Contains(subject, "break") {
		return "break"
	}
	kind := strings.ToLower(strings.TrimSpace(e.ClassType))
	if kind == "" {
		kind = "lecture"
	}
	if strings.Contains(kind, "lab") ||
		strings.Contains(strings.ToLower(e.Room), "lab") ||
		strings.Contains(subject, "lab") {
		return "lab"
	}
	return kind
}

// SlotKey identifies a cell within a scope: "<day>-<timeSlot>".
type SlotKey string

func NewSlotKey(d Day, ts TimeSlot) SlotKey {
	return SlotKey(string(d) + "-" + string(ts))
}

// ScopeKey returns the data key for a stream, optionally narrowed to a semester.
func ScopeKey(stream, semester string) string {
	if semester == "" {
		return stream
	}
	return stream + "_" + semester
}

// Entries maps slot keys to classes within one scope.
type Entries map[SlotKey]ClassEntry

// Data is the full timetable: scope key -> slot key -> class.
type Data map[string]Entries

// Clone returns a deep copy.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for scope, entries := range d {
		out[scope] = entries.Clone()
	}
	return out
}

func (e Entries) Clone() Entries {
	out := make(Entries, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// SelectionState is the position in the selection lifecycle.
type SelectionState int

const (
	NoStream SelectionState = iota
	StreamSelected
	StreamAndSemesterSelected
)

func (s SelectionState) String() string {
	switch s {
	case StreamSelected:
		return "stream"
	case StreamAndSemesterSelected:
		return "stream+semester"
	}
	return "none"
}
