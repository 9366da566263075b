package timetable

import (
	"sort"
	"strings"
)

// FacultyPolicy restricts faculty names for one stream and a set of its
// semesters. A zero policy restricts nothing.
type FacultyPolicy struct {
	Stream    string
	Semesters []string
	// Faculty maps allowed names to their specialization.
	Faculty map[string]string
}

// DefaultFacultyPolicy is the AI/ML rule: semesters 1 and 3 may only use the
// semester 1 faculty.
func DefaultFacultyPolicy() FacultyPolicy {
	return FacultyPolicy{
		Stream:    "MSC_AI_ML",
		Semesters: []string{"1", "3"},
		Faculty: map[string]string{
			"Dr. Suchit Purohit":   "Python Programming",
			"Ms. Anju Jha":         "Artificial Intelligence",
			"Mr. Vishal Prajapati": "Mathematical Foundation",
			"Dr. Jigna Satani":     "Object Oriented Programming",
			"Ms.Arpana Sonawane":   "Linear Algebra & Numerical Methods",
		},
	}
}

// Applies reports whether the policy governs the given scope.
func (p FacultyPolicy) Applies(stream, semester string) bool {
	if p.Stream == "" || stream != p.Stream {
		return false
	}
	for _, s := range p.Semesters {
		if s == semester {
			return true
		}
	}
	return false
}

func (p FacultyPolicy) Allowed(name string) bool {
	_, ok := p.Faculty[name]
	return ok
}

// Names returns the allow-list sorted by name.
func (p FacultyPolicy) Names() []string {
	names := make([]string, 0, len(p.Faculty))
	for n := range p.Faculty {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p FacultyPolicy) rejection() *ValidationError {
	return &ValidationError{
		Reason: "only these faculty members may be scheduled here: " + strings.Join(p.Names(), ", "),
	}
}
