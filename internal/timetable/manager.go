// Package timetable holds the editor's session state: stream and semester
// selection, per-scope class entries, validation, snapshots and remote loads.
//
// A Manager has a single writer. The UI loop calls every method except
// Fetch.Run, which may run on another goroutine and only touches the Source.
package timetable

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

const DefaultFetchTimeout = 5 * time.Second

// Backend persists named snapshots. Snapshot returns a nil payload and a nil
// error when nothing has been saved under name.
type Backend interface {
	Snapshot(name string) ([]byte, error)
	PutSnapshot(name string, payload []byte) error
	DeleteSnapshot(name string) error
}

// Source is the remote timetable API.
type Source interface {
	Streams(ctx context.Context) (map[string]Stream, error)
	Timetable(ctx context.Context, stream, semester string) (Entries, error)
}

type Options struct {
	Streams      map[string]Stream
	Policy       FacultyPolicy
	Backend      Backend
	Source       Source
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

type Manager struct {
	streams map[string]Stream
	policy  FacultyPolicy
	backend Backend
	source  Source
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time

	data      Data
	stream    string
	semester  string
	lastSaved time.Time
	dirty     bool

	fetchToken string
}

func New(opts Options) *Manager {
	m := &Manager{
		streams: opts.Streams,
		policy:  opts.Policy,
		backend: opts.Backend,
		source:  opts.Source,
		timeout: opts.FetchTimeout,
		log:     opts.Logger,
		now:     opts.Now,
		data:    Data{},
	}
	if m.streams == nil {
		m.streams = DefaultStreams()
	}
	if m.timeout <= 0 {
		m.timeout = DefaultFetchTimeout
	}
	if m.log == nil {
		m.log = slog.New(slog.DiscardHandler)
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// --- Selection ---

func (m *Manager) State() SelectionState {
	switch {
	case m.stream == "":
		return NoStream
	case m.semester == "":
		return StreamSelected
	}
	return StreamAndSemesterSelected
}

func (m *Manager) Stream() string   { return m.stream }
func (m *Manager) Semester() string { return m.semester }

// StreamInfo returns metadata for the selected stream.
func (m *Manager) StreamInfo() (Stream, bool) {
	s, ok := m.streams[m.stream]
	return s, ok
}

// Streams returns the catalog sorted by id.
func (m *Manager) Streams() []Stream {
	out := make([]Stream, 0, len(m.streams))
	for id, s := range m.streams {
		s.ID = id
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetStreams replaces the catalog. An unknown current stream is deselected.
func (m *Manager) SetStreams(streams map[string]Stream) {
	if len(streams) == 0 {
		return
	}
	m.streams = streams
	if _, ok := m.streams[m.stream]; m.stream != "" && !ok {
		m.stream, m.semester = "", ""
	}
}

// SelectStream moves to StreamSelected. An empty or unknown id clears the
// selection.
func (m *Manager) SelectStream(id string) {
	m.fetchToken = ""
	if _, ok := m.streams[id]; id == "" || !ok {
		if id != "" {
			m.log.Info("unknown stream, clearing selection", "stream", id)
		}
		m.stream, m.semester = "", ""
		m.saveSession()
		return
	}
	m.stream = id
	m.semester = ""
	if m.data[id] == nil {
		m.data[id] = Entries{}
	}
	m.saveSession()
}

// Semesters lists the semester options of the selected stream.
func (m *Manager) Semesters() []string {
	s, ok := m.streams[m.stream]
	if !ok {
		return nil
	}
	out := make([]string, 0, s.TotalSemesters)
	for i := 1; i <= s.TotalSemesters; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func (m *Manager) validSemester(id string) bool {
	n, err := strconv.Atoi(id)
	if err != nil {
		return false
	}
	s, ok := m.streams[m.stream]
	return ok && n >= 1 && n <= s.TotalSemesters
}

// SelectSemester moves to StreamAndSemesterSelected and returns the remote
// load for the new scope. An empty or out-of-range id moves back to
// StreamSelected and returns nil. Any earlier fetch is superseded.
func (m *Manager) SelectSemester(id string) *Fetch {
	m.fetchToken = ""
	if m.stream == "" {
		return nil
	}
	if id == "" || !m.validSemester(id) {
		m.semester = ""
		m.saveSession()
		return nil
	}
	m.semester = id
	m.saveSession()
	return m.newFetch()
}

// Header is the title of the current view, e.g. "MCA name - Semester 2".
func (m *Manager) Header() string {
	if m.stream == "" {
		return ""
	}
	title := m.stream
	if s, ok := m.streams[m.stream]; ok && s.Name != "" {
		title = s.Name
	}
	if m.semester != "" {
		title += " - Semester " + m.semester
	}
	return title
}

func (m *Manager) scope() string {
	return ScopeKey(m.stream, m.semester)
}

// RestrictedFaculty reports whether the faculty allow-list governs the
// current scope.
func (m *Manager) RestrictedFaculty() bool {
	return m.policy.Applies(m.stream, m.semester)
}

// FacultySuggestions returns the allow-list names when the current scope is
// restricted, nil otherwise.
func (m *Manager) FacultySuggestions() []string {
	if !m.RestrictedFaculty() {
		return nil
	}
	return m.policy.Names()
}

func (m *Manager) Policy() FacultyPolicy { return m.policy }

// SetPolicy replaces the restricted-faculty policy. Entries already stored are
// not re-validated.
func (m *Manager) SetPolicy(p FacultyPolicy) { m.policy = p }

// SetSource swaps the remote API. Outstanding fetches keep their old source.
func (m *Manager) SetSource(src Source) { m.source = src }

func (m *Manager) SetFetchTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultFetchTimeout
	}
	m.timeout = d
}

// SetPolicyFaculty replaces the allow-list names of the policy.
func (m *Manager) SetPolicyFaculty(faculty map[string]string) {
	if len(faculty) == 0 {
		return
	}
	m.policy.Faculty = faculty
}

// --- Entries ---

// Class looks up an entry in the current scope.
func (m *Manager) Class(key SlotKey) (ClassEntry, bool) {
	e, ok := m.data[m.scope()][key]
	return e, ok
}

// View is a read-only snapshot of the current scope for rendering.
type View struct {
	Stream   string
	Semester string
	Header   string
	State    SelectionState
	Entries  Entries
}

func (v View) Cell(d Day, ts TimeSlot) (ClassEntry, bool) {
	e, ok := v.Entries[NewSlotKey(d, ts)]
	return e, ok
}

func (m *Manager) View() View {
	v := View{
		Stream:   m.stream,
		Semester: m.semester,
		Header:   m.Header(),
		State:    m.State(),
		Entries:  Entries{},
	}
	if m.stream != "" {
		v.Entries = m.data[m.scope()].Clone()
	}
	return v
}

func validateEntry(e ClassEntry) error {
	fields := []struct {
		name, value string
	}{
		{"subject", e.SubjectName},
		{"faculty", e.FacultyName},
		{"class type", e.ClassType},
		{"room", e.Room},
		{"day", string(e.Day)},
		{"time slot", string(e.TimeSlot)},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Reason: "please fill in all fields (missing " + strings.Join(missing, ", ") + ")"}
	}
	if !ValidDay(e.Day) {
		return &ValidationError{Reason: "unknown day " + strconv.Quote(string(e.Day))}
	}
	if !ValidTimeSlot(e.TimeSlot) {
		return &ValidationError{Reason: "unknown time slot " + strconv.Quote(string(e.TimeSlot))}
	}
	return nil
}

// UpsertClass stores entry in the current scope. Without confirmed, an
// occupied slot yields a *ConflictError and the existing entry is kept.
func (m *Manager) UpsertClass(entry ClassEntry, confirmed bool) error {
	if m.stream == "" {
		return noStreamError()
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	if m.RestrictedFaculty() && !m.policy.Allowed(entry.FacultyName) {
		return m.policy.rejection()
	}

	scope := m.scope()
	key := entry.Key()
	if existing, ok := m.data[scope][key]; ok && !confirmed {
		return &ConflictError{Key: key, Existing: existing}
	}
	if m.data[scope] == nil {
		m.data[scope] = Entries{}
	}
	m.data[scope][key] = entry
	m.dirty = true
	return nil
}

// DeleteClass removes the entry at key. It reports whether anything was removed.
func (m *Manager) DeleteClass(key SlotKey) bool {
	entries := m.data[m.scope()]
	if _, ok := entries[key]; !ok {
		return false
	}
	delete(entries, key)
	m.dirty = true
	return true
}

// ClearAll wipes the current scope. It reports false when no stream is selected.
func (m *Manager) ClearAll() bool {
	if m.stream == "" {
		return false
	}
	m.data[m.scope()] = Entries{}
	m.dirty = true
	return true
}

// Dirty reports unsaved mutations.
func (m *Manager) Dirty() bool { return m.dirty }

func (m *Manager) LastSaved() time.Time { return m.lastSaved }

// Data returns a copy of everything in memory.
func (m *Manager) Data() Data { return m.data.Clone() }
