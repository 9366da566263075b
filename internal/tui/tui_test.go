package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/timetable/internal/export"
	"github.com/sadopc/timetable/internal/store"
	"github.com/sadopc/timetable/internal/timetable"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeSource struct {
	entries timetable.Entries
	err     error
}

func (f fakeSource) Streams(ctx context.Context) (map[string]timetable.Stream, error) {
	return nil, errors.New("offline")
}

func (f fakeSource) Timetable(ctx context.Context, stream, semester string) (timetable.Entries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries.Clone(), nil
}

func newTestManager(t *testing.T, s *store.Store, src timetable.Source) *timetable.Manager {
	t.Helper()
	return timetable.New(timetable.Options{
		Policy:  timetable.DefaultFacultyPolicy(),
		Backend: s,
		Source:  src,
		Now:     func() time.Time { return time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC) },
	})
}

func newTestApp(t *testing.T) (App, *timetable.Manager, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	cfg, err := s.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.ExportDir = t.TempDir()
	cfg.NotifyDuration = time.Millisecond
	return NewApp(Options{Manager: m, Store: s, Config: cfg}), m, s
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func noticeOf(t *testing.T, cmd tea.Cmd) notifyMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if n, ok := msg.(notifyMsg); ok {
			return n
		}
	}
	t.Fatal("expected a notification")
	return notifyMsg{}
}

func sampleClass(subject, faculty string, d timetable.Day, ts timetable.TimeSlot) timetable.ClassEntry {
	return timetable.ClassEntry{
		SubjectName: subject,
		FacultyName: faculty,
		ClassType:   "Lecture",
		Room:        "101",
		Day:         d,
		TimeSlot:    ts,
	}
}

// ============================================================
// Notices
// ============================================================

func TestNoticeShowAndExpire(t *testing.T) {
	n := newNoticeModel(time.Millisecond)
	if n.visible() {
		t.Fatal("no notice initially")
	}

	if cmd := n.show(noticeSuccess, "saved"); cmd == nil {
		t.Fatal("show should schedule expiry")
	}
	first := n.id
	n.show(noticeError, "failed")
	if n.text != "failed" || n.level != noticeError {
		t.Fatalf("newer notice should replace, got %q", n.text)
	}

	n.expire(first)
	if !n.visible() {
		t.Fatal("stale expiry must not clear the newer notice")
	}
	n.expire(n.id)
	if n.visible() {
		t.Fatal("current expiry should clear")
	}
}

func TestNoticeDefaultTTL(t *testing.T) {
	if n := newNoticeModel(0); n.ttl != 3*time.Second {
		t.Fatalf("ttl = %v", n.ttl)
	}
}

func TestNoticeView(t *testing.T) {
	n := newNoticeModel(time.Second)
	if n.view() != "" {
		t.Fatal("hidden notice renders nothing")
	}
	n.show(noticeInfo, "hello")
	if !strings.Contains(n.view(), "hello") {
		t.Fatal("view should contain text")
	}
	if noticeError.String() != "error" || noticeSuccess.String() != "success" || noticeInfo.String() != "info" {
		t.Fatal("level names")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestErrorText(t *testing.T) {
	existing := sampleClass("Maths", "F", timetable.Monday, timetable.TimeSlots[0])
	tests := []struct {
		err  error
		want string
	}{
		{&timetable.ValidationError{Reason: "bad input"}, "bad input"},
		{&timetable.ConflictError{Key: existing.Key(), Existing: existing}, "A class already exists at Monday 9:00 AM - 11:00 AM."},
		{&timetable.PersistenceError{Op: timetable.OpLoad, Snapshot: "data", Reset: true, Err: errors.New("eof")}, "Saved data could not be used and was reset: eof"},
		{&timetable.PersistenceError{Op: timetable.OpLoad, Snapshot: "data", Err: errors.New("locked")}, "Could not read saved data: locked"},
		{&timetable.PersistenceError{Op: timetable.OpSave, Snapshot: "data", Err: errors.New("disk full")}, "Could not save, changes are kept in memory: disk full"},
		{&timetable.NetworkError{Timeout: true}, "request timed out, please try again"},
		{errors.New("plain"), "plain"},
	}
	for _, tt := range tests {
		if got := errorText(tt.err); got != tt.want {
			t.Errorf("errorText(%T) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"Mathematics", 5, "Math…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestFormatSaved(t *testing.T) {
	if formatSaved(time.Time{}) != "never saved" {
		t.Fatal("zero time")
	}
	if !strings.HasPrefix(formatSaved(time.Now()), "saved ") {
		t.Fatal("expected saved prefix")
	}
}

func TestFetchCmdNil(t *testing.T) {
	if fetchCmd(nil) != nil {
		t.Fatal("nil fetch yields nil cmd")
	}
}

// ============================================================
// Grid
// ============================================================

func TestGridCursorClamps(t *testing.T) {
	s := newTestStore(t)
	g := newGridModel(newTestManager(t, s, nil))

	g, _ = g.update(keyPress("up"))
	g, _ = g.update(keyPress("left"))
	if g.row != 0 || g.col != 0 {
		t.Fatalf("cursor = %d,%d", g.row, g.col)
	}
	for i := 0; i < 10; i++ {
		g, _ = g.update(keyPress("down"))
		g, _ = g.update(keyPress("right"))
	}
	if g.row != len(timetable.TimeSlots)-1 || g.col != len(timetable.Days)-1 {
		t.Fatalf("cursor = %d,%d", g.row, g.col)
	}
	if g.cursorDay() != timetable.Saturday {
		t.Fatalf("day = %s", g.cursorDay())
	}
}

func TestGridRequiresStream(t *testing.T) {
	s := newTestStore(t)
	g := newGridModel(newTestManager(t, s, nil))

	g, cmd := g.update(keyPress("n"))
	if g.formActive {
		t.Fatal("form should not open without a stream")
	}
	if n := noticeOf(t, cmd); n.level != noticeError {
		t.Fatalf("notice = %+v", n)
	}

	_, cmd = g.update(keyPress("s"))
	if n := noticeOf(t, cmd); n.level != noticeError {
		t.Fatalf("save without stream: %+v", n)
	}
}

func TestGridClassFormPrefill(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	g := newGridModel(m)

	g, _ = g.update(keyPress("right"))
	g, _ = g.update(keyPress("down"))
	g, _ = g.update(keyPress("n"))
	if !g.formActive || g.formType != "class" {
		t.Fatalf("form = %v %q", g.formActive, g.formType)
	}
	if *g.formDay != "Tuesday" || *g.formSlot != string(timetable.TimeSlots[1]) {
		t.Fatalf("prefill = %s %s", *g.formDay, *g.formSlot)
	}
	if *g.formClassType != "Lecture" {
		t.Fatalf("class type = %q", *g.formClassType)
	}

	g, _ = g.update(keyPress("esc"))
	if g.formActive {
		t.Fatal("esc should cancel the form")
	}

	e := sampleClass("Networks", "Dr. N", timetable.Tuesday, timetable.TimeSlots[1])
	m.UpsertClass(e, false)
	g, _ = g.update(keyPress("enter"))
	if *g.formSubject != "Networks" || *g.formFaculty != "Dr. N" {
		t.Fatalf("edit should prefill existing entry, got %q %q", *g.formSubject, *g.formFaculty)
	}
}

func TestGridFormEntryTrims(t *testing.T) {
	s := newTestStore(t)
	g := newGridModel(newTestManager(t, s, nil))
	*g.formSubject = "  Maths "
	*g.formFaculty = " Dr. M"
	*g.formClassType = "Lecture"
	*g.formRoom = "12 "
	*g.formDay = "Friday"
	*g.formSlot = string(timetable.TimeSlots[4])

	e := g.formEntry()
	if e.SubjectName != "Maths" || e.FacultyName != "Dr. M" || e.Room != "12" || e.Day != timetable.Friday {
		t.Fatalf("entry = %+v", e)
	}
}

func TestGridSubmitSavesSnapshot(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	m.SelectSemester("2")
	g := newGridModel(m)

	e := sampleClass("Databases", "Dr. D", timetable.Wednesday, timetable.TimeSlots[2])
	g, cmd := g.submitClass(e, false)
	n := noticeOf(t, cmd)
	if n.level != noticeSuccess || n.text != "Class added successfully!" {
		t.Fatalf("notice = %+v", n)
	}
	if got, ok := m.Class(e.Key()); !ok || got != e {
		t.Fatal("entry not stored")
	}
	if g.row != 2 || g.col != 2 {
		t.Fatalf("cursor should follow the new class, got %d,%d", g.row, g.col)
	}
	if m.Dirty() {
		t.Fatal("autosave should clear dirty")
	}
	payload, err := s.Snapshot(timetable.DataSnapshot)
	if err != nil || payload == nil {
		t.Fatalf("snapshot not written: %v", err)
	}
}

func TestGridConflictFlow(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	g := newGridModel(m)

	first := sampleClass("Old", "Dr. A", timetable.Monday, timetable.TimeSlots[0])
	second := sampleClass("New", "Dr. B", timetable.Monday, timetable.TimeSlots[0])
	g, _ = g.submitClass(first, false)

	g, _ = g.submitClass(second, false)
	if !g.formActive || g.formType != "overwrite" {
		t.Fatalf("conflict should ask for confirmation, got %v %q", g.formActive, g.formType)
	}
	if g.pending != second {
		t.Fatal("pending entry not kept")
	}

	// Declined.
	*g.confirm = false
	g.formActive = false
	g, cmd := g.completeForm()
	if n := noticeOf(t, cmd); n.level != noticeInfo {
		t.Fatalf("decline notice = %+v", n)
	}
	if got, _ := m.Class(first.Key()); got != first {
		t.Fatal("declined overwrite must keep existing class")
	}

	// Confirmed.
	g, _ = g.submitClass(second, false)
	*g.confirm = true
	g.formActive = false
	_, cmd = g.completeForm()
	if n := noticeOf(t, cmd); n.level != noticeSuccess {
		t.Fatalf("confirm notice = %+v", n)
	}
	if got, _ := m.Class(first.Key()); got != second {
		t.Fatal("confirmed overwrite should replace")
	}
}

func TestGridRestrictedFaculty(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MSC_AI_ML")
	m.SelectSemester("3")
	g := newGridModel(m)

	_, cmd := g.submitClass(sampleClass("AI", "Dr. Nobody", timetable.Monday, timetable.TimeSlots[0]), false)
	n := noticeOf(t, cmd)
	if n.level != noticeError || !strings.Contains(n.text, "Ms. Anju Jha") {
		t.Fatalf("notice = %+v", n)
	}
	if _, ok := m.Class(timetable.NewSlotKey(timetable.Monday, timetable.TimeSlots[0])); ok {
		t.Fatal("rejected entry stored")
	}
}

func TestGridRestrictedFormUsesAllowList(t *testing.T) {
	s := newTestStore(t)
	m := timetable.New(timetable.Options{Policy: timetable.DefaultFacultyPolicy(), Backend: s})
	m.SelectStream("MSC_AI_ML")
	f := m.SelectSemester("1")
	m.ApplyFetch(timetable.FetchResult{Token: f.Token, Stream: f.Stream, Semester: f.Semester, Entries: timetable.Entries{}})

	g := newGridModel(m)
	g, _ = g.update(keyPress("n"))
	if !g.formActive {
		t.Fatal("form should open")
	}
	if !m.Policy().Allowed(*g.formFaculty) {
		t.Fatalf("faculty should default to an allowed name, got %q", *g.formFaculty)
	}
}

func TestGridLoadingBlocksMutations(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	m.SelectSemester("1")
	if !m.Loading() {
		t.Fatal("fetch should be outstanding")
	}
	g := newGridModel(m)

	g, cmd := g.update(keyPress("n"))
	if g.formActive {
		t.Fatal("form must not open while loading")
	}
	if n := noticeOf(t, cmd); n.level != noticeInfo {
		t.Fatalf("notice = %+v", n)
	}
}

func TestGridDeleteFlow(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	g := newGridModel(m)

	g, cmd := g.update(keyPress("d"))
	if g.formActive {
		t.Fatal("nothing to delete")
	}
	if n := noticeOf(t, cmd); n.level != noticeInfo {
		t.Fatalf("notice = %+v", n)
	}

	e := sampleClass("OS", "Dr. O", timetable.Monday, timetable.TimeSlots[0])
	m.UpsertClass(e, false)
	g, _ = g.update(keyPress("d"))
	if !g.formActive || g.formType != "delete" {
		t.Fatalf("delete should confirm, got %q", g.formType)
	}
	*g.confirm = true
	g.formActive = false
	_, cmd = g.completeForm()
	if n := noticeOf(t, cmd); n.text != "Class deleted." {
		t.Fatalf("notice = %+v", n)
	}
	if _, ok := m.Class(e.Key()); ok {
		t.Fatal("entry should be gone")
	}
}

func TestGridClearAllFlow(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("PGDCSA")
	m.UpsertClass(sampleClass("A", "F", timetable.Monday, timetable.TimeSlots[0]), false)
	m.UpsertClass(sampleClass("B", "F", timetable.Friday, timetable.TimeSlots[3]), false)
	g := newGridModel(m)

	g, _ = g.update(keyPress("C"))
	if g.formType != "clear" {
		t.Fatalf("form = %q", g.formType)
	}
	*g.confirm = true
	g.formActive = false
	g.completeForm()
	if len(m.View().Entries) != 0 {
		t.Fatal("scope should be empty")
	}
}

func TestGridReload(t *testing.T) {
	s := newTestStore(t)
	src := fakeSource{entries: timetable.Entries{}}
	m := newTestManager(t, s, src)
	m.SelectStream("MCA")
	g := newGridModel(m)

	_, cmd := g.update(keyPress("r"))
	if n := noticeOf(t, cmd); n.level != noticeInfo {
		t.Fatalf("reload without semester: %+v", n)
	}

	f := m.SelectSemester("1")
	m.ApplyFetch(f.Run(context.Background()))
	_, cmd = g.update(keyPress("r"))
	var fetched bool
	for _, msg := range collect(cmd) {
		if _, ok := msg.(fetchDoneMsg); ok {
			fetched = true
		}
	}
	if !fetched {
		t.Fatal("reload should fetch")
	}
}

// diskFullBackend stores reads normally but refuses every write.
type diskFullBackend struct{ *store.Store }

func (diskFullBackend) PutSnapshot(name string, payload []byte) error {
	return errors.New("disk full")
}

func TestGridSaveFailureKeepsData(t *testing.T) {
	s := newTestStore(t)
	m := timetable.New(timetable.Options{Policy: timetable.DefaultFacultyPolicy(), Backend: diskFullBackend{s}})
	m.SelectStream("MCA")
	g := newGridModel(m)

	e := sampleClass("Networks", "Dr. N", timetable.Monday, timetable.TimeSlots[0])
	_, cmd := g.submitClass(e, false)
	n := noticeOf(t, cmd)
	if n.level != noticeError || n.text != "Could not save, changes are kept in memory: disk full" {
		t.Fatalf("notice = %+v", n)
	}
	if strings.Contains(n.text, "reset") {
		t.Fatal("a failed write must not claim the data was reset")
	}
	if _, ok := m.Class(e.Key()); !ok || !m.Dirty() {
		t.Fatal("entry should stay in memory and unsaved")
	}
}

func TestGridLoadSaved(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	e := sampleClass("Compilers", "Dr. C", timetable.Friday, timetable.TimeSlots[2])
	m.UpsertClass(e, false)
	if err := m.SaveSnapshot(); err != nil {
		t.Fatal(err)
	}
	m.DeleteClass(e.Key())
	g := newGridModel(m)

	_, cmd := g.update(keyPress("L"))
	if n := noticeOf(t, cmd); n.level != noticeSuccess {
		t.Fatalf("notice = %+v", n)
	}
	if got, ok := m.Class(e.Key()); !ok || got != e {
		t.Fatal("saved entry should be back")
	}
	if m.Dirty() {
		t.Fatal("freshly loaded data is not dirty")
	}
}

func TestGridLoadCorruptSaved(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutSnapshot(timetable.DataSnapshot, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	m.UpsertClass(sampleClass("A", "F", timetable.Monday, timetable.TimeSlots[0]), false)
	g := newGridModel(m)

	_, cmd := g.update(keyPress("L"))
	n := noticeOf(t, cmd)
	if n.level != noticeError || !strings.HasPrefix(n.text, "Saved data could not be used and was reset") {
		t.Fatalf("notice = %+v", n)
	}
	if len(m.View().Entries) != 0 {
		t.Fatal("state should be reset after a corrupt load")
	}
	if payload, _ := s.Snapshot(timetable.DataSnapshot); payload != nil {
		t.Fatal("corrupt snapshot should be discarded")
	}
}

func TestGridLoadWhileFetching(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	m.SelectSemester("1")
	g := newGridModel(m)

	_, cmd := g.update(keyPress("L"))
	if n := noticeOf(t, cmd); n.level != noticeInfo {
		t.Fatalf("notice = %+v", n)
	}
}

func TestCellText(t *testing.T) {
	if got := cellText(timetable.ClassEntry{}, false, 10); !strings.Contains(got, timetable.Placeholder) {
		t.Fatalf("empty cell = %q", got)
	}
	e := sampleClass("Algorithms", "Dr. A", timetable.Monday, timetable.TimeSlots[0])
	got := cellText(e, true, 20)
	for _, want := range []string{"Algorithms", "Dr. A", "101"} {
		if !strings.Contains(got, want) {
			t.Fatalf("cell %q missing %q", got, want)
		}
	}
}

func TestGridView(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	g := newGridModel(m)
	g.setSize(160, 40)

	if !strings.Contains(g.view(), "No stream selected") {
		t.Fatal("empty state hint missing")
	}

	m.SelectStream("MCA")
	m.UpsertClass(sampleClass("Compilers", "Dr. C", timetable.Monday, timetable.TimeSlots[0]), false)
	out := g.view()
	for _, want := range []string{"Master of Computer Applications", "Monday", "Saturday", "Compilers"} {
		if !strings.Contains(out, want) {
			t.Fatalf("grid view missing %q", want)
		}
	}
}

// ============================================================
// Streams
// ============================================================

func TestStreamsSelectionFlow(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	sm := newStreamsModel(m)

	// INTEGRATED_CS, MCA, MSC_AI_ML, PGDCSA
	sm, _ = sm.update(keyPress("down"))
	sm, _ = sm.update(keyPress("enter"))
	if m.Stream() != "MCA" || !sm.pickingSemester {
		t.Fatalf("stream = %q picking = %v", m.Stream(), sm.pickingSemester)
	}

	sm, _ = sm.update(keyPress("down"))
	sm, cmd := sm.update(keyPress("enter"))
	if m.Semester() != "2" {
		t.Fatalf("semester = %q", m.Semester())
	}
	var switched, fetched bool
	for _, msg := range collect(cmd) {
		switch msg := msg.(type) {
		case switchViewMsg:
			switched = msg.view == viewTimetable
		case fetchDoneMsg:
			fetched = msg.res.Stream == "MCA" && msg.res.Semester == "2"
		}
	}
	if !switched || !fetched {
		t.Fatalf("switched=%v fetched=%v", switched, fetched)
	}

	sm, _ = sm.update(keyPress("esc"))
	if m.State() != timetable.StreamSelected || sm.pickingSemester {
		t.Fatalf("esc should drop the semester, state %v", m.State())
	}
	sm, _ = sm.update(keyPress("esc"))
	if m.State() != timetable.NoStream {
		t.Fatalf("esc should clear the stream, state %v", m.State())
	}
}

func TestStreamsSync(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("PGDCSA")
	m.SelectSemester("7")

	sm := newStreamsModel(m)
	if !sm.pickingSemester || sm.cursor != 3 || sm.semCursor != 6 {
		t.Fatalf("sync: picking=%v cursor=%d sem=%d", sm.pickingSemester, sm.cursor, sm.semCursor)
	}
}

func TestStreamsResetSession(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	m.UpsertClass(sampleClass("A", "F", timetable.Monday, timetable.TimeSlots[0]), false)
	m.SaveSnapshot()

	sm := newStreamsModel(m)
	sm, _ = sm.update(keyPress("X"))
	if !sm.formActive {
		t.Fatal("reset should confirm")
	}
	sm.formActive = false
	sm, cmd := sm.resetSession()
	if n := noticeOf(t, cmd); n.level != noticeSuccess {
		t.Fatalf("notice = %+v", n)
	}
	if m.State() != timetable.NoStream || len(m.Data()) != 0 {
		t.Fatal("session not cleared")
	}
	if sm.pickingSemester {
		t.Fatal("cursor state should reset")
	}
}

func TestStreamsView(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	sm := newStreamsModel(m)
	sm.setSize(120, 40)

	if !strings.Contains(sm.view(), "MSC_AI_ML") {
		t.Fatal("stream list missing")
	}
	m.SelectStream("MSC_AI_ML")
	sm.sync()
	out := sm.view()
	for _, want := range []string{"Semester 4", "restricted", "2 Years"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail missing %q", want)
		}
	}
}

func TestStreamsViewShowsClassCounts(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	m.SelectSemester("2")
	m.UpsertClass(sampleClass("A", "F", timetable.Monday, timetable.TimeSlots[0]), false)
	m.UpsertClass(sampleClass("B", "F", timetable.Tuesday, timetable.TimeSlots[0]), false)

	sm := newStreamsModel(m)
	sm.setSize(140, 40)
	if !strings.Contains(sm.view(), "2 classes") {
		t.Fatal("semester list should show stored class counts")
	}
}

// ============================================================
// Summary
// ============================================================

func TestSummaryCounts(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	m.UpsertClass(sampleClass("Maths", "Dr. A", timetable.Monday, timetable.TimeSlots[0]), false)
	lab := sampleClass("Python", "Dr. A", timetable.Monday, timetable.TimeSlots[1])
	lab.Room = "Lab 1"
	m.UpsertClass(lab, false)
	m.UpsertClass(sampleClass("Lunch Break", "-", timetable.Tuesday, timetable.TimeSlots[3]), false)
	tut := sampleClass("Stats", "Dr. B", timetable.Wednesday, timetable.TimeSlots[4])
	tut.ClassType = "Tutorial"
	m.UpsertClass(tut, false)

	sum := newSummaryModel(m)
	sum.setSize(120, 40)
	sum.refresh()

	if sum.total != 4 {
		t.Fatalf("total = %d", sum.total)
	}
	if sum.perDay[timetable.Monday]["lecture"] != 1 || sum.perDay[timetable.Monday]["lab"] != 1 {
		t.Fatalf("monday = %v", sum.perDay[timetable.Monday])
	}
	if sum.perDay[timetable.Tuesday]["break"] != 1 {
		t.Fatalf("tuesday = %v", sum.perDay[timetable.Tuesday])
	}
	if len(sum.faculty) != 2 {
		t.Fatalf("faculty = %+v", sum.faculty)
	}
	if sum.faculty[0].Name != "Dr. A" || sum.faculty[0].Classes != 2 || len(sum.faculty[0].Rooms) != 2 {
		t.Fatalf("top faculty = %+v", sum.faculty[0])
	}
}

func TestSummaryModeToggle(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	sum := newSummaryModel(m)
	sum.refresh()

	sum, _ = sum.update(keyPress("right"))
	if sum.mode != summaryByFaculty {
		t.Fatal("should switch to faculty mode")
	}
	if !strings.Contains(sum.view(), "No classes scheduled") {
		t.Fatal("empty faculty table hint missing")
	}
	sum, _ = sum.update(keyPress("left"))
	if sum.mode != summaryByDay {
		t.Fatal("should switch back")
	}
}

func TestSummaryKindsIncludeFreeText(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	e := sampleClass("Talk", "Dr. T", timetable.Monday, timetable.TimeSlots[0])
	e.ClassType = "Seminar"
	m.UpsertClass(e, false)

	sum := newSummaryModel(m)
	sum.refresh()
	kinds := sum.kinds()
	if kinds[len(kinds)-1] != "seminar" {
		t.Fatalf("kinds = %v", kinds)
	}
}

// ============================================================
// Settings
// ============================================================

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, val, want string
	}{
		{"fetch_timeout", "5", "5 sec"},
		{"notify_seconds", "3", "3 sec"},
		{"ics_weeks", "16", "16 weeks"},
		{"export_dir", "", "(home directory)"},
		{"api_base_url", "", "(offline)"},
		{"api_base_url", "http://x", "http://x"},
		{"fetch_timeout", "bad", "bad"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.key, tt.val); got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.val, got, tt.want)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	if got := normalizeList(" 1, ,3 ,"); got != "1,3" {
		t.Fatalf("got %q", got)
	}
}

func TestPositiveInt(t *testing.T) {
	if positiveInt("5") != nil {
		t.Fatal("5 is valid")
	}
	for _, v := range []string{"0", "-1", "x", ""} {
		if positiveInt(v) == nil {
			t.Fatalf("%q should be rejected", v)
		}
	}
}

func TestSettingsSave(t *testing.T) {
	s := newTestStore(t)
	sm := newSettingsModel(s)
	sm, _ = sm.showForm()
	if !sm.formActive {
		t.Fatal("form should open")
	}
	if *sm.fetchTimeout != "5" || *sm.restrictedStream != "MSC_AI_ML" {
		t.Fatalf("form not loaded: %q %q", *sm.fetchTimeout, *sm.restrictedStream)
	}

	*sm.icsWeeks = "10"
	*sm.restrictedSemesters = "2 , 4"
	if err := sm.saveSettings(); err != nil {
		t.Fatal(err)
	}
	cfg, _ := s.LoadConfig()
	if cfg.ICSWeeks != 10 {
		t.Fatalf("ICSWeeks = %d", cfg.ICSWeeks)
	}
	if len(cfg.RestrictedSemesters) != 2 || cfg.RestrictedSemesters[0] != "2" {
		t.Fatalf("semesters = %v", cfg.RestrictedSemesters)
	}
}

func TestSettingsFacultyList(t *testing.T) {
	s := newTestStore(t)
	sm := newSettingsModel(s)
	sm.setSize(120, 40)

	msgs := collect(sm.refresh())
	sm, _ = sm.update(msgs[0])
	if len(sm.faculty) != 5 {
		t.Fatalf("faculty = %d", len(sm.faculty))
	}

	name := sm.faculty[0].Name
	sm, cmd := sm.update(keyPress("d"))
	var sawChange bool
	for _, msg := range collect(cmd) {
		switch msg := msg.(type) {
		case settingsDataMsg:
			sm, _ = sm.update(msg)
		case configChangedMsg:
			sawChange = true
		}
	}
	if !sawChange {
		t.Fatal("removal should announce a config change")
	}
	if len(sm.faculty) != 4 || sm.faculty[0].Name == name {
		t.Fatalf("faculty after removal = %+v", sm.faculty)
	}
	if !strings.Contains(sm.view(), "Restricted faculty") {
		t.Fatal("faculty section missing")
	}
}

func TestSettingsShowsSavedData(t *testing.T) {
	s := newTestStore(t)
	sm := newSettingsModel(s)
	sm.setSize(120, 60)

	sm, _ = sm.update(collect(sm.refresh())[0])
	if !strings.Contains(sm.view(), "Nothing saved yet.") {
		t.Fatal("empty saved-data hint missing")
	}

	m := newTestManager(t, s, nil)
	m.SelectStream("MCA")
	if err := m.SaveSnapshot(); err != nil {
		t.Fatal(err)
	}
	sm, _ = sm.update(collect(sm.refresh())[0])
	if len(sm.snapshots) != 2 {
		t.Fatalf("snapshots = %+v", sm.snapshots)
	}
	out := sm.view()
	for _, want := range []string{"Saved data", "data", "session", "bytes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("settings view missing %q", want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app, _, _ := newTestApp(t)

	if app.activeView != viewTimetable {
		t.Fatal("default view should be timetable")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("overlays should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppInitWithoutSelection(t *testing.T) {
	app, _, _ := newTestApp(t)
	app = app.WithError(&timetable.PersistenceError{Op: timetable.OpLoad, Snapshot: "session", Reset: true, Err: errors.New("bad json")})

	var sawSwitch, sawError, sawSettings bool
	for _, msg := range collect(app.Init()) {
		switch msg := msg.(type) {
		case switchViewMsg:
			sawSwitch = msg.view == viewStreams
		case notifyMsg:
			sawError = msg.level == noticeError
		case settingsDataMsg:
			sawSettings = true
		}
	}
	if !sawSwitch || !sawError || !sawSettings {
		t.Fatalf("switch=%v error=%v settings=%v", sawSwitch, sawError, sawSettings)
	}
}

func TestAppInitReloadsRestoredSemester(t *testing.T) {
	app, m, _ := newTestApp(t)
	m.SelectStream("MCA")
	m.SelectSemester("3")

	var fetched bool
	for _, msg := range collect(app.Init()) {
		if f, ok := msg.(fetchDoneMsg); ok && f.res.Semester == "3" {
			fetched = true
		}
	}
	if !fetched {
		t.Fatal("restored semester should be reloaded")
	}
}

func TestAppViewStates(t *testing.T) {
	app, m, _ := newTestApp(t)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	app = model.(App)
	m.SelectStream("MCA")

	for i := range viewNames {
		app.activeView = viewState(i)
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", i)
		}
	}
	app.exportPicking = true
	if !strings.Contains(app.View(), "ICS") {
		t.Fatal("export picker should list formats")
	}
}

func TestAppLoadingState(t *testing.T) {
	app, _, _ := newTestApp(t)
	if out := app.View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.width = 140
	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppTabSwitching(t *testing.T) {
	app, _, _ := newTestApp(t)
	model, _ := app.Update(keyPress("3"))
	app = model.(App)
	if app.activeView != viewSummary {
		t.Fatalf("view = %d", app.activeView)
	}
	model, _ = app.Update(keyPress("tab"))
	app = model.(App)
	if app.activeView != viewSettings {
		t.Fatalf("view = %d", app.activeView)
	}
	model, _ = app.Update(keyPress("tab"))
	app = model.(App)
	if app.activeView != viewTimetable {
		t.Fatalf("tab should wrap, got %d", app.activeView)
	}
}

func TestAppNotifications(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.width = 140
	app.height = 40

	model, cmd := app.Update(notifyMsg{level: noticeSuccess, text: "Class added successfully!"})
	app = model.(App)
	if cmd == nil {
		t.Fatal("notice should schedule its expiry")
	}
	if !strings.Contains(app.renderFooter(), "Class added successfully!") {
		t.Fatal("footer should show the notice")
	}

	model, _ = app.Update(noticeExpiredMsg{id: app.notice.id})
	app = model.(App)
	if app.notice.visible() {
		t.Fatal("notice should be dismissed")
	}
}

func TestAppApplyFetch(t *testing.T) {
	s := newTestStore(t)
	remote := timetable.Entries{}
	e := sampleClass("Java", "Dr. J", timetable.Thursday, timetable.TimeSlots[5])
	remote[e.Key()] = e
	m := newTestManager(t, s, fakeSource{entries: remote})
	cfg, _ := s.LoadConfig()
	app := NewApp(Options{Manager: m, Store: s, Config: cfg})

	m.SelectStream("MCA")
	stale := m.SelectSemester("1")
	current := m.SelectSemester("2")

	_, cmd := app.Update(fetchDoneMsg{res: stale.Run(context.Background())})
	if cmd != nil {
		t.Fatal("stale result should be ignored")
	}

	_, cmd = app.Update(fetchDoneMsg{res: current.Run(context.Background())})
	if n := noticeOf(t, cmd); n.level != noticeSuccess {
		t.Fatalf("notice = %+v", n)
	}
	if got, ok := m.Class(e.Key()); !ok || got != e {
		t.Fatal("fetched entry not installed")
	}
	if payload, _ := s.Snapshot(timetable.DataSnapshot); payload == nil {
		t.Fatal("fetched data should be saved")
	}
}

func TestAppApplyFetchFailureKeepsData(t *testing.T) {
	s := newTestStore(t)
	m := newTestManager(t, s, fakeSource{err: errors.New("connection refused")})
	cfg, _ := s.LoadConfig()
	app := NewApp(Options{Manager: m, Store: s, Config: cfg})

	m.SelectStream("MCA")
	first := m.SelectSemester("1")
	kept := sampleClass("Kept", "F", timetable.Monday, timetable.TimeSlots[0])
	m.ApplyFetch(timetable.FetchResult{Token: first.Token, Stream: "MCA", Semester: "1", Entries: timetable.Entries{kept.Key(): kept}})
	f := m.SelectSemester("1")

	_, cmd := app.Update(fetchDoneMsg{res: f.Run(context.Background())})
	n := noticeOf(t, cmd)
	if n.level != noticeError || !strings.Contains(n.text, "error loading timetable data") {
		t.Fatalf("notice = %+v", n)
	}
	if _, ok := m.Class(kept.Key()); !ok {
		t.Fatal("displayed data must survive a failed load")
	}
}

func TestAppExportFormats(t *testing.T) {
	app, m, _ := newTestApp(t)
	m.SelectStream("MCA")
	m.SelectSemester("2")
	m.UpsertClass(sampleClass("Graphics", "Dr. G", timetable.Monday, timetable.TimeSlots[0]), false)

	sheet, _ := m.ExportView()
	for i, ext := range []string{"html", "csv", "json", "ics"} {
		msgs := collect(app.doExport(i))
		if len(msgs) != 1 {
			t.Fatalf("%s: msgs = %v", ext, msgs)
		}
		done, ok := msgs[0].(exportDoneMsg)
		if !ok {
			t.Fatalf("%s: got %#v", ext, msgs[0])
		}
		if done.path != export.Path(app.cfg.ExportDir, sheet, ext) {
			t.Fatalf("%s: path = %s", ext, done.path)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("%s: %v", ext, err)
		}
	}
}

func TestAppExportWithoutStream(t *testing.T) {
	app, _, _ := newTestApp(t)
	if n := noticeOf(t, app.doExport(0)); n.level != noticeError {
		t.Fatalf("notice = %+v", n)
	}
}

func TestAppExportPicker(t *testing.T) {
	app, _, _ := newTestApp(t)
	model, _ := app.Update(keyPress("e"))
	app = model.(App)
	if !app.exportPicking {
		t.Fatal("picker should open")
	}
	for i := 0; i < 10; i++ {
		model, _ = app.Update(keyPress("down"))
		app = model.(App)
	}
	if app.exportCursor != len(exportFormats)-1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}
	model, _ = app.Update(keyPress("esc"))
	app = model.(App)
	if app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestAppConfigReload(t *testing.T) {
	app, m, s := newTestApp(t)
	s.SetSetting("restricted_stream", "MCA")
	s.SetSetting("restricted_semesters", "2")
	s.AddFaculty("Dr. New", "Compilers")

	model, cmd := app.Update(configChangedMsg{})
	app = model.(App)
	if cmd != nil {
		t.Fatalf("unexpected cmd: %v", collect(cmd))
	}
	p := m.Policy()
	if !p.Applies("MCA", "2") || p.Applies("MSC_AI_ML", "1") {
		t.Fatalf("policy = %+v", p)
	}
	if !p.Allowed("Dr. New") {
		t.Fatal("new faculty should be allowed")
	}
	if app.cfg.RestrictedStream != "MCA" {
		t.Fatal("config not stored")
	}
}

func TestAppQuitSavesDirty(t *testing.T) {
	app, m, s := newTestApp(t)
	m.SelectStream("MCA")
	m.UpsertClass(sampleClass("A", "F", timetable.Monday, timetable.TimeSlots[0]), false)

	_, cmd := app.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("expected quit")
	}
	if m.Dirty() {
		t.Fatal("quit should save")
	}
	if payload, _ := s.Snapshot(timetable.DataSnapshot); payload == nil {
		t.Fatal("snapshot missing")
	}
}

func TestPolicyFromConfig(t *testing.T) {
	s := newTestStore(t)
	cfg, _ := s.LoadConfig()
	p, err := PolicyFromConfig(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Applies("MSC_AI_ML", "1") || !p.Applies("MSC_AI_ML", "3") || p.Applies("MSC_AI_ML", "2") {
		t.Fatalf("policy = %+v", p)
	}
	if len(p.Names()) != 5 {
		t.Fatalf("names = %v", p.Names())
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"cell", func() string { return cellStyle.Render("test") }},
		{"selectedCell", func() string { return selectedCellStyle.Render("test") }},
		{"gridHeader", func() string { return gridHeaderStyle.Render("test") }},
		{"slotLabel", func() string { return slotLabelStyle.Render("test") }},
		{"noticeSuccess", func() string { return noticeSuccessStyle.Render("test") }},
		{"noticeError", func() string { return noticeErrorStyle.Render("test") }},
		{"noticeInfo", func() string { return noticeInfoStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
	if kindColor("unknown") != colorAccent || kindColor("lab") != colorSuccess {
		t.Fatal("kind colors")
	}
}
