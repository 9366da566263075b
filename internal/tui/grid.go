package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timetable/internal/timetable"
)

const slotLabelWidth = 20

type gridModel struct {
	mgr    *timetable.Manager
	width  int
	height int

	row int // time slot
	col int // day

	formActive bool
	form       *huh.Form
	formType   string // "class", "overwrite", "delete", "clear"

	// Form field pointers (survive value copies)
	formSubject   *string
	formFaculty   *string
	formClassType *string
	formRoom      *string
	formDay       *string
	formSlot      *string
	confirm       *bool

	pending timetable.ClassEntry
}

func newGridModel(m *timetable.Manager) gridModel {
	subject, faculty, classType, room, day, slot := "", "", "", "", "", ""
	confirm := false
	return gridModel{
		mgr:           m,
		formSubject:   &subject,
		formFaculty:   &faculty,
		formClassType: &classType,
		formRoom:      &room,
		formDay:       &day,
		formSlot:      &slot,
		confirm:       &confirm,
	}
}

func (g *gridModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

func (g gridModel) cursorDay() timetable.Day       { return timetable.Days[g.col] }
func (g gridModel) cursorSlot() timetable.TimeSlot { return timetable.TimeSlots[g.row] }

func (g gridModel) cursorKey() timetable.SlotKey {
	return timetable.NewSlotKey(g.cursorDay(), g.cursorSlot())
}

func (g gridModel) update(msg tea.Msg) (gridModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}

	switch {
	case key.Matches(km, keys.Up):
		if g.row > 0 {
			g.row--
		}
	case key.Matches(km, keys.Down):
		if g.row < len(timetable.TimeSlots)-1 {
			g.row++
		}
	case key.Matches(km, keys.Left):
		if g.col > 0 {
			g.col--
		}
	case key.Matches(km, keys.Right):
		if g.col < len(timetable.Days)-1 {
			g.col++
		}
	case key.Matches(km, keys.New), key.Matches(km, keys.Edit):
		if cmd := g.blocked(); cmd != nil {
			return g, cmd
		}
		return g.showClassForm()
	case key.Matches(km, keys.Delete):
		if cmd := g.blocked(); cmd != nil {
			return g, cmd
		}
		e, ok := g.mgr.Class(g.cursorKey())
		if !ok {
			return g, notify(noticeInfo, "No class in this slot.")
		}
		return g.showConfirm("delete", "Delete class?",
			fmt.Sprintf("%s on %s, %s", e.SubjectName, e.Day, e.TimeSlot))
	case key.Matches(km, keys.ClearAll):
		if cmd := g.blocked(); cmd != nil {
			return g, cmd
		}
		return g.showConfirm("clear", "Clear all classes?",
			"Every class of "+g.mgr.Header()+" will be removed.")
	case key.Matches(km, keys.Save):
		if g.mgr.Stream() == "" {
			return g, notifyErr(timetable.ErrNoStream)
		}
		return g, g.autosave("Timetable saved.")
	case key.Matches(km, keys.Load):
		if g.mgr.Loading() {
			return g, notify(noticeInfo, "Timetable is loading, please wait.")
		}
		if err := g.mgr.LoadSnapshot(); err != nil {
			return g, notifyErr(err)
		}
		return g, notify(noticeSuccess, "Saved timetable loaded.")
	case key.Matches(km, keys.Reload):
		if g.mgr.State() != timetable.StreamAndSemesterSelected {
			return g, notify(noticeInfo, "Select a semester to load its timetable.")
		}
		f := g.mgr.SelectSemester(g.mgr.Semester())
		return g, tea.Batch(notify(noticeInfo, "Loading timetable..."), fetchCmd(f))
	}
	return g, nil
}

// blocked refuses mutations without a stream or while a load is in flight.
func (g gridModel) blocked() tea.Cmd {
	if g.mgr.Stream() == "" {
		return notifyErr(timetable.ErrNoStream)
	}
	if g.mgr.Loading() {
		return notify(noticeInfo, "Timetable is loading, please wait.")
	}
	return nil
}

func (g gridModel) showClassForm() (gridModel, tea.Cmd) {
	e, ok := g.mgr.Class(g.cursorKey())
	if !ok {
		e = timetable.ClassEntry{ClassType: timetable.ClassTypes[0], Day: g.cursorDay(), TimeSlot: g.cursorSlot()}
	}
	*g.formSubject = e.SubjectName
	*g.formFaculty = e.FacultyName
	*g.formClassType = e.ClassType
	*g.formRoom = e.Room
	*g.formDay = string(e.Day)
	*g.formSlot = string(e.TimeSlot)
	g.formType = "class"

	dayOptions := make([]huh.Option[string], len(timetable.Days))
	for i, d := range timetable.Days {
		dayOptions[i] = huh.NewOption(string(d), string(d))
	}
	slotOptions := make([]huh.Option[string], len(timetable.TimeSlots))
	for i, ts := range timetable.TimeSlots {
		slotOptions[i] = huh.NewOption(string(ts), string(ts))
	}

	var faculty huh.Field
	if names := g.mgr.FacultySuggestions(); names != nil {
		if !g.mgr.Policy().Allowed(*g.formFaculty) {
			*g.formFaculty = names[0]
		}
		faculty = huh.NewSelect[string]().
			Title("Faculty").
			Description("Only the listed faculty may teach this semester.").
			Options(huh.NewOptions(names...)...).
			Value(g.formFaculty)
	} else {
		faculty = huh.NewInput().Title("Faculty").Value(g.formFaculty).Validate(required("faculty"))
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject").Value(g.formSubject).Validate(required("subject")),
			faculty,
			huh.NewSelect[string]().Title("Class type").Options(huh.NewOptions(timetable.ClassTypes...)...).Value(g.formClassType),
			huh.NewInput().Title("Room").Value(g.formRoom).Validate(required("room")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Day").Options(dayOptions...).Value(g.formDay),
			huh.NewSelect[string]().Title("Time slot").Options(slotOptions...).Value(g.formSlot),
		),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (g gridModel) showConfirm(formType, title, description string) (gridModel, tea.Cmd) {
	*g.confirm = false
	g.formType = formType
	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(g.confirm),
		),
	).WithShowHelp(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g gridModel) formEntry() timetable.ClassEntry {
	return timetable.ClassEntry{
		SubjectName: strings.TrimSpace(*g.formSubject),
		FacultyName: strings.TrimSpace(*g.formFaculty),
		ClassType:   strings.TrimSpace(*g.formClassType),
		Room:        strings.TrimSpace(*g.formRoom),
		Day:         timetable.Day(*g.formDay),
		TimeSlot:    timetable.TimeSlot(*g.formSlot),
	}
}

func (g gridModel) updateForm(msg tea.Msg) (gridModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			g.formActive = false
			g.form = nil
			return g, nil
		}
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	switch g.form.State {
	case huh.StateAborted:
		g.formActive = false
		g.form = nil
		return g, nil
	case huh.StateCompleted:
		g.formActive = false
		g.form = nil
		return g.completeForm()
	}
	return g, cmd
}

func (g gridModel) completeForm() (gridModel, tea.Cmd) {
	switch g.formType {
	case "class":
		return g.submitClass(g.formEntry(), false)
	case "overwrite":
		if !*g.confirm {
			return g, notify(noticeInfo, "Existing class kept.")
		}
		return g.submitClass(g.pending, true)
	case "delete":
		if *g.confirm {
			return g, g.deleteAt(g.cursorKey())
		}
	case "clear":
		if *g.confirm {
			return g, g.clearAll()
		}
	}
	return g, nil
}

// submitClass stores the entry. An occupied slot asks for confirmation and
// retries with it.
func (g gridModel) submitClass(e timetable.ClassEntry, confirmed bool) (gridModel, tea.Cmd) {
	err := g.mgr.UpsertClass(e, confirmed)
	var ce *timetable.ConflictError
	switch {
	case errors.As(err, &ce):
		g.pending = e
		return g.showConfirm("overwrite", "A class already exists in this slot",
			fmt.Sprintf("Replace %s (%s) with %s?", ce.Existing.SubjectName, ce.Existing.FacultyName, e.SubjectName))
	case err != nil:
		return g, notifyErr(err)
	}
	g.moveTo(e.Day, e.TimeSlot)
	return g, g.autosave("Class added successfully!")
}

func (g *gridModel) moveTo(d timetable.Day, ts timetable.TimeSlot) {
	for i, v := range timetable.Days {
		if v == d {
			g.col = i
		}
	}
	for i, v := range timetable.TimeSlots {
		if v == ts {
			g.row = i
		}
	}
}

func (g gridModel) deleteAt(k timetable.SlotKey) tea.Cmd {
	if !g.mgr.DeleteClass(k) {
		return nil
	}
	return g.autosave("Class deleted.")
}

func (g gridModel) clearAll() tea.Cmd {
	if !g.mgr.ClearAll() {
		return notifyErr(timetable.ErrNoStream)
	}
	return g.autosave("All classes cleared.")
}

// autosave persists after a mutation and reports the outcome.
func (g gridModel) autosave(success string) tea.Cmd {
	if err := g.mgr.SaveSnapshot(); err != nil {
		return notifyErr(err)
	}
	return notify(noticeSuccess, success)
}

func (g gridModel) view() string {
	w := g.width - 4

	if g.formActive && g.form != nil {
		title := titleStyle.Render("Class")
		switch g.formType {
		case "overwrite", "delete", "clear":
			title = titleStyle.Render("Confirm")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", g.form.View())
		return panelStyle.Width(w).Render(content)
	}

	v := g.mgr.View()
	if v.State == timetable.NoStream {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Timetable"),
			"",
			mutedStyle.Render("No stream selected. Press 2 to pick a stream and semester."),
		)
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render(v.Header)
	var status string
	switch {
	case g.mgr.Loading():
		status = warningStyle.Render("Loading timetable...")
	case v.State == timetable.StreamSelected:
		status = mutedStyle.Render("Editing the stream timetable. Pick a semester on the Streams tab.")
	default:
		status = mutedStyle.Render(fmt.Sprintf("%d classes, %s", len(v.Entries), formatSaved(g.mgr.LastSaved())))
	}
	if g.mgr.RestrictedFaculty() {
		status += "  " + highlightStyle.Render("restricted faculty")
	}

	hints := mutedStyle.Render("  n: add  enter: edit  d: delete  C: clear all  s: save  L: load saved  r: reload  e: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, status, "", g.renderGrid(v, w-4), "", hints),
	)
}

func (g gridModel) cellWidth(avail int) int {
	cw := (avail - slotLabelWidth) / len(timetable.Days)
	return max(cw, 10)
}

func (g gridModel) renderGrid(v timetable.View, avail int) string {
	cw := g.cellWidth(avail)

	header := []string{lipgloss.NewStyle().Width(slotLabelWidth).Render("")}
	for _, d := range timetable.Days {
		header = append(header, gridHeaderStyle.Width(cw).Render(string(d)))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	for i, ts := range timetable.TimeSlots {
		line := []string{slotLabelStyle.Width(slotLabelWidth).Render(string(ts))}
		for j, d := range timetable.Days {
			style := cellStyle
			if i == g.row && j == g.col {
				style = selectedCellStyle
			}
			e, ok := v.Cell(d, ts)
			line = append(line, style.Width(cw).Render(cellText(e, ok, cw-2)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	return strings.Join(rows, "\n")
}

// cellText renders one grid cell: subject, faculty and room, or the
// placeholder when empty.
func cellText(e timetable.ClassEntry, ok bool, width int) string {
	if !ok {
		return mutedStyle.Render(timetable.Placeholder)
	}
	subject := lipgloss.NewStyle().Bold(true).Foreground(kindColor(e.DisplayKind())).
		Render(truncate(e.SubjectName, width))
	return lipgloss.JoinVertical(lipgloss.Left,
		subject,
		mutedStyle.Render(truncate(e.FacultyName, width)),
		subtitleStyle.Render(truncate(e.Room, width)),
	)
}
