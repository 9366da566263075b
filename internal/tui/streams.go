package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timetable/internal/timetable"
)

type streamsModel struct {
	mgr    *timetable.Manager
	width  int
	height int

	cursor          int
	semCursor       int
	pickingSemester bool // true = choosing a semester of the selected stream

	formActive bool
	form       *huh.Form
	confirm    *bool
}

func newStreamsModel(m *timetable.Manager) streamsModel {
	confirm := false
	s := streamsModel{mgr: m, confirm: &confirm}
	s.sync()
	return s
}

func (s *streamsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

// sync points the cursors at the manager's current selection.
func (s *streamsModel) sync() {
	s.pickingSemester = false
	for i, st := range s.mgr.Streams() {
		if st.ID == s.mgr.Stream() {
			s.cursor = i
			s.pickingSemester = true
		}
	}
	s.semCursor = 0
	for i, sem := range s.mgr.Semesters() {
		if sem == s.mgr.Semester() {
			s.semCursor = i
		}
	}
}

func (s streamsModel) update(msg tea.Msg) (streamsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	if key.Matches(km, keys.Reset) {
		return s.showResetForm()
	}
	if s.pickingSemester {
		return s.updateSemesterList(km)
	}
	return s.updateStreamList(km)
}

func (s streamsModel) updateStreamList(msg tea.KeyMsg) (streamsModel, tea.Cmd) {
	streams := s.mgr.Streams()
	switch {
	case key.Matches(msg, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, keys.Down):
		if s.cursor < len(streams)-1 {
			s.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if s.cursor < len(streams) {
			s.mgr.SelectStream(streams[s.cursor].ID)
			s.pickingSemester = true
			s.semCursor = 0
		}
	case key.Matches(msg, keys.Back):
		s.mgr.SelectStream("")
	}
	return s, nil
}

func (s streamsModel) updateSemesterList(msg tea.KeyMsg) (streamsModel, tea.Cmd) {
	semesters := s.mgr.Semesters()
	switch {
	case key.Matches(msg, keys.Up):
		if s.semCursor > 0 {
			s.semCursor--
		}
	case key.Matches(msg, keys.Down):
		if s.semCursor < len(semesters)-1 {
			s.semCursor++
		}
	case key.Matches(msg, keys.Enter):
		if s.semCursor < len(semesters) {
			f := s.mgr.SelectSemester(semesters[s.semCursor])
			return s, tea.Batch(
				notify(noticeInfo, "Loading timetable..."),
				fetchCmd(f),
				switchTo(viewTimetable),
			)
		}
	case key.Matches(msg, keys.Back):
		// Leaving the semester list drops the semester first, then the stream.
		if s.mgr.Semester() != "" {
			s.mgr.SelectSemester("")
		}
		s.pickingSemester = false
	}
	return s, nil
}

func (s streamsModel) showResetForm() (streamsModel, tea.Cmd) {
	*s.confirm = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear session?").
				Description("The saved selection and all timetable data will be removed.").
				Affirmative("Clear").
				Negative("Cancel").
				Value(s.confirm),
		),
	).WithShowHelp(true)
	s.formActive = true
	return s, s.form.Init()
}

func (s streamsModel) updateForm(msg tea.Msg) (streamsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if !*s.confirm {
			return s, nil
		}
		return s.resetSession()
	}
	return s, cmd
}

func (s streamsModel) resetSession() (streamsModel, tea.Cmd) {
	if err := s.mgr.ClearSession(); err != nil {
		return s, notifyErr(err)
	}
	s.sync()
	return s, notify(noticeSuccess, "Session cleared.")
}

func (s streamsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Session"), "", s.form.View()),
		)
	}

	left := s.renderStreamList()
	right := s.renderDetail()
	listW := max(w/2-2, 30)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listW).Render(left),
		lipgloss.NewStyle().Width(w-listW-4).Render(right),
	)

	nav := mutedStyle.Render("  ↑/↓: move  enter: select  esc: back  X: clear session")
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, body, "", nav))
}

func (s streamsModel) renderStreamList() string {
	rows := []string{titleStyle.Render("Streams"), ""}
	for i, st := range s.mgr.Streams() {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor && !s.pickingSemester {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := " "
		if st.ID == s.mgr.Stream() {
			marker = successStyle.Render("●")
		}
		rows = append(rows, fmt.Sprintf("%s %s", marker, style.Render(cursor+st.ID)))
	}
	return strings.Join(rows, "\n")
}

func (s streamsModel) renderDetail() string {
	info, ok := s.mgr.StreamInfo()
	if !ok {
		return mutedStyle.Render("Select a stream to see its semesters.")
	}

	rows := []string{
		titleStyle.Render(info.Name),
		subtitleStyle.Render(fmt.Sprintf("%s · %d semesters", info.Duration, info.TotalSemesters)),
	}
	if info.Description != "" {
		rows = append(rows, mutedStyle.Render(info.Description))
	}
	rows = append(rows, "", titleStyle.Render("Semester"))

	data := s.mgr.Data()
	for i, sem := range s.mgr.Semesters() {
		cursor := "  "
		style := normalItemStyle
		if s.pickingSemester && i == s.semCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		label := "Semester " + sem
		if n := len(data[timetable.ScopeKey(s.mgr.Stream(), sem)]); n > 0 {
			label += mutedStyle.Render(fmt.Sprintf(" · %d classes", n))
		}
		if sem == s.mgr.Semester() {
			label += " " + successStyle.Render("(current)")
		}
		if s.mgr.Policy().Applies(s.mgr.Stream(), sem) {
			label += " " + highlightStyle.Render("restricted")
		}
		rows = append(rows, style.Render(cursor)+label)
	}
	return strings.Join(rows, "\n")
}
