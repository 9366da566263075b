package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timetable/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings      []store.Setting
	faculty       []store.FacultyMember
	snapshots     []store.Snapshot
	facultyCursor int

	formActive bool
	form       *huh.Form
	formType   string // "settings", "faculty"

	// Form values as pointers (survive value copies)
	apiBaseURL          *string
	fetchTimeout        *string
	notifySeconds       *string
	exportDir           *string
	icsWeeks            *string
	restrictedStream    *string
	restrictedSemesters *string
	facultyName         *string
	facultySpec         *string
}

func newSettingsModel(s *store.Store) settingsModel {
	api, ft, ns, ed, iw, rs, rsem := "", "", "", "", "", "", ""
	fn, fs := "", ""
	return settingsModel{
		store:               s,
		apiBaseURL:          &api,
		fetchTimeout:        &ft,
		notifySeconds:       &ns,
		exportDir:           &ed,
		icsWeeks:            &iw,
		restrictedStream:    &rs,
		restrictedSemesters: &rsem,
		facultyName:         &fn,
		facultySpec:         &fs,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings  []store.Setting
	faculty   []store.FacultyMember
	snapshots []store.Snapshot
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		faculty, _ := s.store.ListFaculty()
		snapshots, _ := s.store.ListSnapshots()
		return settingsDataMsg{settings: settings, faculty: faculty, snapshots: snapshots}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.faculty = msg.faculty
		s.snapshots = msg.snapshots
		if s.facultyCursor >= len(s.faculty) {
			s.facultyCursor = max(0, len(s.faculty)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		case key.Matches(msg, keys.New):
			return s.showFacultyForm()
		case key.Matches(msg, keys.Up):
			if s.facultyCursor > 0 {
				s.facultyCursor--
			}
		case key.Matches(msg, keys.Down):
			if s.facultyCursor < len(s.faculty)-1 {
				s.facultyCursor++
			}
		case key.Matches(msg, keys.Delete):
			if len(s.faculty) == 0 {
				return s, nil
			}
			name := s.faculty[s.facultyCursor].Name
			if err := s.store.RemoveFaculty(name); err != nil {
				return s, notifyErr(err)
			}
			return s, tea.Batch(s.refresh(), changed(), notify(noticeSuccess, "Removed "+name+"."))
		}
	}
	return s, nil
}

func changed() tea.Cmd {
	return func() tea.Msg { return configChangedMsg{} }
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.apiBaseURL = s.getVal("api_base_url", "")
	*s.fetchTimeout = s.getVal("fetch_timeout", "5")
	*s.notifySeconds = s.getVal("notify_seconds", "3")
	*s.exportDir = s.getVal("export_dir", "")
	*s.icsWeeks = s.getVal("ics_weeks", "16")
	*s.restrictedStream = s.getVal("restricted_stream", "")
	*s.restrictedSemesters = s.getVal("restricted_semesters", "")
	s.formType = "settings"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("API base URL").Value(s.apiBaseURL),
			huh.NewInput().Title("Fetch timeout (sec)").Value(s.fetchTimeout).Validate(positiveInt),
		).Title("Remote"),
		huh.NewGroup(
			huh.NewInput().Title("Notification time (sec)").Value(s.notifySeconds).Validate(positiveInt),
			huh.NewInput().Title("Export directory").Description("Empty means the home directory.").Value(s.exportDir),
			huh.NewInput().Title("Calendar weeks").Value(s.icsWeeks).Validate(positiveInt),
		).Title("General"),
		huh.NewGroup(
			huh.NewInput().Title("Restricted stream").Value(s.restrictedStream),
			huh.NewInput().Title("Restricted semesters (comma-separated)").Value(s.restrictedSemesters),
		).Title("Faculty policy"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showFacultyForm() (settingsModel, tea.Cmd) {
	*s.facultyName = ""
	*s.facultySpec = ""
	s.formType = "faculty"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Faculty name").Value(s.facultyName).Validate(required("name")),
			huh.NewInput().Title("Specialization").Value(s.facultySpec),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func positiveInt(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return errors.New("enter a positive whole number")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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
		var err error
		if s.formType == "faculty" {
			err = s.store.AddFaculty(strings.TrimSpace(*s.facultyName), strings.TrimSpace(*s.facultySpec))
		} else {
			err = s.saveSettings()
		}
		if err != nil {
			return s, notifyErr(err)
		}
		return s, tea.Batch(s.refresh(), changed(), notify(noticeSuccess, "Settings saved."))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := []store.Setting{
		{Key: "api_base_url", Value: strings.TrimSpace(*s.apiBaseURL)},
		{Key: "fetch_timeout", Value: strings.TrimSpace(*s.fetchTimeout)},
		{Key: "notify_seconds", Value: strings.TrimSpace(*s.notifySeconds)},
		{Key: "export_dir", Value: strings.TrimSpace(*s.exportDir)},
		{Key: "ics_weeks", Value: strings.TrimSpace(*s.icsWeeks)},
		{Key: "restricted_stream", Value: strings.TrimSpace(*s.restrictedStream)},
		{Key: "restricted_semesters", Value: normalizeList(*s.restrictedSemesters)},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return fmt.Errorf("save %s: %w", v.Key, err)
		}
	}
	return nil
}

// normalizeList trims the items of a comma-separated list and drops empties.
func normalizeList(v string) string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return strings.Join(out, ",")
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		if s.formType == "faculty" {
			title = titleStyle.Render("Add Faculty")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{titleStyle.Render("Settings"), ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "", titleStyle.Render("Restricted faculty"), "")
	if len(s.faculty) == 0 {
		rows = append(rows, mutedStyle.Render("  No faculty listed. Press n to add one."))
	}
	for i, f := range s.faculty {
		cursor := "  "
		style := normalItemStyle
		if i == s.facultyCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		detail := ""
		if f.Specialization != "" {
			detail = mutedStyle.Render(" (" + f.Specialization + ")")
		}
		rows = append(rows, style.Render(cursor+f.Name)+detail)
	}

	rows = append(rows, "", titleStyle.Render("Saved data"), "")
	if len(s.snapshots) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing saved yet."))
	}
	for _, snap := range s.snapshots {
		label := lipgloss.NewStyle().Width(24).Render(snap.Name)
		rows = append(rows, fmt.Sprintf("  %s %s", label,
			mutedStyle.Render(fmt.Sprintf("%s, %d bytes", snap.SavedAt.Local().Format("2006-01-02 15:04"), len(snap.Payload)))))
	}

	rows = append(rows, "", mutedStyle.Render("  enter: edit settings  n: add faculty  d: remove faculty"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "fetch_timeout", "notify_seconds":
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d sec", n)
		}
	case "ics_weeks":
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d weeks", n)
		}
	case "export_dir":
		if v == "" {
			return "(home directory)"
		}
	case "api_base_url":
		if v == "" {
			return "(offline)"
		}
	}
	return v
}
