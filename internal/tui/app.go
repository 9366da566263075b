package tui

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timetable/internal/api"
	"github.com/sadopc/timetable/internal/export"
	"github.com/sadopc/timetable/internal/store"
	"github.com/sadopc/timetable/internal/timetable"
)

var exportFormats = []string{"HTML", "CSV", "JSON", "ICS"}

// App is the root Bubble Tea model.
type App struct {
	mgr    *timetable.Manager
	store  *store.Store
	cfg    store.Config
	log    *slog.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	grid     gridModel
	streams  streamsModel
	summary  summaryModel
	settings settingsModel

	notice  noticeModel
	startup []notifyMsg
	help    help.Model
}

type Options struct {
	Manager *timetable.Manager
	Store   *store.Store
	Config  store.Config
	Logger  *slog.Logger
}

func NewApp(opts Options) App {
	h := help.New()
	h.ShowAll = false

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return App{
		mgr:        opts.Manager,
		store:      opts.Store,
		cfg:        opts.Config,
		log:        logger,
		activeView: viewTimetable,
		grid:       newGridModel(opts.Manager),
		streams:    newStreamsModel(opts.Manager),
		summary:    newSummaryModel(opts.Manager),
		settings:   newSettingsModel(opts.Store),
		notice:     newNoticeModel(opts.Config.NotifyDuration),
		help:       h,
	}
}

// WithError queues an error notification shown once the program starts.
func (a App) WithError(err error) App {
	a.startup = append(a.startup, notifyMsg{level: noticeError, text: errorText(err)})
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.settings.refresh()}
	for _, n := range a.startup {
		cmds = append(cmds, notify(n.level, n.text))
	}
	// A restored semester is reloaded from the API; otherwise start on the picker.
	if a.mgr.State() == timetable.StreamAndSemesterSelected {
		cmds = append(cmds, fetchCmd(a.mgr.SelectSemester(a.mgr.Semester())))
	} else {
		cmds = append(cmds, switchTo(viewStreams))
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.grid.setSize(a.width, contentHeight)
		a.streams.setSize(a.width, contentHeight)
		a.summary.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.summary.refresh()
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.saveOnExit()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewTimetable)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewStreams)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewSummary)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case fetchDoneMsg:
		return a.applyFetch(msg.res)

	case notifyMsg:
		cmd := a.notice.show(msg.level, msg.text)
		return a, cmd

	case noticeExpiredMsg:
		a.notice.expire(msg.id)
		return a, nil

	case switchViewMsg:
		return a.switchView(msg.view)

	case exportDoneMsg:
		a.exportPicking = false
		return a, notify(noticeSuccess, "Exported to "+msg.path)

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case configChangedMsg:
		cmd := a.reloadConfig()
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	switch v {
	case viewStreams:
		a.streams.sync()
	case viewSummary:
		a.summary.refresh()
	case viewSettings:
		return a, a.settings.refresh()
	}
	return a, nil
}

// applyFetch installs a finished load on the update loop.
func (a App) applyFetch(res timetable.FetchResult) (tea.Model, tea.Cmd) {
	applied, err := a.mgr.ApplyFetch(res)
	if !applied {
		return a, nil
	}
	if err != nil {
		return a, notifyErr(err)
	}
	if err := a.mgr.SaveSnapshot(); err != nil {
		a.log.Warn("saving fetched timetable failed", "err", err)
	}
	a.summary.refresh()
	return a, notify(noticeSuccess, fmt.Sprintf("Timetable loaded for %s.", a.mgr.Header()))
}

func (a *App) saveOnExit() {
	if !a.mgr.Dirty() {
		return
	}
	if err := a.mgr.SaveSnapshot(); err != nil {
		a.log.Error("saving on exit failed", "err", err)
	}
}

// reloadConfig re-reads settings and faculty and applies them to the manager.
func (a *App) reloadConfig() tea.Cmd {
	cfg, err := a.store.LoadConfig()
	if err != nil {
		return notifyErr(err)
	}
	policy, err := PolicyFromConfig(a.store, cfg)
	if err != nil {
		return notifyErr(err)
	}
	a.cfg = cfg
	a.notice.ttl = cfg.NotifyDuration
	a.mgr.SetFetchTimeout(cfg.FetchTimeout)
	a.mgr.SetSource(api.NewClient(cfg.APIBaseURL, api.DefaultHTTPClient()))
	a.mgr.SetPolicy(policy)
	a.log.Info("configuration reloaded", "api", cfg.APIBaseURL, "restricted_stream", cfg.RestrictedStream)
	return nil
}

// PolicyFromConfig builds the restricted-faculty policy from the settings and
// the faculty table.
func PolicyFromConfig(s *store.Store, cfg store.Config) (timetable.FacultyPolicy, error) {
	faculty, err := s.FacultyMap()
	if err != nil {
		return timetable.FacultyPolicy{}, fmt.Errorf("load faculty: %w", err)
	}
	return timetable.FacultyPolicy{
		Stream:    cfg.RestrictedStream,
		Semesters: cfg.RestrictedSemesters,
		Faculty:   faculty,
	}, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimetable:
		a.grid, cmd = a.grid.update(msg)
		a.summary.refresh()
	case viewStreams:
		a.streams, cmd = a.streams.update(msg)
	case viewSummary:
		a.summary, cmd = a.summary.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimetable:
		return a.grid.formActive
	case viewStreams:
		return a.streams.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimetable:
		content = a.grid.view()
	case viewStreams:
		content = a.streams.view()
	case viewSummary:
		content = a.summary.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("timetable")
	if h := a.mgr.Header(); h != "" {
		title += mutedStyle.Render("  " + h)
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	saved := ""
	if a.mgr.Dirty() {
		saved = warningStyle.Render(" ● unsaved")
	}
	notice := ""
	if a.notice.visible() {
		notice = " " + a.notice.view()
	}

	left := footerStyle.Render(helpView)
	right := saved + notice

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) exportDir() string {
	if a.cfg.ExportDir != "" {
		return a.cfg.ExportDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// doExport snapshots the sheet on the update loop and writes it off-loop.
func (a App) doExport(format int) tea.Cmd {
	sheet, err := a.mgr.ExportView()
	if err != nil {
		return notifyErr(err)
	}
	dir := a.exportDir()
	weeks := a.cfg.ICSWeeks
	logger := a.log

	return func() tea.Msg {
		var path string
		var err error
		switch exportFormats[format] {
		case "HTML":
			path = export.Path(dir, sheet, "html")
			err = export.ToHTML(sheet, path)
		case "CSV":
			path = export.Path(dir, sheet, "csv")
			err = export.ToCSV(sheet, path)
		case "JSON":
			path = export.Path(dir, sheet, "json")
			err = export.ToJSON(sheet, path)
		case "ICS":
			path = export.Path(dir, sheet, "ics")
			err = export.ToICS(sheet, weeks, path)
		}
		if err != nil {
			logger.Error("export failed", "format", exportFormats[format], "err", err)
			return notifyMsg{level: noticeError, text: fmt.Sprintf("%s export error: %v", exportFormats[format], err)}
		}
		logger.Info("exported timetable", "path", path, "classes", sheet.Count())
		return exportDoneMsg{path: path}
	}
}
