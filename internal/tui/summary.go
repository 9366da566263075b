package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timetable/internal/timetable"
)

type summaryMode int

const (
	summaryByDay summaryMode = iota
	summaryByFaculty
)

// kindOrder fixes the stacking order of chart segments.
var kindOrder = []string{"lecture", "lab", "tutorial", "break"}

type facultyLoad struct {
	Name    string
	Classes int
	Rooms   []string
}

type summaryModel struct {
	mgr    *timetable.Manager
	width  int
	height int

	mode    summaryMode
	perDay  map[timetable.Day]map[string]int
	faculty []facultyLoad
	total   int

	chart barchart.Model
}

func newSummaryModel(m *timetable.Manager) summaryModel {
	return summaryModel{
		mgr:   m,
		chart: barchart.New(60, 12),
	}
}

func (s *summaryModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

// refresh recomputes the counts from the current view.
func (s *summaryModel) refresh() {
	v := s.mgr.View()
	s.perDay = make(map[timetable.Day]map[string]int, len(timetable.Days))
	loads := map[string]*facultyLoad{}
	s.total = 0

	for _, e := range v.Entries {
		kind := e.DisplayKind()
		if s.perDay[e.Day] == nil {
			s.perDay[e.Day] = map[string]int{}
		}
		s.perDay[e.Day][kind]++
		s.total++

		if kind == "break" {
			continue
		}
		l, ok := loads[e.FacultyName]
		if !ok {
			l = &facultyLoad{Name: e.FacultyName}
			loads[e.FacultyName] = l
		}
		l.Classes++
		if !contains(l.Rooms, e.Room) {
			l.Rooms = append(l.Rooms, e.Room)
		}
	}

	s.faculty = s.faculty[:0]
	for _, l := range loads {
		sort.Strings(l.Rooms)
		s.faculty = append(s.faculty, *l)
	}
	sort.Slice(s.faculty, func(i, j int) bool {
		if s.faculty[i].Classes != s.faculty[j].Classes {
			return s.faculty[i].Classes > s.faculty[j].Classes
		}
		return s.faculty[i].Name < s.faculty[j].Name
	})
	s.buildChart()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (s summaryModel) update(msg tea.Msg) (summaryModel, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Left), key.Matches(km, keys.Right):
			if s.mode == summaryByDay {
				s.mode = summaryByFaculty
			} else {
				s.mode = summaryByDay
			}
			s.buildChart()
		}
	}
	return s, nil
}

func (s *summaryModel) buildChart() {
	chartWidth := s.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if s.height > 30 {
		chartHeight = 16
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	switch s.mode {
	case summaryByFaculty:
		for _, l := range s.faculty {
			bars = append(bars, barchart.BarData{
				Label: truncate(l.Name, 10),
				Values: []barchart.BarValue{{
					Name:  l.Name,
					Value: float64(l.Classes),
					Style: lipgloss.NewStyle().Foreground(colorPrimary),
				}},
			})
		}
	default:
		for _, d := range timetable.Days {
			var values []barchart.BarValue
			for _, kind := range s.kinds() {
				if n := s.perDay[d][kind]; n > 0 {
					values = append(values, barchart.BarValue{
						Name:  kind,
						Value: float64(n),
						Style: lipgloss.NewStyle().Foreground(kindColor(kind)),
					})
				}
			}
			if len(values) == 0 {
				values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
			}
			bars = append(bars, barchart.BarData{
				Label:  string(d)[:3],
				Values: values,
			})
		}
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

// kinds returns the known kinds followed by any free-text kinds in use.
func (s summaryModel) kinds() []string {
	out := append([]string(nil), kindOrder...)
	var extra []string
	for _, counts := range s.perDay {
		for k := range counts {
			if !contains(out, k) && !contains(extra, k) {
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func (s summaryModel) view() string {
	w := s.width - 4

	if s.mgr.State() == timetable.NoStream {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Summary"), "", mutedStyle.Render("No stream selected."),
		))
	}

	dayTab := inactiveTabStyle.Render("By day")
	facultyTab := inactiveTabStyle.Render("By faculty")
	if s.mode == summaryByDay {
		dayTab = activeTabStyle.Render("By day")
	} else {
		facultyTab = activeTabStyle.Render("By faculty")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dayTab, facultyTab)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Summary"), "  ", modeTabs, "  ",
		mutedStyle.Render(fmt.Sprintf("%s · %d classes", s.mgr.Header(), s.total)),
	)

	var table string
	if s.mode == summaryByFaculty {
		table = s.renderFacultyTable(w)
	} else {
		table = s.renderLegend()
	}

	nav := mutedStyle.Render("  ←/→: switch mode")
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", s.chart.View(), "", table, "", nav),
	)
}

func (s summaryModel) renderFacultyTable(w int) string {
	if len(s.faculty) == 0 {
		return mutedStyle.Render("  No classes scheduled")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-28s %8s  %s", "Faculty", "Classes", "Rooms")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 54))),
	}
	for _, l := range s.faculty {
		rows = append(rows, fmt.Sprintf("  %-28s %8d  %s", truncate(l.Name, 28), l.Classes, strings.Join(l.Rooms, ", ")))
	}
	return strings.Join(rows, "\n")
}

func (s summaryModel) renderLegend() string {
	var items []string
	for _, kind := range s.kinds() {
		n := 0
		for _, counts := range s.perDay {
			n += counts[kind]
		}
		if n == 0 {
			continue
		}
		dot := lipgloss.NewStyle().Foreground(kindColor(kind)).Render("●")
		items = append(items, fmt.Sprintf("%s %s %d", dot, kind, n))
	}
	if len(items) == 0 {
		return mutedStyle.Render("  No classes scheduled")
	}
	return "  " + strings.Join(items, "  ")
}
