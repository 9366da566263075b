package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/timetable/internal/timetable"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimetable viewState = iota
	viewStreams
	viewSummary
	viewSettings
)

var viewNames = []string{"Timetable", "Streams", "Summary", "Settings"}

// --- Messages ---

type fetchDoneMsg struct {
	res timetable.FetchResult
}

type notifyMsg struct {
	level noticeLevel
	text  string
}

type noticeExpiredMsg struct {
	id int
}

type switchViewMsg struct {
	view viewState
}

type exportDoneMsg struct {
	path string
}

type configChangedMsg struct{}

// --- Helpers ---

func notify(level noticeLevel, text string) tea.Cmd {
	return func() tea.Msg {
		return notifyMsg{level: level, text: text}
	}
}

func notifyErr(err error) tea.Cmd {
	return notify(noticeError, errorText(err))
}

// errorText turns an error into the message shown to the user.
func errorText(err error) string {
	var (
		ve *timetable.ValidationError
		ce *timetable.ConflictError
		pe *timetable.PersistenceError
		ne *timetable.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Reason
	case errors.As(err, &ce):
		return fmt.Sprintf("A class already exists at %s %s.", ce.Existing.Day, ce.Existing.TimeSlot)
	case errors.As(err, &pe):
		switch {
		case pe.Reset:
			return "Saved data could not be used and was reset: " + pe.Err.Error()
		case pe.Op == timetable.OpLoad:
			return "Could not read saved data: " + pe.Err.Error()
		}
		return "Could not save, changes are kept in memory: " + pe.Err.Error()
	case errors.As(err, &ne):
		return ne.Error()
	}
	return err.Error()
}

// fetchCmd runs a remote load off the update loop.
func fetchCmd(f *timetable.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		return fetchDoneMsg{res: f.Run(context.Background())}
	}
}

func switchTo(v viewState) tea.Cmd {
	return func() tea.Msg { return switchViewMsg{view: v} }
}

func formatSaved(t time.Time) string {
	if t.IsZero() {
		return "never saved"
	}
	return "saved " + t.Local().Format("15:04:05")
}

// truncate cuts s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
