package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeSuccess
	noticeError
)

func (l noticeLevel) String() string {
	switch l {
	case noticeSuccess:
		return "success"
	case noticeError:
		return "error"
	}
	return "info"
}

// noticeModel holds the single visible notification. A newer notice
// replaces the current one; each expiry only clears the notice it was
// scheduled for.
type noticeModel struct {
	ttl time.Duration

	id      int
	level   noticeLevel
	text    string
	shownAt time.Time
}

func newNoticeModel(ttl time.Duration) noticeModel {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return noticeModel{ttl: ttl}
}

// show replaces the current notice and schedules its dismissal.
func (n *noticeModel) show(level noticeLevel, text string) tea.Cmd {
	n.id++
	n.level = level
	n.text = text
	n.shownAt = time.Now()

	id := n.id
	return tea.Tick(n.ttl, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (n *noticeModel) expire(id int) {
	if id != n.id {
		return
	}
	n.text = ""
}

func (n noticeModel) visible() bool {
	return n.text != ""
}

func (n noticeModel) view() string {
	if !n.visible() {
		return ""
	}
	switch n.level {
	case noticeSuccess:
		return noticeSuccessStyle.Render("✓ " + n.text)
	case noticeError:
		return noticeErrorStyle.Render("✗ " + n.text)
	}
	return noticeInfoStyle.Render("• " + n.text)
}
