package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/sadopc/timetable/internal/timetable"
)

const icsProductID = "-//sadopc//timetable//EN"

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// BuildICS turns every scheduled class into a weekly recurring event starting
// in the week of the sheet's generation time.
func BuildICS(sheet timetable.Sheet, weeks int) (*ics.Calendar, error) {
	if weeks < 1 {
		weeks = 1
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	monday := WeekStart(sheet.GeneratedAt)
	stamp := sheet.GeneratedAt.UTC()
	for i, row := range sheet.Cells {
		from, to, err := sheet.Slots[i].Bounds()
		if err != nil {
			return nil, err
		}
		for j, c := range row {
			if c == nil {
				continue
			}
			date := monday.AddDate(0, 0, j)
			uid := fmt.Sprintf("%s-%s-%s@timetable", sheet.Scope(), strings.ToLower(string(sheet.Days[j])), date.Add(from).Format("1504"))

			event := cal.AddEvent(uid)
			event.SetDtStampTime(stamp)
			event.SetStartAt(date.Add(from))
			event.SetEndAt(date.Add(to))
			event.SetSummary(c.SubjectName)
			event.SetLocation(c.Room)
			event.SetDescription(fmt.Sprintf("%s (%s) - %s", c.FacultyName, c.ClassType, sheet.Title))
			event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
		}
	}
	return cal, nil
}

func ToICS(sheet timetable.Sheet, weeks int, path string) error {
	cal, err := BuildICS(sheet, weeks)
	if err != nil {
		return fmt.Errorf("build calendar: %w", err)
	}
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write ics file: %w", err)
	}
	return nil
}
