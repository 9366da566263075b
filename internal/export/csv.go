package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/timetable/internal/timetable"
)

// ToCSV writes one row per scheduled class, ordered by time slot then day.
func ToCSV(sheet timetable.Sheet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Day", "Time Slot", "Subject", "Faculty", "Type", "Room"}); err != nil {
		return err
	}

	for i, row := range sheet.Cells {
		for j, c := range row {
			if c == nil {
				continue
			}
			rec := []string{
				string(sheet.Days[j]),
				string(sheet.Slots[i]),
				c.SubjectName,
				c.FacultyName,
				c.ClassType,
				c.Room,
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}
