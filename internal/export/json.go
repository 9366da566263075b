package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/timetable/internal/timetable"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Title      string      `json:"title"`
	Stream     string      `json:"stream"`
	Semester   string      `json:"semester,omitempty"`
	Count      int         `json:"count"`
	Classes    []jsonClass `json:"classes"`
}

type jsonClass struct {
	Day      string `json:"day"`
	TimeSlot string `json:"time_slot"`
	Subject  string `json:"subject"`
	Faculty  string `json:"faculty"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Room     string `json:"room"`
}

func ToJSON(sheet timetable.Sheet, path string) error {
	export := jsonExport{
		ExportedAt: sheet.GeneratedAt.UTC().Format(time.RFC3339),
		Title:      sheet.Title,
		Stream:     sheet.Stream,
		Semester:   sheet.Semester,
		Count:      sheet.Count(),
	}

	for i, row := range sheet.Cells {
		for j, c := range row {
			if c == nil {
				continue
			}
			export.Classes = append(export.Classes, jsonClass{
				Day:      string(sheet.Days[j]),
				TimeSlot: string(sheet.Slots[i]),
				Subject:  c.SubjectName,
				Faculty:  c.FacultyName,
				Type:     c.ClassType,
				Kind:     c.DisplayKind(),
				Room:     c.Room,
			})
		}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
