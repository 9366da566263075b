package export

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/sadopc/timetable/internal/timetable"
)

var pageTmpl = template.Must(template.New("timetable").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Timetable - {{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h1 { color: #333; text-align: center; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: center; }
th { background-color: #f2f2f2; font-weight: bold; }
.class-item { background: #e8f4f8; padding: 4px; margin: 2px 0; border-radius: 4px; }
.class-item.break { background: #fdf2d0; }
.class-item.lab { background: #e3f6e8; }
.subject { font-weight: bold; }
.faculty { font-size: 0.9em; color: #666; }
.room { font-size: 0.8em; color: #888; }
</style>
</head>
<body>
<h1>{{.Title}} - Timetable</h1>
<table>
<tr><th>Time</th>{{range .Days}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr><td><strong>{{.Slot}}</strong></td>{{range .Cells}}{{if .}}<td><div class="class-item {{.DisplayKind}}"><div class="subject">{{.SubjectName}}</div><div class="faculty">{{.FacultyName}}</div><div class="room">{{.Room}}</div></div></td>{{else}}<td>{{$.Placeholder}}</td>{{end}}{{end}}</tr>
{{end}}</table>
<p><em>Generated on {{.Generated}}</em></p>
</body>
</html>
`))

type htmlRow struct {
	Slot  timetable.TimeSlot
	Cells []*timetable.ClassEntry
}

type htmlPage struct {
	Title       string
	Days        []timetable.Day
	Rows        []htmlRow
	Placeholder string
	Generated   string
}

// ToHTML writes the sheet as a standalone document: one row per time slot,
// one column per day.
func ToHTML(sheet timetable.Sheet, path string) error {
	page := htmlPage{
		Title:       sheet.Title,
		Days:        sheet.Days,
		Placeholder: timetable.Placeholder,
		Generated:   sheet.GeneratedAt.Format("January 2, 2006"),
	}
	for i, slot := range sheet.Slots {
		page.Rows = append(page.Rows, htmlRow{Slot: slot, Cells: sheet.Cells[i]})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html file: %w", err)
	}
	defer f.Close()

	if err := pageTmpl.Execute(f, page); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// FileName is the download name for a sheet, e.g. "MCA_2_timetable.html".
func FileName(sheet timetable.Sheet, ext string) string {
	return fmt.Sprintf("%s_timetable.%s", sheet.Scope(), ext)
}

// Path joins dir and the sheet's file name for ext.
func Path(dir string, sheet timetable.Sheet, ext string) string {
	return filepath.Join(dir, FileName(sheet, ext))
}
