package timetable

import "time"

// Placeholder fills sheet cells that have no class.
const Placeholder = "-"

// Sheet is the exportable grid of one scope: rows are time slots, columns days.
type Sheet struct {
	Title       string
	Stream      string
	Semester    string
	Days        []Day
	Slots       []TimeSlot
	Cells       [][]*ClassEntry // [slot][day], nil when empty
	GeneratedAt time.Time
}

// Scope returns the data key the sheet was built from.
func (s Sheet) Scope() string { return ScopeKey(s.Stream, s.Semester) }

// Count returns the number of filled cells.
func (s Sheet) Count() int {
	n := 0
	for _, row := range s.Cells {
		for _, c := range row {
			if c != nil {
				n++
			}
		}
	}
	return n
}

// ExportView builds the sheet of the current scope.
func (m *Manager) ExportView() (Sheet, error) {
	if m.stream == "" {
		return Sheet{}, noStreamError()
	}
	entries := m.data[m.scope()]
	sheet := Sheet{
		Title:       m.Header(),
		Stream:      m.stream,
		Semester:    m.semester,
		Days:        append([]Day(nil), Days...),
		Slots:       append([]TimeSlot(nil), TimeSlots...),
		Cells:       make([][]*ClassEntry, len(TimeSlots)),
		GeneratedAt: m.now(),
	}
	for i, ts := range TimeSlots {
		row := make([]*ClassEntry, len(Days))
		for j, d := range Days {
			if e, ok := entries[NewSlotKey(d, ts)]; ok {
				e := e
				row[j] = &e
			}
		}
		sheet.Cells[i] = row
	}
	return sheet, nil
}
