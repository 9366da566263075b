package timetable

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Snapshot names in the backend.
const (
	SessionSnapshot = "session"
	DataSnapshot    = "data"
)

type sessionDoc struct {
	CurrentStream   string `json:"currentStream"`
	CurrentSemester string `json:"currentSemester"`
	TimetableData   Data   `json:"timetableData"`
	LastUpdated     string `json:"lastUpdated"`
}

// SaveSnapshot writes the data and session snapshots.
func (m *Manager) SaveSnapshot() error {
	if m.backend == nil {
		return &PersistenceError{Op: OpSave, Snapshot: DataSnapshot, Err: errors.New("no backend configured")}
	}
	payload, err := json.Marshal(m.data)
	if err != nil {
		return &PersistenceError{Op: OpSave, Snapshot: DataSnapshot, Err: fmt.Errorf("marshal: %w", err)}
	}
	if err := m.backend.PutSnapshot(DataSnapshot, payload); err != nil {
		return &PersistenceError{Op: OpSave, Snapshot: DataSnapshot, Err: err}
	}
	if err := m.writeSession(); err != nil {
		return err
	}
	m.dirty = false
	return nil
}

func (m *Manager) writeSession() error {
	now := m.now().UTC()
	doc := sessionDoc{
		CurrentStream:   m.stream,
		CurrentSemester: m.semester,
		TimetableData:   m.data,
		LastUpdated:     now.Format(time.RFC3339),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return &PersistenceError{Op: OpSave, Snapshot: SessionSnapshot, Err: fmt.Errorf("marshal: %w", err)}
	}
	if err := m.backend.PutSnapshot(SessionSnapshot, payload); err != nil {
		return &PersistenceError{Op: OpSave, Snapshot: SessionSnapshot, Err: err}
	}
	m.lastSaved = now
	return nil
}

// saveSession records a selection change. Failures are logged only.
func (m *Manager) saveSession() {
	if m.backend == nil {
		return
	}
	if err := m.writeSession(); err != nil {
		m.log.Warn("saving session failed", "err", err)
	}
}

// LoadSnapshot replaces the in-memory data with the data snapshot. A missing
// snapshot leaves the state alone. A corrupt one is discarded, the data reset
// to empty, and a *PersistenceError returned.
func (m *Manager) LoadSnapshot() error {
	if m.backend == nil {
		return nil
	}
	payload, err := m.backend.Snapshot(DataSnapshot)
	if err != nil {
		return &PersistenceError{Op: OpLoad, Snapshot: DataSnapshot, Err: err}
	}
	if payload == nil {
		return nil
	}
	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		m.log.Error("discarding corrupt snapshot", "snapshot", DataSnapshot, "err", err)
		m.data = Data{}
		m.dirty = false
		if derr := m.backend.DeleteSnapshot(DataSnapshot); derr != nil {
			m.log.Warn("deleting corrupt snapshot failed", "err", derr)
		}
		return &PersistenceError{Op: OpLoad, Snapshot: DataSnapshot, Reset: true, Err: err}
	}
	m.data = m.loaded(data)
	m.dirty = false
	return nil
}

// RestoreSession loads the session snapshot: selection and data. A corrupt
// snapshot clears the session.
func (m *Manager) RestoreSession() error {
	if m.backend == nil {
		return nil
	}
	payload, err := m.backend.Snapshot(SessionSnapshot)
	if err != nil {
		return &PersistenceError{Op: OpLoad, Snapshot: SessionSnapshot, Err: err}
	}
	if payload == nil {
		return nil
	}
	var doc sessionDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		m.log.Error("discarding corrupt snapshot", "snapshot", SessionSnapshot, "err", err)
		if cerr := m.ClearSession(); cerr != nil {
			m.log.Warn("clearing session failed", "err", cerr)
		}
		return &PersistenceError{Op: OpLoad, Snapshot: SessionSnapshot, Reset: true, Err: err}
	}

	m.data = m.loaded(doc.TimetableData)
	m.stream, m.semester = "", ""
	if _, ok := m.streams[doc.CurrentStream]; ok {
		m.stream = doc.CurrentStream
		if m.validSemester(doc.CurrentSemester) {
			m.semester = doc.CurrentSemester
		}
	}
	if t, err := time.Parse(time.RFC3339, doc.LastUpdated); err == nil {
		m.lastSaved = t
	}
	m.dirty = false
	return nil
}

// ClearSession drops the session snapshot and resets all in-memory state.
func (m *Manager) ClearSession() error {
	m.data = Data{}
	m.stream, m.semester = "", ""
	m.fetchToken = ""
	m.dirty = false
	m.lastSaved = time.Time{}
	if m.backend == nil {
		return nil
	}
	if err := m.backend.DeleteSnapshot(SessionSnapshot); err != nil {
		return &PersistenceError{Op: OpSave, Snapshot: SessionSnapshot, Err: err}
	}
	return nil
}

func (m *Manager) loaded(data Data) Data {
	if data == nil {
		return Data{}
	}
	out := NormalizeLegacyTimes(data)
	for scope, entries := range out {
		if entries == nil {
			out[scope] = Entries{}
		}
	}
	return out
}
