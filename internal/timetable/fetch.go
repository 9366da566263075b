package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Fetch is a pending remote load for one stream/semester.
type Fetch struct {
	Token    string
	Stream   string
	Semester string

	source  Source
	timeout time.Duration
}

// FetchResult is what Run hands back to ApplyFetch.
type FetchResult struct {
	Token    string
	Stream   string
	Semester string
	Entries  Entries
	Err      error
}

func (m *Manager) newFetch() *Fetch {
	m.fetchToken = uuid.NewString()
	return &Fetch{
		Token:    m.fetchToken,
		Stream:   m.stream,
		Semester: m.semester,
		source:   m.source,
		timeout:  m.timeout,
	}
}

// Run performs the request bounded by the configured timeout. It is safe to
// call off the UI goroutine.
func (f *Fetch) Run(ctx context.Context) FetchResult {
	res := FetchResult{Token: f.Token, Stream: f.Stream, Semester: f.Semester}
	if f.source == nil {
		res.Err = errors.New("no timetable source configured")
		return res
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	entries, err := f.source.Timetable(ctx, f.Stream, f.Semester)
	if err != nil {
		res.Err = err
		return res
	}
	res.Entries = entries
	return res
}

// ApplyFetch installs a fetch result. It reports false when the result was
// superseded by a later selection and therefore ignored. A failed fetch
// returns a *NetworkError and leaves the cached entries untouched.
func (m *Manager) ApplyFetch(res FetchResult) (bool, error) {
	if res.Token == "" || res.Token != m.fetchToken {
		m.log.Debug("ignoring superseded fetch", "stream", res.Stream, "semester", res.Semester)
		return false, nil
	}
	m.fetchToken = ""

	if res.Err != nil {
		m.log.Warn("timetable fetch failed", "stream", res.Stream, "semester", res.Semester, "err", res.Err)
		return true, &NetworkError{Timeout: errors.Is(res.Err, context.DeadlineExceeded), Err: res.Err}
	}

	scope := ScopeKey(res.Stream, res.Semester)
	entries := res.Entries
	if entries == nil {
		entries = Entries{}
	}
	normalized := NormalizeLegacyTimes(Data{scope: entries})
	m.data[scope] = normalized[scope]
	m.log.Info("timetable loaded", "scope", scope, "classes", len(m.data[scope]))
	return true, nil
}

// Loading reports whether a fetch is outstanding.
func (m *Manager) Loading() bool { return m.fetchToken != "" }

// RefreshStreams replaces the stream catalog from the source.
func (m *Manager) RefreshStreams(ctx context.Context) error {
	if m.source == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	streams, err := m.source.Streams(ctx)
	if err != nil {
		m.log.Warn("stream refresh failed", "err", err)
		return &NetworkError{Timeout: errors.Is(err, context.DeadlineExceeded), Err: fmt.Errorf("load streams: %w", err)}
	}
	for id, s := range streams {
		s.ID = id
		streams[id] = s
	}
	m.SetStreams(streams)
	return nil
}
