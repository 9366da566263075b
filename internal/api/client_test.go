package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sadopc/timetable/internal/timetable"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client())
}

func TestStreams(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/streams" {
			t.Errorf("path = %q, want /streams", r.URL.Path)
		}
		w.Write([]byte(`{"MCA":{"name":"Master of Computer Applications","duration":"2 Years","totalSemesters":4,"description":"d"}}`))
	})

	streams, err := c.Streams(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	mca, ok := streams["MCA"]
	if !ok {
		t.Fatal("MCA missing")
	}
	if mca.ID != "MCA" || mca.TotalSemesters != 4 || mca.Duration != "2 Years" {
		t.Fatalf("unexpected stream: %+v", mca)
	}
}

func TestTimetable(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/timetable" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("stream") != "MSC_AI_ML" || r.URL.Query().Get("semester") != "1" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"Monday-9:00 AM - 11:00 AM":{"subjectName":"Python","facultyName":"Dr. Suchit Purohit","classType":"Lecture","room":"101","day":"Monday","timeSlot":"9:00 AM - 11:00 AM"}}`))
	})

	entries, err := c.Timetable(context.Background(), "MSC_AI_ML", "1")
	if err != nil {
		t.Fatal(err)
	}
	e, ok := entries["Monday-9:00 AM - 11:00 AM"]
	if !ok {
		t.Fatalf("entry missing: %+v", entries)
	}
	if e.SubjectName != "Python" || e.Day != timetable.Monday {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestTimetableEmptyBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})
	entries, err := c.Timetable(context.Background(), "MCA", "2")
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty entries, got %v", entries)
	}
}

func TestTimetableRequiresScope(t *testing.T) {
	c := NewClient("http://example.invalid", nil)
	if _, err := c.Timetable(context.Background(), "MCA", ""); err == nil {
		t.Fatal("expected error without semester")
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
	}
	for _, tt := range tests {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := c.Streams(context.Background())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestServerError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.Timetable(context.Background(), "MCA", "1")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d", se.Status)
	}
}

func TestMalformedBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})
	if _, err := c.Faculty(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestContextDeadline(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Timetable(ctx, "MCA", "1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFaculty(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Ms. Anju Jha":"Artificial Intelligence"}`))
	})
	f, err := c.Faculty(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f["Ms. Anju Jha"] != "Artificial Intelligence" {
		t.Fatalf("unexpected faculty: %v", f)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", nil)
	if _, err := c.Streams(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
