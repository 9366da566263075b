package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/timetable/internal/api"
	"github.com/sadopc/timetable/internal/store"
	"github.com/sadopc/timetable/internal/timetable"
	"github.com/sadopc/timetable/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return err
	}

	s, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	logPath, err := store.DefaultLogPath()
	if err != nil {
		return err
	}
	logFile, err := tea.LogToFile(logPath, "")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := s.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	policy, err := tui.PolicyFromConfig(s, cfg)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIBaseURL, api.DefaultHTTPClient())
	mgr := timetable.New(timetable.Options{
		Streams:      cachedStreams(s, logger),
		Policy:       policy,
		Backend:      s,
		Source:       client,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	})

	var startupErrs []error
	if err := mgr.RestoreSession(); err != nil {
		logger.Warn("restoring session failed", "err", err)
		startupErrs = append(startupErrs, err)
	}
	refreshCatalog(mgr, s, client, cfg.FetchTimeout, logger)

	app := tui.NewApp(tui.Options{
		Manager: mgr,
		Store:   s,
		Config:  cfg,
		Logger:  logger,
	})
	for _, err := range startupErrs {
		app = app.WithError(err)
	}

	logger.Info("starting", "db", dbPath, "api", cfg.APIBaseURL, "stream", mgr.Stream(), "semester", mgr.Semester())
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// cachedStreams returns the last stream catalog fetched from the API, or nil
// to use the compiled-in defaults.
func cachedStreams(s *store.Store, logger *slog.Logger) map[string]timetable.Stream {
	records, err := s.ListStreams()
	if err != nil {
		logger.Warn("reading cached streams failed", "err", err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}
	streams := make(map[string]timetable.Stream, len(records))
	for _, r := range records {
		streams[r.ID] = timetable.Stream{
			ID:             r.ID,
			Name:           r.Name,
			Duration:       r.Duration,
			TotalSemesters: r.TotalSemesters,
			Description:    r.Description,
		}
	}
	return streams
}

// refreshCatalog pulls streams and faculty details from the API before the
// UI starts. Failures keep the cached or default values. The faculty
// response only refreshes specializations: the allow-list itself is the
// locally edited faculty table.
func refreshCatalog(mgr *timetable.Manager, s *store.Store, client *api.Client, timeout time.Duration, logger *slog.Logger) {
	if err := mgr.RefreshStreams(context.Background()); err != nil {
		logger.Info("using cached stream catalog", "err", err)
	} else {
		var records []store.StreamRecord
		for _, st := range mgr.Streams() {
			records = append(records, store.StreamRecord{
				ID:             st.ID,
				Name:           st.Name,
				Duration:       st.Duration,
				TotalSemesters: st.TotalSemesters,
				Description:    st.Description,
			})
		}
		if err := s.SaveStreams(records); err != nil {
			logger.Warn("caching streams failed", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	faculty, err := client.Faculty(ctx)
	if err != nil {
		logger.Info("using stored faculty list", "err", err)
		return
	}
	updated, err := s.UpdateSpecializations(faculty)
	if err != nil {
		logger.Warn("storing faculty details failed", "err", err)
		return
	}
	logger.Info("faculty details refreshed", "received", len(faculty), "updated", updated)
	if all, err := s.FacultyMap(); err == nil {
		mgr.SetPolicyFaculty(all)
	}
}
