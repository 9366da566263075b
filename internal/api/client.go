// Package api is the client for the remote timetable service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sadopc/timetable/internal/timetable"
)

var (
	ErrNotConfigured = errors.New("timetable api base url not configured")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Path, e.Status)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// DefaultHTTPClient has a hard ceiling above the per-request context timeout.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

type streamResponse struct {
	Name           string `json:"name"`
	Duration       string `json:"duration"`
	TotalSemesters int    `json:"totalSemesters"`
	Description    string `json:"description"`
}

// Streams fetches GET /streams: stream id -> metadata.
func (c *Client) Streams(ctx context.Context) (map[string]timetable.Stream, error) {
	var body map[string]streamResponse
	if err := c.getJSON(ctx, "/streams", nil, &body); err != nil {
		return nil, err
	}
	out := make(map[string]timetable.Stream, len(body))
	for id, s := range body {
		out[id] = timetable.Stream{
			ID:             id,
			Name:           s.Name,
			Duration:       s.Duration,
			TotalSemesters: s.TotalSemesters,
			Description:    s.Description,
		}
	}
	return out, nil
}

// Timetable fetches GET /timetable?stream=&semester=: slot key -> class.
func (c *Client) Timetable(ctx context.Context, stream, semester string) (timetable.Entries, error) {
	if stream == "" || semester == "" {
		return nil, errors.New("stream and semester required")
	}
	q := url.Values{}
	q.Set("stream", stream)
	q.Set("semester", semester)

	var body timetable.Entries
	if err := c.getJSON(ctx, "/timetable", q, &body); err != nil {
		return nil, err
	}
	if body == nil {
		body = timetable.Entries{}
	}
	return body, nil
}

// Faculty fetches GET /faculty: name -> specialization.
func (c *Client) Faculty(ctx context.Context) (map[string]string, error) {
	var body map[string]string
	if err := c.getJSON(ctx, "/faculty", nil, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusNotFound:
		return fmt.Errorf("get %s: %w", path, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("get %s: %w", path, ErrUnauthorized)
	default:
		return &StatusError{Path: path, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
