// Package activityapi is the HTTP client for the activities API consumed by the board.
package activityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"activityboard/internal/adapters/http/perf"
	"activityboard/internal/domain/activity"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// ErrMalformedResponse is returned when a response body is not the expected JSON.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx answer from the activities API.
type APIError struct {
	StatusCode int
	Status     string
	detail     string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("activities api: %d: %s", e.StatusCode, e.detail)
	}
	return fmt.Sprintf("activities api: %s", e.Status)
}

// Detail returns the server-provided explanation, empty when the body carried none.
func (e *APIError) Detail() string {
	return e.detail
}

// Client calls the activities API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	collector *perf.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCollector records every upstream call into collector.
func WithCollector(collector *perf.Collector) Option {
	return func(c *Client) { c.collector = collector }
}

// NewClient creates a Client rooted at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a client with no request timeout; callers bound calls with ctx
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse activities api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("activities api url %q: scheme must be http or https", baseURL)
	}
	c := &Client{baseURL: u, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// activityDTO is the wire shape of one activity in GET /activities.
type activityDTO struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// resultDTO covers both the success and error bodies of mutations.
type resultDTO struct {
	Message json.RawMessage `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

// ListActivities fetches every activity in server order.
// PRE: none
// POST: Returns activities in the order the server listed them, or an error
func (c *Client) ListActivities(ctx context.Context) ([]activity.Activity, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/activities", c.endpoint("activities"))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp, body)
	}
	activities, err := decodeActivities(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return activities, nil
}

// Signup registers email for the named activity.
// PRE: name and email are the raw user values; both are percent-encoded here
// POST: Returns the server confirmation message, an *APIError, or a transport error
// Failures carry detail, falling back to message.
func (c *Client) Signup(ctx context.Context, name, email string) (string, error) {
	resp, body, err := c.do(ctx, http.MethodPost, "/activities/{name}/signup", c.mutationURL(name, "signup", email))
	if err != nil {
		return "", err
	}
	var result resultDTO
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, newAPIError(resp, nil))
		}
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newAPIError(resp, body)
	}
	return rawString(result.Message), nil
}

// Unregister removes email from the named activity.
// A success body is ignored; failures carry detail, falling back to message.
func (c *Client) Unregister(ctx context.Context, name, email string) error {
	resp, body, err := c.do(ctx, http.MethodPost, "/activities/{name}/unregister", c.mutationURL(name, "unregister", email))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	return newAPIError(resp, body)
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.baseURL
	raw := u.EscapedPath()
	plain := u.Path
	for _, s := range segments {
		raw += "/" + url.PathEscape(s)
		plain += "/" + s
	}
	u.Path = plain
	u.RawPath = raw
	return &u
}

func (c *Client) mutationURL(name, action, email string) *url.URL {
	u := c.endpoint("activities", name, action)
	u.RawQuery = "email=" + url.QueryEscape(email)
	return u
}

// do executes one request, times it, and reads the bounded body.
func (c *Client) do(ctx context.Context, method, route string, u *url.URL) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	status := 0
	defer func() {
		c.collector.Record(perf.Entry{
			Kind:       perf.KindUpstream,
			Path:       method + " " + route,
			StatusCode: status,
			DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
			Timestamp:  start,
		})
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s: %w", method, route, err)
	}
	return resp, body, nil
}

// newAPIError builds an APIError from a failure body, tolerating non-JSON bodies.
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	var result resultDTO
	if len(body) > 0 && json.Unmarshal(body, &result) == nil {
		apiErr.detail = rawString(result.Detail)
		if apiErr.detail == "" {
			apiErr.detail = rawString(result.Message)
		}
	}
	return apiErr
}

// rawString returns raw as a string when it is a JSON string, empty otherwise.
// Validation errors carry a list in detail; those are not shown to users.
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// decodeActivities reads the name→activity object preserving key order.
func decodeActivities(body []byte) ([]activity.Activity, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var activities []activity.Activity
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected activity name, got %v", tok)
		}
		var dto activityDTO
		if err := dec.Decode(&dto); err != nil {
			return nil, fmt.Errorf("activity %q: %w", name, err)
		}
		participants := dto.Participants
		if participants == nil {
			participants = []string{}
		}
		activities = append(activities, activity.Activity{
			Name:            name,
			Description:     dto.Description,
			Schedule:        dto.Schedule,
			MaxParticipants: dto.MaxParticipants,
			Participants:    participants,
		})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return activities, nil
}
