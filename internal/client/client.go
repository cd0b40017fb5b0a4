// Package client talks to the calendar API over HTTP and implements the
// calendar.EventAPI contract used by the interactive calendar.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP implementation of calendar.EventAPI.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client for the API mounted at baseURL, e.g.
// "http://localhost:8080/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ calendar.EventAPI = (*Client)(nil)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

// FetchEventsForPeriod returns the occurrences starting inside [start, end].
// Both bounds are required; no request is sent without them.
func (c *Client) FetchEventsForPeriod(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	if start.IsZero() || end.IsZero() {
		return nil, appErrors.ErrMissingBounds
	}
	q := url.Values{}
	q.Set("start_date", calendar.FormatBoundary(start))
	q.Set("end_date", calendar.FormatBoundary(end))

	var list dto.EventList
	if err := c.do(ctx, http.MethodGet, "/events", q, nil, &list); err != nil {
		return nil, err
	}
	if list.Events == nil {
		list.Events = []models.Event{}
	}
	return list.Events, nil
}

// UpdateEvent saves event. reference names the occurrence being edited when
// the event belongs to a series.
func (c *Client) UpdateEvent(ctx context.Context, event models.Event, scope models.Scope, reference *time.Time) error {
	q := url.Values{}
	if scope != "" {
		q.Set("scope", string(scope))
	}
	if reference != nil {
		q.Set("date", calendar.FormatBoundary(*reference))
	}
	return c.do(ctx, http.MethodPut, eventPath(event.ID), q, dto.EventRequestFromModel(event), nil)
}

// DeleteEvent removes one occurrence or a whole series.
func (c *Client) DeleteEvent(ctx context.Context, id string, opts models.DeleteOptions) error {
	q := url.Values{}
	if opts.Scope != "" {
		q.Set("scope", string(opts.Scope))
	}
	if opts.Date != nil {
		q.Set("date", calendar.FormatBoundary(*opts.Date))
	}
	return c.do(ctx, http.MethodDelete, eventPath(id), q, nil, nil)
}

// ChangeDoneStatus stores event.IsDone for that occurrence only.
func (c *Client) ChangeDoneStatus(ctx context.Context, event models.Event) error {
	return c.do(ctx, http.MethodPatch, eventPath(event.ID)+"/done", nil, dto.DoneRequest{IsDone: event.IsDone}, nil)
}

// GetEvent loads one occurrence or stored event.
func (c *Client) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var ev models.Event
	if err := c.do(ctx, http.MethodGet, eventPath(id), nil, nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListPets returns the pets known to the API.
func (c *Client) ListPets(ctx context.Context) ([]models.Pet, error) {
	var pets []models.Pet
	if err := c.do(ctx, http.MethodGet, "/pets", nil, nil, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	began := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message)
	}
	defer resp.Body.Close()
	c.logger.Debug("calendar api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(began)))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "decode response")
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "decode response data")
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Code != "" {
		if env.Error.Status == 0 {
			env.Error.Status = status
		}
		return env.Error
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return appErrors.New(appErrors.ErrUnavailable.Code, status, msg)
}
