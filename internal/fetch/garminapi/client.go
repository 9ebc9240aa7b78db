// Package garminapi fetches wellness data over plain HTTPS with a bearer token, without a browser.
package garminapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/fetch"
	"example.com/wellness/internal/normalize"
	"example.com/wellness/internal/retry"
)

const maxErrorBody = 512

// Client implements pipeline.Fetcher and pipeline.Reclassifier against the platform's JSON endpoints.
type Client struct {
	baseURL     string
	displayName string
	http        *http.Client
	attempts    int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetry bounds wellness load attempts; the wait between them grows linearly from delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// WithHTTPClient replaces the base transport client. The bearer token is still applied on top.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

// New builds a Client authenticating every request with token.
func New(baseURL, displayName, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		displayName: displayName,
		http:        &http.Client{Timeout: time.Minute},
		attempts:    1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	c.http = &http.Client{
		Timeout: c.http.Timeout,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   c.http.Transport,
		},
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("NK", "NT")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(payload) > maxErrorBody {
			payload = payload[:maxErrorBody]
		}
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

// FetchWellness loads the wellness metrics for the window, retrying while the payload is incomplete.
func (c *Client) FetchWellness(ctx context.Context, from, to time.Time, metricIDs []int) ([]normalize.Raw, error) {
	path := fetch.WellnessPath(c.displayName, from, to, metricIDs)

	var raws []normalize.Raw
	err := retry.Attempts(ctx, c.attempts, c.retryDelay, func(ctx context.Context, attempt int) error {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		raws, err = fetch.DecodeWellness(body, from, to, metricIDs)
		if err != nil && attempt < c.attempts {
			c.logger.Info("failed to load metrics, trying again", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return raws, nil
}

// FetchActivities pages through the activity list for the window.
func (c *Client) FetchActivities(ctx context.Context, from, to time.Time) ([]normalize.Raw, error) {
	var all []normalize.Raw
	for start := 0; ; start += fetch.ActivityPageSize {
		body, err := c.do(ctx, http.MethodGet, fetch.ActivitiesPath(from, to, start), nil)
		if err != nil {
			return nil, err
		}
		page, err := fetch.DecodeActivities(body)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < fetch.ActivityPageSize {
			return all, nil
		}
	}
}

// FetchWeighIns loads the weigh-ins for the window.
func (c *Client) FetchWeighIns(ctx context.Context, from, to time.Time) ([]normalize.Raw, error) {
	body, err := c.do(ctx, http.MethodGet, fetch.WeighInsPath(from, to), nil)
	if err != nil {
		return nil, err
	}
	return fetch.DecodeWeighIns(body)
}

// Reclassify submits the type change for one activity.
func (c *Client) Reclassify(ctx context.Context, activityID int64, to domain.ActivityType) error {
	body, err := fetch.ReclassifyBody(activityID, to)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, fetch.ActivityPath(activityID), body)
	return err
}

// ActivityType reads the type the platform currently holds for the activity.
func (c *Client) ActivityType(ctx context.Context, activityID int64) (domain.ActivityType, error) {
	body, err := c.do(ctx, http.MethodGet, fetch.ActivityPath(activityID), nil)
	if err != nil {
		return domain.ActivityType{}, err
	}
	return fetch.DecodeActivityType(body)
}
