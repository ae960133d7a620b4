// Package btc talks to the external BTC calendar. Two client variants exist:
// a JSON HTTP API client and an ICS feed client; the orchestrator only sees
// the Source interface.
package btc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tempocal/tempocal/internal/models"
)

// Source is the external calendar collaborator: one operation, list the raw
// events for a calendar day.
type Source interface {
	// Name identifies the source variant for logs and reports.
	Name() string

	// EventsForDay returns the raw external events starting on the given
	// day. An error means the whole day could not be fetched.
	EventsForDay(ctx context.Context, day time.Time) ([]models.BTCEvent, error)

	// HealthCheck verifies the source is reachable.
	HealthCheck(ctx context.Context) error
}

// APIClient fetches events from the BTC JSON API.
type APIClient struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
	logger  *slog.Logger
}

// NewAPIClient creates a JSON API client for the given base URL.
func NewAPIClient(baseURL string, logger *slog.Logger) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy(),
		logger:  logger,
	}
}

// Name returns the source identifier.
func (c *APIClient) Name() string { return "btc-api" }

// EventsForDay fetches one day of events, retrying transient failures.
func (c *APIClient) EventsForDay(ctx context.Context, day time.Time) ([]models.BTCEvent, error) {
	endpoint := fmt.Sprintf("%s/api/events?date=%s", c.baseURL, url.QueryEscape(models.DayKey(day)))

	var events []models.BTCEvent
	err := Retry(ctx, c.retry, func() error {
		fetched, err := c.fetch(ctx, endpoint)
		if err != nil {
			return err
		}
		events = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch events for %s: %w", models.DayKey(day), err)
	}

	now := time.Now().UTC()
	for i := range events {
		events[i].FetchedAt = now
	}

	c.logger.Debug("btc events fetched", "day", models.DayKey(day), "count", len(events))
	return events, nil
}

// fetch performs one GET. Server-side and transport failures are retryable;
// a malformed body is not, retrying will not fix it.
func (c *APIClient) fetch(ctx context.Context, endpoint string) ([]models.BTCEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewRetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, NewRetryableError(fmt.Errorf("server returned %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var events []models.BTCEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return events, nil
}

// HealthCheck probes the API root.
func (c *APIClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}
