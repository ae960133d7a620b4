package btc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/tempocal/tempocal/internal/models"
)

// ICSClient consumes the BTC calendar's published ICS feed. The feed carries
// the whole calendar; EventsForDay filters it down to one day in the
// calendar's local zone.
type ICSClient struct {
	feedURL string
	client  *http.Client
	loc     *time.Location
	retry   RetryPolicy
	logger  *slog.Logger
}

// NewICSClient creates an ICS feed client.
func NewICSClient(feedURL string, loc *time.Location, logger *slog.Logger) *ICSClient {
	return &ICSClient{
		feedURL: feedURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		loc:     loc,
		retry:   DefaultRetryPolicy(),
		logger:  logger,
	}
}

// Name returns the source identifier.
func (c *ICSClient) Name() string { return "btc-ics" }

// EventsForDay fetches the feed and returns the events starting on the given
// day. Malformed VEVENTs are skipped with a warning; only a feed-level
// failure fails the day.
func (c *ICSClient) EventsForDay(ctx context.Context, day time.Time) ([]models.BTCEvent, error) {
	var body []byte
	err := Retry(ctx, c.retry, func() error {
		fetched, err := c.fetchFeed(ctx)
		if err != nil {
			return err
		}
		body = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch ics feed: %w", err)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse ics feed: %w", err)
	}

	dayKey := models.DayKey(day.In(c.loc))
	now := time.Now().UTC()

	events := make([]models.BTCEvent, 0)
	for _, ve := range cal.Events() {
		ev, err := c.parseVEvent(ve)
		if err != nil {
			c.logger.Warn("skipping malformed vevent", "error", err)
			continue
		}
		if models.DayKey(ev.Start.In(c.loc)) != dayKey {
			continue
		}
		ev.FetchedAt = now
		events = append(events, ev)
	}

	c.logger.Debug("btc ics events filtered", "day", dayKey, "count", len(events))
	return events, nil
}

func (c *ICSClient) fetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewRetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, NewRetryableError(fmt.Errorf("feed returned %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (c *ICSClient) parseVEvent(ve *ical.VEvent) (models.BTCEvent, error) {
	var out models.BTCEvent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, fmt.Errorf("missing UID")
	}
	out.ID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	start, end, err := c.eventTimes(ve)
	if err != nil {
		return out, fmt.Errorf("event %s: %w", out.ID, err)
	}
	out.Start = start
	out.End = end

	// LOCATION holds "Venue Name, street address...": the first segment is
	// the venue name, the rest feeds the resolver's address fallback.
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.VenueName, out.VenueAddress = splitLocation(p.Value)
	}

	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		out.OrganizerName = organizerDisplayName(p)
	}

	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		// Multiple categories are comma-separated; the first is primary.
		if parts := strings.SplitN(p.Value, ",", 2); len(parts) > 0 {
			out.CategoryName = strings.TrimSpace(parts[0])
		}
	}

	return out, nil
}

// eventTimes extracts DTSTART/DTEND. All-day events carry DATE values that
// GetStartAt rejects, so those fall back to parsing the raw value in the
// calendar's zone; a missing all-day DTEND means one full day.
func (c *ICSClient) eventTimes(ve *ical.VEvent) (start, end time.Time, err error) {
	start, err = ve.GetStartAt()
	if err != nil {
		start, err = c.dateValue(ve, ical.ComponentPropertyDtStart)
		if err != nil {
			return start, end, fmt.Errorf("bad DTSTART: %w", err)
		}
		end, err = c.dateValue(ve, ical.ComponentPropertyDtEnd)
		if err != nil {
			end = start.AddDate(0, 0, 1)
		}
		return start, end, nil
	}

	end, err = ve.GetEndAt()
	if err != nil {
		return start, end, fmt.Errorf("bad DTEND: %w", err)
	}
	return start, end, nil
}

func (c *ICSClient) dateValue(ve *ical.VEvent, prop ical.ComponentProperty) (time.Time, error) {
	p := ve.GetProperty(prop)
	if p == nil || p.Value == "" {
		return time.Time{}, fmt.Errorf("missing %s", string(prop))
	}
	return time.ParseInLocation("20060102", p.Value, c.loc)
}

// HealthCheck probes the feed URL.
func (c *ICSClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.feedURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("feed health check returned %s", resp.Status)
	}
	return nil
}

func splitLocation(location string) (name, address string) {
	parts := strings.SplitN(location, ",", 2)
	name = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		address = strings.TrimSpace(parts[1])
	}
	return name, address
}

// organizerDisplayName prefers the CN parameter over the raw value, which is
// usually a mailto: URI.
func organizerDisplayName(p *ical.IANAProperty) string {
	if cn, ok := p.ICalParameters["CN"]; ok && len(cn) > 0 && cn[0] != "" {
		return cn[0]
	}
	return strings.TrimPrefix(p.Value, "mailto:")
}
