package calendarclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jony/genie/internal/models"
)

// Client is a minimal CalDAV client scoped to one calendar collection.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.SugaredLogger
}

func New(cfg Config, log *zap.SugaredLogger) *Client {
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}, log: log}
}

// ListEvents returns every VEVENT overlapping [from, to), sorted by start,
// genie-owned or not; it does not filter on the marker prefix. The
// Scheduler uses it to find an orphaned event to adopt before creating a
// new one for the same subtask window, matching the prefixed summary
// itself.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	calURL := buildCalendarURL(c.cfg)
	hrefs, err := c.propfindHrefs(ctx, calURL)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, href := range hrefs {
		body, err := c.getICS(ctx, fullURL(calURL, href))
		if err != nil {
			continue
		}
		ev, ok := parseVEvent(body)
		if !ok {
			continue
		}
		window := models.Interval{Start: from, End: to}
		evWindow := models.Interval{Start: ev.Start, End: ev.End}
		if window.Overlaps(evWindow) {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

// FreeBusy computes free/busy windows over [from, to) from every VEVENT on
// the calendar, genie-owned or not. On any connectivity or auth failure it
// returns Connected=false with the whole range marked free: the Scheduler
// treats that as "degrade to best effort" per the calendar outage rule.
func (c *Client) FreeBusy(ctx context.Context, from, to time.Time) models.FreeBusy {
	calURL := buildCalendarURL(c.cfg)
	hrefs, err := c.propfindHrefs(ctx, calURL)
	if err != nil {
		if c.log != nil {
			c.log.Warnw("calendarclient: PROPFIND failed, assuming free", "error", err)
		}
		return models.FreeBusy{Free: []models.Interval{{Start: from, End: to}}, Connected: false}
	}

	var busy []models.Interval
	for _, href := range hrefs {
		body, err := c.getICS(ctx, fullURL(calURL, href))
		if err != nil {
			continue
		}
		ev, ok := parseVEvent(body)
		if !ok {
			continue
		}
		window := models.Interval{Start: from, End: to}
		evWindow := models.Interval{Start: ev.Start, End: ev.End}
		if window.Overlaps(evWindow) {
			busy = append(busy, evWindow)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	return models.FreeBusy{Free: complementIntervals(from, to, busy), Busy: busy, Connected: true}
}

// complementIntervals returns the gaps in [from, to) not covered by busy,
// which is assumed sorted by Start and may contain overlaps.
func complementIntervals(from, to time.Time, busy []models.Interval) []models.Interval {
	var free []models.Interval
	cursor := from
	for _, b := range busy {
		if b.Start.After(cursor) {
			free = append(free, models.Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(to) {
		free = append(free, models.Interval{Start: cursor, End: to})
	}
	return free
}

// CreateEvent pushes a new VEVENT and returns its UID (the Store's
// eventId). summary is prefixed with the configured marker automatically.
func (c *Client) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error) {
	uid := newUID()
	body := buildVEvent(uid, c.markSummary(summary), description, start, end)
	calURL := buildCalendarURL(c.cfg)
	return uid, c.put(ctx, calURL+uid+".ics", body)
}

// UpdateEvent overwrites the VEVENT identified by eventID with a new window.
func (c *Client) UpdateEvent(ctx context.Context, eventID, summary, description string, start, end time.Time) error {
	body := buildVEvent(eventID, c.markSummary(summary), description, start, end)
	calURL := buildCalendarURL(c.cfg)
	return c.put(ctx, calURL+eventID+".ics", body)
}

// DeleteEvent removes the VEVENT identified by eventID. A 404 is treated
// as success: the event is gone either way.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	calURL := buildCalendarURL(c.cfg)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, calURL+eventID+".ics", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	resp, err := c.http.Do(req)
	if err != nil {
		return &models.KindedError{Kind: models.KindTransientExternal, Entity: "event", ID: eventID, Message: "DELETE failed", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("calendarclient: DELETE rejected, status %d: %s", resp.StatusCode, string(body))
}

func (c *Client) markSummary(summary string) string {
	prefix := c.SummaryPrefix()
	if prefix == "" {
		return summary
	}
	if strings.HasPrefix(summary, prefix) {
		return summary
	}
	return prefix + summary
}

// SummaryPrefix returns the configured marker prefix normalized to carry
// exactly one trailing separating space, so callers outside this package
// (the Scheduler's orphan-adoption scan) compare against the same string
// CreateEvent/UpdateEvent actually write.
func (c *Client) SummaryPrefix() string {
	return normalizedPrefix(c.cfg.SummaryPrefix)
}

// normalizedPrefix trims any trailing whitespace from the configured
// marker prefix and reattaches exactly one separating space, so a config
// value of "[Genie] " or "[Genie]" both produce "[Genie] " and markSummary
// never doubles the space before the heading.
func normalizedPrefix(prefix string) string {
	trimmed := strings.TrimRight(prefix, " ")
	if trimmed == "" {
		return ""
	}
	return trimmed + " "
}

func (c *Client) put(ctx context.Context, url, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	resp, err := c.http.Do(req)
	if err != nil {
		return &models.KindedError{Kind: models.KindTransientExternal, Entity: "event", Message: "PUT failed", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendarclient: PUT rejected, status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *Client) propfindHrefs(ctx context.Context, calURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", calURL,
		strings.NewReader(`<?xml version="1.0"?><propfind xmlns="DAV:"><prop><getetag/></prop></propfind>`))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Depth", "1")
	req.Header.Set("Content-Type", "application/xml")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var hrefs []string
	for _, line := range strings.Split(string(body), "<") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "d:href>") || strings.HasPrefix(lower, "href>") {
			val := strings.SplitN(line, ">", 2)
			if len(val) == 2 && strings.HasSuffix(strings.TrimSpace(val[1]), ".ics") {
				hrefs = append(hrefs, strings.TrimSpace(val[1]))
			}
		}
	}
	return hrefs, nil
}

func (c *Client) getICS(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
