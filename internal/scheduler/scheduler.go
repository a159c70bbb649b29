// Package scheduler is the Scheduler (C8): places a recommended subtask
// into the user's calendar when a large-enough free interval exists in
// the next two hours, and keeps the Store's cached event handle in sync
// with cancellation/reschedule.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jony/genie/internal/calendarclient"
	"github.com/jony/genie/internal/models"
)

const (
	placementWindow = 2 * time.Hour
	trailingBuffer  = 5 * time.Minute
)

// Calendar is the narrow Calendar Client dependency the Scheduler needs.
type Calendar interface {
	CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error)
	UpdateEvent(ctx context.Context, eventID, summary, description string, start, end time.Time) error
	DeleteEvent(ctx context.Context, eventID string) error
	ListEvents(ctx context.Context, from, to time.Time) ([]calendarclient.Event, error)
}

// Scheduler places Recommendations onto the Calendar Client.
type Scheduler struct {
	cal           Calendar
	summaryPrefix string
	log           *zap.SugaredLogger
}

// New builds a Scheduler. summaryPrefix must already carry its trailing
// separating space (calendarclient.Client.SummaryPrefix returns it in that
// form) so findOrphan's comparison string matches what CreateEvent wrote.
func New(cal Calendar, summaryPrefix string, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{cal: cal, summaryPrefix: summaryPrefix, log: log}
}

// Placement is the outcome the Pipeline persists back onto the subtask.
type Placement struct {
	Event       *models.CalendarEvent
	Scheduled   bool
	Err         error
}

// Place attempts to schedule subtask within fb, the free/busy view for
// the next 24h. It honors the 30-minute schedulability cap (§3 invariant)
// and the idempotence contract: if subtask already carries an eventId and
// its window is unchanged, Place is a no-op; if the window changed, the
// existing event is updated in place rather than duplicated.
func (s *Scheduler) Place(ctx context.Context, subtask *models.Subtask, details string, resourceURL string, fb models.FreeBusy, now time.Time) Placement {
	if !subtask.Schedulable() {
		return Placement{Scheduled: false}
	}

	window, ok := earliestFit(fb, now, subtask.TimeEstimateMinutes)
	if !ok {
		return Placement{Scheduled: false}
	}

	summary := subtask.Heading
	description := details
	if resourceURL != "" {
		description = description + "\n\nResource: " + resourceURL
	}

	if subtask.Event != nil {
		if subtask.Event.Start.Equal(window.Start) && subtask.Event.End.Equal(window.End) {
			return Placement{Event: subtask.Event, Scheduled: true}
		}
		if err := s.cal.UpdateEvent(ctx, subtask.Event.EventID, summary, description, window.Start, window.End); err != nil {
			return Placement{Err: err}
		}
		ev := &models.CalendarEvent{EventID: subtask.Event.EventID, Start: window.Start, End: window.End, Summary: summary}
		return Placement{Event: ev, Scheduled: true}
	}

	if orphan, found := s.findOrphan(ctx, subtask.Heading, window); found {
		ev := &models.CalendarEvent{EventID: orphan.UID, Start: orphan.Start, End: orphan.End, Summary: orphan.Summary}
		return Placement{Event: ev, Scheduled: true}
	}

	eventID, err := s.cal.CreateEvent(ctx, summary, description, window.Start, window.End)
	if err != nil {
		return Placement{Err: err}
	}
	ev := &models.CalendarEvent{EventID: eventID, Start: window.Start, End: window.End, Summary: summary}
	return Placement{Event: ev, Scheduled: true}
}

// Cancel removes subtask's calendar handle, used when it is marked done,
// cancelled, or rescheduled out of its placed window.
func (s *Scheduler) Cancel(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return s.cal.DeleteEvent(ctx, eventID)
}

// findOrphan scans for an already-existing genie-owned event matching
// heading within window: recovers from the case where CreateEvent
// succeeded on a prior invocation but the Store write that would have
// recorded the eventId failed.
func (s *Scheduler) findOrphan(ctx context.Context, heading string, window models.Interval) (calendarclient.Event, bool) {
	events, err := s.cal.ListEvents(ctx, window.Start, window.End)
	if err != nil {
		return calendarclient.Event{}, false
	}
	want := s.summaryPrefix + heading
	for _, e := range events {
		if e.Summary == want && e.Start.Equal(window.Start) {
			return e, true
		}
	}
	return calendarclient.Event{}, false
}

// earliestFit finds the earliest free interval within [now, now+2h) large
// enough for estimateMinutes plus a 5-minute trailing buffer.
func earliestFit(fb models.FreeBusy, now time.Time, estimateMinutes int) (models.Interval, bool) {
	need := time.Duration(estimateMinutes)*time.Minute + trailingBuffer
	horizon := now.Add(placementWindow)

	best := models.Interval{}
	found := false
	for _, free := range fb.Free {
		start := free.Start
		if start.Before(now) {
			start = now
		}
		end := free.End
		if end.After(horizon) {
			end = horizon
		}
		if end.Sub(start) < need {
			continue
		}
		if !found || start.Before(best.Start) {
			best = models.Interval{Start: start, End: start.Add(time.Duration(estimateMinutes) * time.Minute)}
			found = true
		}
	}
	return best, found
}
