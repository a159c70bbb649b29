package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jony/genie/internal/calendarclient"
	"github.com/jony/genie/internal/models"
)

type fakeCalendar struct {
	events      []calendarclient.Event
	createCalls int
	updateCalls int
	deleteCalls int
	createErr   error
	nextID      int
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := "ev" + string(rune('0'+f.nextID))
	f.events = append(f.events, calendarclient.Event{UID: id, Summary: summary, Start: start, End: end})
	return id, nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, eventID, summary, description string, start, end time.Time) error {
	f.updateCalls++
	for i := range f.events {
		if f.events[i].UID == eventID {
			f.events[i].Start, f.events[i].End, f.events[i].Summary = start, end, summary
		}
	}
	return nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	f.deleteCalls++
	return nil
}

func (f *fakeCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]calendarclient.Event, error) {
	return f.events, nil
}

func newTestScheduler(cal Calendar) *Scheduler {
	return New(cal, "[Genie] ", zap.NewNop().Sugar())
}

func TestPlaceSchedulesIntoEarliestFreeInterval(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{}
	s := newTestScheduler(cal)

	sub := &models.Subtask{ID: "s1", Heading: "write the draft", TimeEstimateMinutes: 20}
	fb := models.FreeBusy{Connected: true, Free: []models.Interval{{Start: now, End: now.Add(time.Hour)}}}

	p := s.Place(context.Background(), sub, "details", "", fb, now)
	if !p.Scheduled || p.Event == nil {
		t.Fatalf("expected a schedule, got %+v", p)
	}
	if !p.Event.Start.Equal(now) {
		t.Errorf("expected placement at window start, got %v", p.Event.Start)
	}
	if cal.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", cal.createCalls)
	}
}

func TestPlaceSkipsSubtasksOverTheScheduleGranule(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{}
	s := newTestScheduler(cal)

	sub := &models.Subtask{ID: "s1", Heading: "huge task", TimeEstimateMinutes: 45}
	fb := models.FreeBusy{Connected: true, Free: []models.Interval{{Start: now, End: now.Add(2 * time.Hour)}}}

	p := s.Place(context.Background(), sub, "", "", fb, now)
	if p.Scheduled {
		t.Fatalf("expected unschedulable subtask to be skipped, got %+v", p)
	}
	if cal.createCalls != 0 {
		t.Errorf("expected no calendar calls for an unschedulable subtask")
	}
}

func TestPlaceIsNoOpWhenEventWindowUnchanged(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{}
	s := newTestScheduler(cal)

	existing := &models.CalendarEvent{EventID: "ev1", Start: now, End: now.Add(20 * time.Minute)}
	sub := &models.Subtask{ID: "s1", Heading: "write the draft", TimeEstimateMinutes: 20, Event: existing}
	fb := models.FreeBusy{Connected: true, Free: []models.Interval{{Start: now, End: now.Add(time.Hour)}}}

	p := s.Place(context.Background(), sub, "", "", fb, now)
	if !p.Scheduled || p.Event.EventID != "ev1" {
		t.Fatalf("expected idempotent no-op reusing ev1, got %+v", p)
	}
	if cal.createCalls != 0 || cal.updateCalls != 0 {
		t.Errorf("expected no calendar mutation, got create=%d update=%d", cal.createCalls, cal.updateCalls)
	}
}

func TestPlaceUpdatesInPlaceWhenWindowMoved(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{}
	s := newTestScheduler(cal)

	existing := &models.CalendarEvent{EventID: "ev1", Start: now.Add(-time.Hour), End: now.Add(-40 * time.Minute)}
	sub := &models.Subtask{ID: "s1", Heading: "write the draft", TimeEstimateMinutes: 20, Event: existing}
	fb := models.FreeBusy{Connected: true, Free: []models.Interval{{Start: now, End: now.Add(time.Hour)}}}

	p := s.Place(context.Background(), sub, "", "", fb, now)
	if !p.Scheduled || p.Event.EventID != "ev1" {
		t.Fatalf("expected same event id reused on move, got %+v", p)
	}
	if !p.Event.Start.Equal(now) {
		t.Errorf("expected event moved to new window start, got %v", p.Event.Start)
	}
	if cal.updateCalls != 1 || cal.createCalls != 0 {
		t.Errorf("expected a single update and no create, got update=%d create=%d", cal.updateCalls, cal.createCalls)
	}
}

func TestPlaceReturnsErrOnCalendarFailure(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{createErr: errors.New("caldav unreachable")}
	s := newTestScheduler(cal)

	sub := &models.Subtask{ID: "s1", Heading: "write the draft", TimeEstimateMinutes: 20}
	fb := models.FreeBusy{Connected: true, Free: []models.Interval{{Start: now, End: now.Add(time.Hour)}}}

	p := s.Place(context.Background(), sub, "", "", fb, now)
	if p.Err == nil {
		t.Fatalf("expected an error to be surfaced, got %+v", p)
	}
}

func TestCancelIsNoOpForEmptyEventID(t *testing.T) {
	cal := &fakeCalendar{}
	s := newTestScheduler(cal)
	if err := s.Cancel(context.Background(), ""); err != nil {
		t.Fatalf("Cancel with empty id should be a no-op, got %v", err)
	}
	if cal.deleteCalls != 0 {
		t.Errorf("expected no DeleteEvent call")
	}
}

func TestCancelDeletesExistingEvent(t *testing.T) {
	cal := &fakeCalendar{}
	s := newTestScheduler(cal)
	if err := s.Cancel(context.Background(), "ev1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cal.deleteCalls != 1 {
		t.Errorf("deleteCalls = %d, want 1", cal.deleteCalls)
	}
}
