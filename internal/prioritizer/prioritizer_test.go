package prioritizer

import (
	"testing"
	"time"

	"github.com/jony/genie/internal/models"
)

func freeWindow(now time.Time, minutes int) models.FreeBusy {
	return models.FreeBusy{
		Connected: true,
		Free:      []models.Interval{{Start: now, End: now.Add(time.Duration(minutes) * time.Minute)}},
	}
}

func TestRecommendNoFitWhenNothingFitsTheWindow(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	task := &models.Task{
		ID:      "t1",
		Heading: "big task",
		Subtasks: []models.Subtask{
			{ID: "s1", Heading: "write the whole report", Status: models.StatusPending, TimeEstimateMinutes: 30},
		},
	}
	fb := freeWindow(now, 10) // shorter than any schedulable subtask
	rec := Recommend([]*models.Task{task}, fb, models.DefaultPreferences(), now)
	if rec.SubtaskID != "" {
		t.Fatalf("expected no-fit recommendation, got %+v", rec)
	}
}

func TestRecommendPrefersDeadlinePressureOverEnergyMatch(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC) // morning, peak window
	soon := now.Add(4 * time.Hour)
	far := now.Add(240 * time.Hour)

	urgent := &models.Task{
		ID:        "urgent",
		Heading:   "file expense report",
		Deadline:  &soon,
		CreatedAt: now,
		Subtasks: []models.Subtask{
			{ID: "u1", Heading: "file the form", Status: models.StatusPending, TimeEstimateMinutes: 20},
		},
	}
	deepWork := &models.Task{
		ID:        "deep",
		Heading:   "design the new system",
		Deadline:  &far,
		CreatedAt: now,
		Subtasks: []models.Subtask{
			{ID: "d1", Heading: "design the core schema", Status: models.StatusPending, TimeEstimateMinutes: 25},
		},
	}

	fb := freeWindow(now, 60)
	rec := Recommend([]*models.Task{deepWork, urgent}, fb, models.DefaultPreferences(), now)

	if rec.TaskID != "urgent" || rec.SubtaskID != "u1" {
		t.Fatalf("expected deadline-pressured subtask to win, got %+v", rec)
	}
}

func TestRecommendBreaksTiesByCreatedAt(t *testing.T) {
	now := time.Date(2026, 7, 29, 20, 0, 0, 0, time.UTC) // evening
	older := now.Add(-48 * time.Hour)
	newer := now.Add(-1 * time.Hour)

	a := &models.Task{
		ID:        "a",
		Heading:   "neutral task a",
		CreatedAt: older,
		Subtasks: []models.Subtask{
			{ID: "a1", Heading: "do something ambiguous", Status: models.StatusPending, TimeEstimateMinutes: 20},
		},
	}
	b := &models.Task{
		ID:        "b",
		Heading:   "neutral task b",
		CreatedAt: newer,
		Subtasks: []models.Subtask{
			{ID: "b1", Heading: "do something ambiguous too", Status: models.StatusPending, TimeEstimateMinutes: 20},
		},
	}

	fb := freeWindow(now, 60)
	rec := Recommend([]*models.Task{b, a}, fb, models.DefaultPreferences(), now)
	if rec.TaskID != "a" {
		t.Fatalf("expected older task to win tiebreak, got %+v", rec)
	}
}

func TestRecommendSkipsNonPendingSubtasks(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	task := &models.Task{
		ID:        "t1",
		Heading:   "ship feature",
		CreatedAt: now,
		Subtasks: []models.Subtask{
			{ID: "done", Heading: "write code", Status: models.StatusDone, TimeEstimateMinutes: 20},
			{ID: "pending", Heading: "write tests", Status: models.StatusPending, TimeEstimateMinutes: 20},
		},
	}
	fb := freeWindow(now, 60)
	rec := Recommend([]*models.Task{task}, fb, models.DefaultPreferences(), now)
	if rec.SubtaskID != "pending" {
		t.Fatalf("expected pending subtask to be recommended, got %+v", rec)
	}
}
