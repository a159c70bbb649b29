package pipeline

import (
	"context"
	"time"

	"github.com/jony/genie/internal/models"
	"github.com/jony/genie/internal/prioritizer"
	"github.com/jony/genie/internal/store"
)

// recommendAndSchedule runs steps 5-7: fetch free/busy, ask the
// Prioritizer for the single best next action, then attempt to place it
// on the calendar. Runs without the per-user lock, against the snapshot
// just committed in applyUtterance.
func (p *Pipeline) recommendAndSchedule(ctx context.Context, userID string) models.Recommendation {
	now := time.Now().UTC()

	user, err := p.store.GetOrCreateUser(userID)
	if err != nil {
		return models.NoFitRecommendation()
	}

	calCtx, cancel := context.WithTimeout(ctx, CalendarDeadline)
	fb := p.calendar.FreeBusy(calCtx, now, now.Add(24*time.Hour))
	cancel()

	tasks, err := p.store.ListTasks(userID, nil)
	if err != nil {
		return models.NoFitRecommendation()
	}

	rec := prioritizer.Recommend(tasks, fb, user.Preferences, now)
	if rec.SubtaskID == "" {
		return rec
	}

	task, subtask := findSubtask(tasks, rec.TaskID, rec.SubtaskID)
	if task == nil || subtask == nil {
		return rec
	}

	calCtx2, cancel2 := context.WithTimeout(ctx, CalendarDeadline)
	placement := p.scheduler.Place(calCtx2, subtask, subtask.Details, subtask.ResourceURL, fb, now)
	cancel2()

	if placement.Err != nil {
		if p.log != nil {
			p.log.Warnw("pipeline: scheduling failed, recommendation stands unscheduled", "task", rec.TaskID, "subtask", rec.SubtaskID, "error", placement.Err)
		}
		return rec
	}
	if !placement.Scheduled || placement.Event == nil {
		return rec
	}

	ev := placement.Event
	if _, err := p.store.UpdateSubtask(userID, task.ID, subtask.ID, store.SubtaskPatch{Event: &ev}); err != nil && p.log != nil {
		p.log.Warnw("pipeline: failed to persist scheduled event handle", "subtask", subtask.ID, "error", err)
	}

	rec.Scheduled = &models.ScheduledWindow{Start: ev.Start, End: ev.End}
	return rec
}

// Recommendation is the `GET recommendation` operation: it runs steps 5-7
// against the user's current committed state and returns the result.
func (p *Pipeline) Recommendation(ctx context.Context, userID string) models.Recommendation {
	return p.recommendAndSchedule(ctx, userID)
}

func findSubtask(tasks []*models.Task, taskID, subtaskID string) (*models.Task, *models.Subtask) {
	for _, t := range tasks {
		if t.ID != taskID {
			continue
		}
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				return t, &t.Subtasks[i]
			}
		}
	}
	return nil, nil
}
