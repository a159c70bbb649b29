package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jony/genie/internal/models"
	"github.com/jony/genie/internal/planner"
	"github.com/jony/genie/internal/store"
)

// applyAction dispatches one Action by Kind (never by probing which
// fields happen to be set, per §9's redesign flag) and returns its
// per-action, user-visible outcome.
func (p *Pipeline) applyAction(ctx context.Context, userID string, action models.Action, prefs models.Preferences) models.ActionResult {
	switch action.Kind {
	case models.ActionAdd:
		return p.applyAdd(ctx, userID, action, prefs)
	case models.ActionEdit:
		return p.applyEdit(userID, action)
	case models.ActionMarkDone:
		return p.applyMarkDone(userID, action)
	case models.ActionReschedule:
		return p.applyReschedule(ctx, userID, action)
	case models.ActionAddSubtask:
		return p.applyAddSubtask(userID, action)
	case models.ActionDelete:
		return p.applyDelete(userID, action)
	case models.ActionQueryProgress:
		return p.applyQueryProgress(userID, action)
	case models.ActionQueryNext:
		return models.ActionResult{Action: action, OK: true, Message: "recommendation follows"}
	default:
		return models.ActionResult{Action: action, OK: false, Kind: models.KindValidation, Message: "unknown action kind"}
	}
}

func (p *Pipeline) applyAdd(ctx context.Context, userID string, action models.Action, prefs models.Preferences) models.ActionResult {
	task := &models.Task{
		Heading:      action.Heading,
		Details:      action.Details,
		Status:       models.StatusPending,
		Deadline:     action.Deadline,
		NeedsPlanning: true,
	}
	for _, seed := range action.Subtasks {
		task.Subtasks = append(task.Subtasks, models.Subtask{
			Heading: seed.Heading, Details: seed.Details, Deadline: seed.Deadline, Status: models.StatusPending,
		})
	}

	taskID, err := p.store.AddTask(userID, task)
	if err != nil {
		return models.ActionResult{Action: action, OK: false, Kind: kindOf(err), Message: err.Error()}
	}

	if len(task.Subtasks) == 0 {
		p.planSubtasks(ctx, userID, taskID, task, prefs)
	} else if err := p.store.ReplaceSubtasks(userID, taskID, task.Subtasks); err != nil && p.log != nil {
		p.log.Warnw("pipeline: failed to persist LLM-supplied subtasks", "task", taskID, "error", err)
	}

	return models.ActionResult{Action: action, OK: true, Message: "task created", TaskID: taskID}
}

// planSubtasks invokes the Planner for a newly-created task and persists
// its breakdown. The Planner is built fresh per call against the same
// per-user singleflight-gated Completer the Intent Extractor uses, so the
// two LLM call sites actually share the "one in-flight call per user"
// backpressure rule (§5) rather than only the Extractor honoring it. A
// panic from the Planner (a true component failure, distinct from the LLM
// returning bad JSON which the Planner already retries internally) leaves
// the task with zero subtasks and NeedsPlanning=true, per §4.9 step 3 / S4.
func (p *Pipeline) planSubtasks(ctx context.Context, userID, taskID string, task *models.Task, prefs models.Preferences) {
	defer func() {
		if r := recover(); r != nil {
			if p.log != nil {
				p.log.Errorw("pipeline: planner panicked, task needs manual planning", "task", taskID, "recover", r)
			}
			_ = p.store.SetNeedsPlanning(userID, taskID, true)
		}
	}()

	pl := planner.New(p.llmGate.forUser(userID), p.research, p.log)
	subs := pl.Plan(ctx, task, prefs)
	if err := p.store.ReplaceSubtasks(userID, taskID, subs); err != nil && p.log != nil {
		p.log.Warnw("pipeline: failed to persist planned subtasks", "task", taskID, "error", err)
	}
}

func (p *Pipeline) applyEdit(userID string, action models.Action) models.ActionResult {
	patch := store.Patch{}
	if v, ok := action.Patch["heading"].(string); ok {
		patch.Heading = &v
	}
	if v, ok := action.Patch["details"].(string); ok {
		patch.Details = &v
	}
	if v, ok := action.Patch["estimate"].(string); ok {
		if n, err := strconv.Atoi(v); err == nil {
			patch.Estimate = &n
		}
	}
	if action.Deadline != nil {
		d := action.Deadline
		patch.Deadline = &d
	}
	ok, err := p.store.UpdateTask(userID, action.Target, patch)
	if err != nil {
		return models.ActionResult{Action: action, OK: false, Kind: kindOf(err), Message: err.Error()}
	}
	return models.ActionResult{Action: action, OK: ok, Message: "task updated", TaskID: action.Target}
}

func (p *Pipeline) applyMarkDone(userID string, action models.Action) models.ActionResult {
	done := models.StatusDone
	_, err := p.store.UpdateTask(userID, action.Target, store.Patch{Status: &done})
	if err != nil {
		return models.ActionResult{Action: action, OK: false, Kind: kindOf(err), Message: err.Error()}
	}
	return models.ActionResult{Action: action, OK: true, Message: "task marked done", TaskID: action.Target}
}

// applyReschedule updates the task's deadline and invalidates any
// calendar placement already made for its subtasks (§3 invariant).
func (p *Pipeline) applyReschedule(ctx context.Context, userID string, action models.Action) models.ActionResult {
	deadline := action.Deadline
	_, err := p.store.UpdateTask(userID, action.Target, store.Patch{Deadline: &deadline})
	if err != nil {
		return models.ActionResult{Action: action, OK: false, Kind: kindOf(err), Message: err.Error()}
	}

	eventIDs, err := p.store.ClearTaskEvents(userID, action.Target)
	if err != nil && p.log != nil {
		p.log.Warnw("pipeline: failed to clear task events on reschedule", "task", action.Target, "error", err)
	}
	for _, eventID := range eventIDs {
		calCtx, cancel := context.WithTimeout(ctx, CalendarDeadline)
		if err := p.scheduler.Cancel(calCtx, eventID); err != nil && p.log != nil {
			p.log.Warnw("pipeline: failed to delete stale calendar event", "event", eventID, "error", err)
		}
		cancel()
	}
	return models.ActionResult{Action: action, OK: true, Message: "deadline rescheduled", TaskID: action.Target}
}

func (p *Pipeline) applyAddSubtask(userID string, action models.Action) models.ActionResult {
	now := time.Now().UTC()
	seed := models.Subtask{
		Heading:   action.Subtask.Heading,
		Details:   action.Subtask.Details,
		Deadline:  action.Subtask.Deadline,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := p.store.AddSubtask(userID, action.Target, seed)
	if err != nil {
		return models.ActionResult{Action: action, OK: false, Kind: kindOf(err), Message: err.Error()}
	}
	return models.ActionResult{Action: action, OK: true, Message: "subtask added", TaskID: action.Target}
}

func (p *Pipeline) applyDelete(userID string, action models.Action) models.ActionResult {
	if err := p.store.DeleteTask(userID, action.Target); err != nil {
		return models.ActionResult{Action: action, OK: false, Kind: kindOf(err), Message: err.Error()}
	}
	return models.ActionResult{Action: action, OK: true, Message: "task deleted", TaskID: action.Target}
}

func (p *Pipeline) applyQueryProgress(userID string, action models.Action) models.ActionResult {
	an, err := p.store.GetAnalytics(userID)
	if err != nil {
		return models.ActionResult{Action: action, OK: false, Kind: kindOf(err), Message: err.Error()}
	}
	msg := fmt.Sprintf("%d tasks tracked, %d done", an.TotalTasks, an.CountByStatus[models.StatusDone])
	return models.ActionResult{Action: action, OK: true, Message: msg}
}
