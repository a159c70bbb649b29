// Package planner is the Planner (C6): decomposes a newly-created task
// into 2-5 short, ordered subtasks, each annotated with at most one
// research resource, via a single breakdown LLM call followed by one
// Research Client lookup per subtask heading.
package planner

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jony/genie/internal/models"
)

// Completer is the narrow LLM dependency the Planner needs.
type Completer interface {
	Complete(ctx context.Context, templateName string, vars map[string]string) models.Result[string]
}

// Researcher is the narrow Research Client dependency the Planner needs.
type Researcher interface {
	Find(ctx context.Context, focus string, maxResults int) []models.Resource
}

// Planner turns a task into its subtask breakdown.
type Planner struct {
	llm      Completer
	research Researcher
	log      *zap.SugaredLogger
}

func New(llm Completer, research Researcher, log *zap.SugaredLogger) *Planner {
	return &Planner{llm: llm, research: research, log: log}
}

type rawSubtask struct {
	Heading      string `json:"heading"`
	Details      string `json:"details"`
	TimeEstimate int    `json:"time_estimate_minutes"`
}

// Plan produces between 2 and 5 subtasks for task, using prefs to steer
// session-length expectations. On a first invalid LLM response it retries
// once with a clarifying suffix; on a second failure it falls back to a
// single subtask mirroring the task itself, per §4.6.
func (p *Planner) Plan(ctx context.Context, task *models.Task, prefs models.Preferences) []models.Subtask {
	taskJSON, _ := json.Marshal(task)
	prefsJSON, _ := json.Marshal(prefs)

	vars := map[string]string{
		"task_json":        string(taskJSON),
		"preferences_json": string(prefsJSON),
		"clarification":    "",
	}

	subs, ok := p.attempt(ctx, vars)
	if !ok {
		vars["clarification"] = "Return ONLY a JSON array of 2 to 5 objects, each with heading, details, time_estimate_minutes (15-30). No prose, no markdown fences."
		subs, ok = p.attempt(ctx, vars)
	}
	if !ok {
		if p.log != nil {
			p.log.Warnw("planner: falling back to single mirrored subtask", "task", task.Heading)
		}
		return []models.Subtask{fallbackSubtask(task)}
	}

	now := time.Now().UTC()
	out := make([]models.Subtask, 0, len(subs))
	for _, rs := range subs {
		heading := strings.TrimSpace(rs.Heading)
		if heading == "" {
			continue
		}
		est := rs.TimeEstimate
		if est < 15 {
			est = 15
		}
		if est > 30 {
			est = 30
		}
		sub := models.Subtask{
			Heading:             heading,
			Details:             rs.Details,
			Status:              models.StatusPending,
			TimeEstimateMinutes: est,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if res := p.research.Find(ctx, heading, 1); len(res) > 0 {
			sub.ResourceURL = res[0].URL
			sub.ResourceFocus = res[0].Focus
		}
		out = append(out, sub)
		if len(out) == 5 {
			break
		}
	}
	if len(out) < 2 {
		return []models.Subtask{fallbackSubtask(task)}
	}
	return out
}

// attempt issues one breakdown LLM call and parses its result into raw
// subtasks; ok is false on any transient/invalid/unparseable outcome.
func (p *Planner) attempt(ctx context.Context, vars map[string]string) ([]rawSubtask, bool) {
	result := p.llm.Complete(ctx, "breakdown", vars)
	if result.Outcome != models.Ok {
		return nil, false
	}
	var subs []rawSubtask
	if err := json.Unmarshal([]byte(result.Value), &subs); err != nil {
		return nil, false
	}
	if len(subs) < 2 {
		return nil, false
	}
	return subs, true
}

// fallbackSubtask mirrors the task itself: a single 30-minute subtask
// with the same heading, used when the LLM never produces a usable
// breakdown after both attempts.
func fallbackSubtask(task *models.Task) models.Subtask {
	now := time.Now().UTC()
	return models.Subtask{
		Heading:             task.Heading,
		Details:             task.Details,
		Status:              models.StatusPending,
		TimeEstimateMinutes: 30,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
