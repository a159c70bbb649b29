package intent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jony/genie/internal/llmclient"
	"github.com/jony/genie/internal/models"
)

// Completer is the subset of llmclient.Client the Extractor depends on,
// narrow enough to fake in tests.
type Completer interface {
	Complete(ctx context.Context, templateName string, vars map[string]string) models.Result[string]
}

var _ Completer = (*llmclient.Client)(nil)

// Extract prompts the LLM with the fixed "extract_intent" template, the
// compact task graph and the raw utterance, then parses and validates the
// result into an ordered list of Actions. Any failure to obtain a usable
// action list falls back to a single `add` action carrying the raw
// utterance verbatim (§4.5: "the user's input is never lost").
func Extract(ctx context.Context, llm Completer, utterance string, graph []TaskGraphEntry, lastTaskID string) []models.Action {
	graphJSON, _ := json.Marshal(graphView(graph))

	result := llm.Complete(ctx, "extract_intent", map[string]string{
		"existing_tasks_json": string(graphJSON),
		"task_graph_json":     string(graphJSON),
		"user_input":          utterance,
		"current_time_utc":    time.Now().UTC().Format(time.RFC3339),
	})
	if result.Outcome != models.Ok {
		return fallbackAdd(utterance)
	}

	raws, err := parseRawActions(result.Value)
	if err != nil {
		return fallbackAdd(utterance)
	}

	actions := make([]models.Action, 0, len(raws))
	for _, ra := range raws {
		if !models.ValidActionKind(ra.Kind) {
			continue // unknown kind: dropped per §4.5
		}
		if !requiredFieldsOK(ra) {
			continue // malformed: dropped without logging
		}
		action, ok := toAction(ra, graph, lastTaskID)
		if !ok {
			continue // ambiguous or unresolved target: dropped
		}
		actions = append(actions, action)
	}

	if len(actions) == 0 {
		return fallbackAdd(utterance)
	}
	return actions
}

type subtaskGraphEntryView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type graphEntryView struct {
	ID       string                  `json:"id"`
	Heading  string                  `json:"heading"`
	Status   string                  `json:"status"`
	Deadline string                  `json:"deadline,omitempty"`
	Subtasks []subtaskGraphEntryView `json:"subtasks,omitempty"`
}

func graphView(graph []TaskGraphEntry) []graphEntryView {
	out := make([]graphEntryView, len(graph))
	for i, e := range graph {
		v := graphEntryView{ID: e.ID, Heading: e.Heading, Status: string(e.Status)}
		if e.Deadline != nil {
			v.Deadline = e.Deadline.UTC().Format(time.RFC3339)
		}
		if len(e.Subtasks) > 0 {
			v.Subtasks = make([]subtaskGraphEntryView, len(e.Subtasks))
			for j, s := range e.Subtasks {
				v.Subtasks[j] = subtaskGraphEntryView{ID: s.ID, Status: string(s.Status)}
			}
		}
		out[i] = v
	}
	return out
}

// fallbackAdd is the Pipeline's never-lose-input fallback: the whole
// utterance becomes both the heading and the details of a single add.
func fallbackAdd(utterance string) []models.Action {
	heading := strings.TrimSpace(utterance)
	return []models.Action{{
		Kind:    models.ActionAdd,
		Heading: heading,
		Details: utterance,
	}}
}

// toAction resolves ra's target (when the action kind carries one) and
// converts it into a typed Action, or reports ok=false if the target is
// ambiguous/unresolvable.
func toAction(ra rawAction, graph []TaskGraphEntry, lastTaskID string) (models.Action, bool) {
	kind := models.ActionKind(ra.Kind)
	a := models.Action{Kind: kind, Heading: ra.Heading, Details: ra.Details, Priority: ra.Priority}
	a.Deadline = parseDeadline(ra.Deadline)

	switch kind {
	case models.ActionAdd:
		for _, ss := range ra.Subtasks {
			a.Subtasks = append(a.Subtasks, models.SubtaskSeed{
				Heading: ss.Heading, Details: ss.Details, Deadline: parseDeadline(ss.Deadline),
			})
		}
		return a, true

	case models.ActionQueryProgress, models.ActionQueryNext:
		return a, true

	case models.ActionEdit:
		id, ok := resolveTarget(ra.Target, graph, lastTaskID)
		if !ok {
			return a, false
		}
		a.Target = id
		if len(ra.Patch) > 0 {
			a.Patch = make(map[string]any, len(ra.Patch))
			for k, v := range ra.Patch {
				a.Patch[k] = v
			}
		}
		return a, true

	case models.ActionMarkDone, models.ActionDelete:
		id, ok := resolveTarget(ra.Target, graph, lastTaskID)
		if !ok {
			return a, false
		}
		a.Target = id
		return a, true

	case models.ActionReschedule:
		id, ok := resolveTarget(ra.Target, graph, lastTaskID)
		if !ok || a.Deadline == nil {
			return a, false
		}
		a.Target = id
		return a, true

	case models.ActionAddSubtask:
		id, ok := resolveTarget(ra.Target, graph, lastTaskID)
		if !ok || ra.Subtask == nil {
			return a, false
		}
		a.Target = id
		a.Subtask = &models.SubtaskSeed{
			Heading: ra.Subtask.Heading, Details: ra.Subtask.Details, Deadline: parseDeadline(ra.Subtask.Deadline),
		}
		return a, true

	default:
		return a, false
	}
}

func parseDeadline(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}
