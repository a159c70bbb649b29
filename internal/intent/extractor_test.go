package intent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jony/genie/internal/models"
)

type fakeCompleter struct {
	result models.Result[string]
}

func (f fakeCompleter) Complete(ctx context.Context, templateName string, vars map[string]string) models.Result[string] {
	return f.result
}

func TestExtractParsesAWellFormedActionArray(t *testing.T) {
	llm := fakeCompleter{result: models.OkResult(`[{"kind":"add","heading":"buy milk","deadline":"2026-08-01"}]`)}
	actions := Extract(context.Background(), llm, "buy milk tomorrow", nil, "")
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d: %+v", len(actions), actions)
	}
	if actions[0].Kind != models.ActionAdd || actions[0].Heading != "buy milk" {
		t.Errorf("action = %+v", actions[0])
	}
	if actions[0].Deadline == nil {
		t.Errorf("expected deadline to be parsed")
	}
}

func TestExtractFallsBackToRawAddOnNonJSONOutput(t *testing.T) {
	llm := fakeCompleter{result: models.OkResult("sure, I'll add that for you!")}
	actions := Extract(context.Background(), llm, "write blog post about caching", nil, "")
	if len(actions) != 1 {
		t.Fatalf("expected exactly 1 fallback action, got %d", len(actions))
	}
	if actions[0].Kind != models.ActionAdd {
		t.Fatalf("expected fallback add, got %+v", actions[0])
	}
	if actions[0].Heading != "write blog post about caching" || actions[0].Details != "write blog post about caching" {
		t.Errorf("fallback action = %+v", actions[0])
	}
}

func TestExtractFallsBackOnTransientLLMFailure(t *testing.T) {
	llm := fakeCompleter{result: models.TransientResult[string](nil)}
	actions := Extract(context.Background(), llm, "remind me to call mom", nil, "")
	if len(actions) != 1 || actions[0].Kind != models.ActionAdd {
		t.Fatalf("expected raw-utterance fallback, got %+v", actions)
	}
}

func TestExtractDropsActionsWithUnknownKind(t *testing.T) {
	llm := fakeCompleter{result: models.OkResult(`[{"kind":"teleport","target":"x"},{"kind":"add","heading":"valid task"}]`)}
	actions := Extract(context.Background(), llm, "do two things", nil, "")
	if len(actions) != 1 || actions[0].Heading != "valid task" {
		t.Fatalf("expected the unknown-kind action dropped, got %+v", actions)
	}
}

func TestExtractResolvesTargetByExactHeading(t *testing.T) {
	graph := []TaskGraphEntry{{ID: "t1", Heading: "Learn Python", Status: models.StatusPending}}
	llm := fakeCompleter{result: models.OkResult(`[{"kind":"mark_done","target":"Learn Python"}]`)}
	actions := Extract(context.Background(), llm, "I finished learning python", graph, "")
	if len(actions) != 1 || actions[0].Target != "t1" {
		t.Fatalf("expected target resolved to t1, got %+v", actions)
	}
}

func TestExtractResolvesLastTaskTarget(t *testing.T) {
	graph := []TaskGraphEntry{{ID: "t1", Heading: "Learn Python", Status: models.StatusPending}}
	llm := fakeCompleter{result: models.OkResult(`[{"kind":"mark_done","target":"last_task"}]`)}
	actions := Extract(context.Background(), llm, "mark that done", graph, "t1")
	if len(actions) != 1 || actions[0].Target != "t1" {
		t.Fatalf("expected last_task to resolve to t1, got %+v", actions)
	}
}

func TestExtractDropsAmbiguousTarget(t *testing.T) {
	graph := []TaskGraphEntry{
		{ID: "t1", Heading: "write report one"},
		{ID: "t2", Heading: "write report two"},
	}
	llm := fakeCompleter{result: models.OkResult(`[{"kind":"mark_done","target":"write report"}]`)}
	actions := Extract(context.Background(), llm, "finish the report", graph, "")
	// No unambiguous match: falls back to raw add per the never-lose-input rule.
	if len(actions) != 1 || actions[0].Kind != models.ActionAdd {
		t.Fatalf("expected fallback add for an ambiguous target, got %+v", actions)
	}
}

func TestExtractDropsMalformedRescheduleMissingDeadline(t *testing.T) {
	graph := []TaskGraphEntry{{ID: "t1", Heading: "renew passport"}}
	llm := fakeCompleter{result: models.OkResult(`[{"kind":"reschedule","target":"t1"}]`)}
	actions := Extract(context.Background(), llm, "move it", graph, "")
	if len(actions) != 1 || actions[0].Kind != models.ActionAdd {
		t.Fatalf("expected a malformed reschedule (no deadline) to be dropped, got %+v", actions)
	}
}

type capturingCompleter struct {
	vars   map[string]string
	result models.Result[string]
}

func (c *capturingCompleter) Complete(ctx context.Context, templateName string, vars map[string]string) models.Result[string] {
	c.vars = vars
	return c.result
}

func TestGraphViewSurfacesDeadlinesAndSubtaskIDs(t *testing.T) {
	deadline := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	graph := []TaskGraphEntry{{
		ID:       "t1",
		Heading:  "renew passport",
		Status:   models.StatusPending,
		Deadline: &deadline,
		Subtasks: []SubtaskGraphEntry{
			{ID: "s1", Status: models.StatusPending},
			{ID: "s2", Status: models.StatusDone},
		},
	}}
	llm := &capturingCompleter{result: models.OkResult(`[{"kind":"query_progress"}]`)}
	Extract(context.Background(), llm, "how's it going", graph, "")

	for _, key := range []string{"existing_tasks_json", "task_graph_json"} {
		got := llm.vars[key]
		if !strings.Contains(got, `"deadline":"2026-08-10T00:00:00Z"`) {
			t.Errorf("%s missing deadline: %s", key, got)
		}
		if !strings.Contains(got, `"id":"s1"`) || !strings.Contains(got, `"id":"s2"`) {
			t.Errorf("%s missing subtask ids: %s", key, got)
		}
	}
}
