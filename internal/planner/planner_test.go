package planner

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/jony/genie/internal/models"
)

type fakeCompleter struct {
	responses []models.Result[string]
	calls     int
	gotVars   []map[string]string
}

func (f *fakeCompleter) Complete(ctx context.Context, templateName string, vars map[string]string) models.Result[string] {
	f.gotVars = append(f.gotVars, vars)
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		return f.responses[len(f.responses)-1]
	}
	return f.responses[i]
}

type fakeResearcher struct {
	resources map[string][]models.Resource
}

func (f *fakeResearcher) Find(ctx context.Context, focus string, maxResults int) []models.Resource {
	return f.resources[focus]
}

func TestPlanParsesBreakdownOnFirstTry(t *testing.T) {
	task := &models.Task{ID: "t1", Heading: "launch newsletter"}
	llm := &fakeCompleter{responses: []models.Result[string]{
		models.OkResult(`[{"heading":"draft the copy","details":"write a first pass","time_estimate_minutes":20},
		                  {"heading":"pick a send time","details":"check analytics","time_estimate_minutes":15}]`),
	}}
	rc := &fakeResearcher{resources: map[string][]models.Resource{
		"draft the copy": {{Title: "Copywriting 101", URL: "https://example.com/copy", Focus: "copywriting"}},
	}}

	p := New(llm, rc, zap.NewNop().Sugar())
	subs := p.Plan(context.Background(), task, models.DefaultPreferences())

	if len(subs) != 2 {
		t.Fatalf("expected 2 subtasks, got %d: %+v", len(subs), subs)
	}
	if subs[0].Heading != "draft the copy" || subs[0].ResourceURL != "https://example.com/copy" {
		t.Errorf("subtask 0 = %+v", subs[0])
	}
	if llm.calls != 1 {
		t.Errorf("expected a single LLM call, got %d", llm.calls)
	}
}

func TestPlanClampsEstimatesToTheSchedulableRange(t *testing.T) {
	task := &models.Task{ID: "t1", Heading: "research topic"}
	llm := &fakeCompleter{responses: []models.Result[string]{
		models.OkResult(`[{"heading":"a","time_estimate_minutes":5},{"heading":"b","time_estimate_minutes":90}]`),
	}}
	rc := &fakeResearcher{}

	p := New(llm, rc, zap.NewNop().Sugar())
	subs := p.Plan(context.Background(), task, models.DefaultPreferences())

	if subs[0].TimeEstimateMinutes != 15 {
		t.Errorf("expected underestimate clamped to 15, got %d", subs[0].TimeEstimateMinutes)
	}
	if subs[1].TimeEstimateMinutes != 30 {
		t.Errorf("expected overestimate clamped to 30, got %d", subs[1].TimeEstimateMinutes)
	}
}

func TestPlanRetriesOnceOnInvalidOutputThenSucceeds(t *testing.T) {
	task := &models.Task{ID: "t1", Heading: "ship feature"}
	llm := &fakeCompleter{responses: []models.Result[string]{
		models.InvalidResult[string](nil),
		models.OkResult(`[{"heading":"a","time_estimate_minutes":20},{"heading":"b","time_estimate_minutes":20}]`),
	}}
	rc := &fakeResearcher{}

	p := New(llm, rc, zap.NewNop().Sugar())
	subs := p.Plan(context.Background(), task, models.DefaultPreferences())

	if len(subs) != 2 {
		t.Fatalf("expected 2 subtasks after the retry, got %d", len(subs))
	}
	if llm.calls != 2 {
		t.Fatalf("expected exactly 2 LLM calls (initial + retry), got %d", llm.calls)
	}
	if llm.gotVars[1]["clarification"] == "" {
		t.Errorf("expected the retry call to carry a clarifying instruction")
	}
}

func TestPlanFallsBackToMirroredSubtaskAfterTwoFailures(t *testing.T) {
	task := &models.Task{ID: "t1", Heading: "organize closet", Details: "just do it"}
	llm := &fakeCompleter{responses: []models.Result[string]{
		models.TransientResult[string](nil),
		models.InvalidResult[string](nil),
	}}
	rc := &fakeResearcher{}

	p := New(llm, rc, zap.NewNop().Sugar())
	subs := p.Plan(context.Background(), task, models.DefaultPreferences())

	if len(subs) != 1 {
		t.Fatalf("expected exactly one fallback subtask, got %d: %+v", len(subs), subs)
	}
	if subs[0].Heading != task.Heading || subs[0].TimeEstimateMinutes != 30 {
		t.Errorf("fallback subtask = %+v", subs[0])
	}
	if llm.calls != 2 {
		t.Errorf("expected exactly 2 LLM calls before falling back, got %d", llm.calls)
	}
}

func TestPlanFallsBackWhenFewerThanTwoSubtasksParse(t *testing.T) {
	task := &models.Task{ID: "t1", Heading: "tidy the garage"}
	llm := &fakeCompleter{responses: []models.Result[string]{
		models.OkResult(`[{"heading":"","time_estimate_minutes":20}]`),
		models.OkResult(`[{"heading":"","time_estimate_minutes":20}]`),
	}}
	rc := &fakeResearcher{}

	p := New(llm, rc, zap.NewNop().Sugar())
	subs := p.Plan(context.Background(), task, models.DefaultPreferences())

	if len(subs) != 1 || subs[0].Heading != task.Heading {
		t.Fatalf("expected a mirrored fallback subtask, got %+v", subs)
	}
}
