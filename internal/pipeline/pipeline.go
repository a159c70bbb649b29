// Package pipeline is the Pipeline (C9): the only component that owns
// orchestration. It binds Intent Extractor -> Store -> Planner -> Store
// -> Prioritizer -> Scheduler into one user-visible response per
// utterance, and is the sole writer path into the Store.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jony/genie/internal/calendarclient"
	"github.com/jony/genie/internal/intent"
	"github.com/jony/genie/internal/models"
	"github.com/jony/genie/internal/planner"
	"github.com/jony/genie/internal/research"
	"github.com/jony/genie/internal/scheduler"
	"github.com/jony/genie/internal/store"
)

// Deadlines, per spec.md §5.
const (
	OverallDeadline  = 60 * time.Second
	LLMDeadline      = 30 * time.Second
	ResearchDeadline = 10 * time.Second
	CalendarDeadline = 10 * time.Second
)

// Pipeline wires the eight leaf components together. It holds no
// per-user state itself; everything mutable lives in Store.
type Pipeline struct {
	store     *store.Store
	calendar  *calendarclient.Client
	research  planner.Researcher
	scheduler *scheduler.Scheduler
	log       *zap.SugaredLogger
	sem       *semaphore.Weighted
	llmGate   *llmGate
}

// Config controls the Pipeline's global concurrency cap.
type Config struct {
	MaxConcurrentUtterances int64
}

// New wires the Pipeline from its already-constructed leaf components.
func New(st *store.Store, llm intent.Completer, rc *research.Client, cal *calendarclient.Client, log *zap.SugaredLogger, cfg Config) *Pipeline {
	maxConc := cfg.MaxConcurrentUtterances
	if maxConc <= 0 {
		maxConc = 16
	}
	return &Pipeline{
		store:     st,
		calendar:  cal,
		research:  rc,
		scheduler: scheduler.New(cal, cal.SummaryPrefix(), log),
		log:       log,
		sem:       semaphore.NewWeighted(maxConc),
		llmGate:   newLLMGate(llm),
	}
}

// Result is HandleUtterance's user-visible response.
type Result struct {
	Applied        []models.ActionResult `json:"applied"`
	Recommendation models.Recommendation `json:"recommendation"`
	TimedOut       bool                  `json:"timed_out,omitempty"`
}

// HandleUtterance runs the full pipeline for one utterance: extract,
// apply, persist, prioritize, schedule. Steps 1-4 hold the per-user lock;
// steps 5-7 run lock-free against the snapshot just committed (§5).
func (p *Pipeline) HandleUtterance(ctx context.Context, userID, utterance string) (*Result, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, OverallDeadline)
	defer cancel()

	lock := p.store.UserLock(userID)
	lock.Lock()
	applied, timedOut := p.applyUtterance(ctx, userID, utterance)
	lock.Unlock()

	if timedOut || ctx.Err() != nil {
		return &Result{Applied: applied, TimedOut: true}, nil
	}

	rec := p.recommendAndSchedule(ctx, userID)
	return &Result{Applied: applied, Recommendation: rec}, nil
}

// applyUtterance runs steps 1-4: load, extract, apply each action in
// order, invoking the Planner for newly-created tasks. Must be called
// with the user's lock held.
func (p *Pipeline) applyUtterance(ctx context.Context, userID, utterance string) ([]models.ActionResult, bool) {
	user, err := p.store.GetOrCreateUser(userID)
	if err != nil {
		return []models.ActionResult{{OK: false, Kind: kindOf(err), Message: err.Error()}}, false
	}

	graph := buildGraph(user)
	llmCtx, cancel := context.WithTimeout(ctx, LLMDeadline)
	actions := intent.Extract(llmCtx, p.llmGate.forUser(userID), utterance, graph, user.LastTaskID)
	cancel()

	var results []models.ActionResult
	for _, action := range actions {
		if ctx.Err() != nil {
			results = append(results, models.ActionResult{Action: action, OK: false, Kind: models.KindTimeout, Message: "overall deadline exceeded"})
			return results, true
		}
		results = append(results, p.applyAction(ctx, userID, action, user.Preferences))
	}
	return results, false
}

func kindOf(err error) models.ErrorKind {
	if ke, ok := err.(*models.KindedError); ok {
		return ke.Kind
	}
	return models.KindFatalExternal
}
