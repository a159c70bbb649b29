package pipeline

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/jony/genie/internal/intent"
	"github.com/jony/genie/internal/models"
)

// llmGate dedupes LLM calls with golang.org/x/sync/singleflight:
// concurrent callers that land on the exact same (user, template) key
// share one upstream call instead of issuing duplicates. Calls for the
// same user under different templates are not held back by the gate; the
// per-user lock, held by HandleUtterance across every LLM call of an
// utterance, is what keeps a user to one in-flight call.
type llmGate struct {
	llm intent.Completer
	sf  singleflight.Group
}

func newLLMGate(llm intent.Completer) *llmGate {
	return &llmGate{llm: llm}
}

// forUser returns a Completer scoped to userID whose calls are deduped
// through the shared singleflight group.
func (g *llmGate) forUser(userID string) intent.Completer {
	return userScopedLLM{gate: g, userID: userID}
}

type userScopedLLM struct {
	gate   *llmGate
	userID string
}

func (u userScopedLLM) Complete(ctx context.Context, templateName string, vars map[string]string) models.Result[string] {
	key := u.userID + ":" + templateName
	v, _, _ := u.gate.sf.Do(key, func() (interface{}, error) {
		return u.gate.llm.Complete(ctx, templateName, vars), nil
	})
	return v.(models.Result[string])
}
