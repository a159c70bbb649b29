// Package intent is the Intent Extractor (C5): turns one utterance plus a
// compact view of the user's task graph into an ordered list of typed
// Actions, resolving each action's target against that graph.
package intent

import (
	"encoding/json"
	"fmt"

	"github.com/jony/genie/internal/models"
)

// rawAction mirrors the LLM's JSON action shape before target resolution
// and schema validation.
type rawAction struct {
	Kind      string              `json:"kind"`
	Target    string              `json:"target,omitempty"`
	Heading   string              `json:"heading,omitempty"`
	Details   string              `json:"details,omitempty"`
	Deadline  string              `json:"deadline,omitempty"`
	Priority  string              `json:"priority,omitempty"`
	Subtasks  []rawSubtaskSeed    `json:"subtasks,omitempty"`
	Subtask   *rawSubtaskSeed     `json:"subtask,omitempty"`
	Patch     map[string]string   `json:"patch,omitempty"`
}

type rawSubtaskSeed struct {
	Heading  string `json:"heading"`
	Details  string `json:"details,omitempty"`
	Deadline string `json:"deadline,omitempty"`
}

// parseRawActions decodes the sanitized LLM output into rawActions. A
// non-array or non-JSON payload is reported as an error so the caller can
// fall back to the raw-utterance add action.
func parseRawActions(sanitized string) ([]rawAction, error) {
	var actions []rawAction
	if err := json.Unmarshal([]byte(sanitized), &actions); err != nil {
		return nil, fmt.Errorf("intent: output is not a JSON action array: %w", err)
	}
	return actions, nil
}

// requiredFieldsOK reports whether ra carries the fields its kind requires,
// per the Intent Extractor's action schema.
func requiredFieldsOK(ra rawAction) bool {
	switch models.ActionKind(ra.Kind) {
	case models.ActionAdd:
		return ra.Heading != ""
	case models.ActionEdit:
		return ra.Target != "" && len(ra.Patch) > 0
	case models.ActionMarkDone, models.ActionDelete:
		return ra.Target != ""
	case models.ActionReschedule:
		return ra.Target != "" && ra.Deadline != ""
	case models.ActionAddSubtask:
		return ra.Target != "" && ra.Subtask != nil && ra.Subtask.Heading != ""
	case models.ActionQueryProgress, models.ActionQueryNext:
		return true
	default:
		return false
	}
}
