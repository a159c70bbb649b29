package pipeline

import (
	"sort"

	"github.com/jony/genie/internal/intent"
	"github.com/jony/genie/internal/models"
)

// buildGraph renders the compact task-graph view the Intent Extractor's
// prompt and target resolution both work against, ordered by creation
// time so prompts are stable across calls.
func buildGraph(user *models.UserState) []intent.TaskGraphEntry {
	out := make([]intent.TaskGraphEntry, 0, len(user.Tasks))
	for _, t := range user.Tasks {
		subtasks := make([]intent.SubtaskGraphEntry, len(t.Subtasks))
		for i, st := range t.Subtasks {
			subtasks[i] = intent.SubtaskGraphEntry{ID: st.ID, Status: st.Status}
		}
		out = append(out, intent.TaskGraphEntry{
			ID:        t.ID,
			Heading:   t.Heading,
			Status:    t.Status,
			Deadline:  t.Deadline,
			Subtasks:  subtasks,
			CreatedAt: t.CreatedAt.Unix(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}
