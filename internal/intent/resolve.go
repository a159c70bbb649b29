package intent

import (
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/jony/genie/internal/models"
)

// TaskGraphEntry is the compact, read-only view of one task the Intent
// Extractor's prompt and target resolution both work against.
type TaskGraphEntry struct {
	ID        string
	Heading   string
	Status    models.Status
	Deadline  *time.Time // nil if the task carries no deadline
	Subtasks  []SubtaskGraphEntry
	CreatedAt int64 // unix seconds, for "last_task" tie-break
}

// SubtaskGraphEntry is the compact view of one subtask surfaced in the
// task graph, per spec.md §4.5's "subtask ids, statuses" requirement.
type SubtaskGraphEntry struct {
	ID     string
	Status models.Status
}

// resolveTarget implements the four-tier rule from the targeting contract:
// (1) exact id, (2) case-insensitive heading equality, (3) case-insensitive
// heading substring if unique, (4) "last_task". When nothing matches by
// id, heading or substring, fuzzyResolve is tried as a last resort.
// Ambiguous or unmatched targets return ok=false and the caller drops the
// action without logging it.
func resolveTarget(target string, graph []TaskGraphEntry, lastTaskID string) (string, bool) {
	if target == "" {
		return "", false
	}
	if target == "last_task" {
		if lastTaskID == "" {
			return "", false
		}
		return lastTaskID, true
	}

	for _, e := range graph {
		if e.ID == target {
			return e.ID, true
		}
	}

	lowerTarget := strings.ToLower(target)
	for _, e := range graph {
		if strings.ToLower(e.Heading) == lowerTarget {
			return e.ID, true
		}
	}

	var substringMatches []TaskGraphEntry
	for _, e := range graph {
		if strings.Contains(strings.ToLower(e.Heading), lowerTarget) {
			substringMatches = append(substringMatches, e)
		}
	}
	switch len(substringMatches) {
	case 1:
		return substringMatches[0].ID, true
	case 0:
		return fuzzyResolve(target, graph)
	default:
		return "", false // ambiguous
	}
}

// fuzzyResolve is a last-resort similarity scan: when no exact or
// substring match exists, the closest heading by edit-distance is
// accepted only if it clears a high similarity bar and is unambiguously
// the best candidate, mirroring the "route by textual signal" shape of
// keyword-based agent routing, made fuzzy instead of exact.
func fuzzyResolve(target string, graph []TaskGraphEntry) (string, bool) {
	if len(graph) == 0 {
		return "", false
	}
	const threshold = 0.75

	bestIdx := -1
	var bestScore float32 = 0.0
	tie := false
	for i, e := range graph {
		score, err := edlib.StringsSimilarity(strings.ToLower(target), strings.ToLower(e.Heading), edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
			tie = false
		} else if score == bestScore && bestIdx != -1 {
			tie = true
		}
	}
	if bestIdx == -1 || bestScore < threshold || tie {
		return "", false
	}
	return graph[bestIdx].ID, true
}
