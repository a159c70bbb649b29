// Package prioritizer is the Prioritizer (C7): scores every pending
// subtask across a user's tasks against schedule, energy and deadlines,
// and returns a single winning Recommendation.
//
// Open Question resolved (see DESIGN.md): implemented as deterministic
// scoring rather than a guided LLM call, since spec.md §8's acceptance
// tests are equality tests against the ordering rules in §4.7.
package prioritizer

import (
	"strings"
	"time"

	"github.com/jony/genie/internal/models"
)

var deepVerbs = []string{"design", "analyze", "implement", "study", "write", "research", "architect", "build"}
var shallowVerbs = []string{"set up", "review", "list", "email", "schedule", "organize", "file"}

// candidate is one pending subtask paired with its owning task, carried
// through the ordering rules alongside the task's index in the subtask's
// own sibling list (dependency order, rule 4).
type candidate struct {
	task      *models.Task
	subtask   *models.Subtask
	siblingIx int
}

// Recommend implements §4.7's five ordering rules. now is the current UTC
// instant; prefs carries the user's peak-energy window; fb is the
// freshly-fetched free/busy view for the next 24h.
func Recommend(tasks []*models.Task, fb models.FreeBusy, prefs models.Preferences, now time.Time) models.Recommendation {
	largestFree := fb.LargestFree()

	var candidates []candidate
	for _, t := range tasks {
		n := 0
		for i := range t.Subtasks {
			if t.Subtasks[i].Status != models.StatusPending {
				continue
			}
			if n >= 5 {
				break
			}
			n++
			candidates = append(candidates, candidate{task: t, subtask: &t.Subtasks[i], siblingIx: i})
		}
	}

	// Rule 1: hard filter — estimate must fit the largest free block.
	var fit []candidate
	for _, c := range candidates {
		if c.subtask.TimeEstimateMinutes <= 0 {
			continue
		}
		if time.Duration(c.subtask.TimeEstimateMinutes)*time.Minute > largestFree.Duration() {
			continue
		}
		fit = append(fit, c)
	}
	if len(fit) == 0 {
		return models.NoFitRecommendation()
	}

	localHour := now.Local().Hour()
	inPeak := hourInWindow(localHour, prefs.PeakEnergyWindow)

	best := fit[0]
	bestRank := rank(fit[0], now, inPeak)
	for _, c := range fit[1:] {
		r := rank(c, now, inPeak)
		if less(r, bestRank) {
			best = c
			bestRank = r
		}
	}

	return models.Recommendation{
		TaskID:           best.task.ID,
		SubtaskID:        best.subtask.ID,
		Reasoning:        reasoningFor(bestRank, best),
		PsychologicalFit: fitFor(bestRank, inPeak),
	}
}

// rankKey carries the ordered tiebreak fields, compared lexicographically
// in rule order (2, 3, 4, 5).
type rankKey struct {
	deadlinePressure bool       // rule 2: parent deadline within 24h
	deadline         time.Time  // earliest deadline first, within the pressure group
	energyMatch      int        // rule 3: 0 = best match, 1 = neutral, 2 = worst
	siblingIx        int        // rule 4: lower index outranks later siblings
	createdAt        time.Time  // rule 5: lower created_at wins ties
}

func rank(c candidate, now time.Time, inPeak bool) rankKey {
	k := rankKey{createdAt: c.task.CreatedAt, siblingIx: c.siblingIx}
	if c.task.Deadline != nil && c.task.Deadline.Sub(now) <= 24*time.Hour && c.task.Deadline.Sub(now) >= 0 {
		k.deadlinePressure = true
		k.deadline = *c.task.Deadline
	} else {
		k.deadline = time.Unix(1<<62, 0) // sorts after any real deadline
	}
	k.energyMatch = energyRank(c.subtask.Heading, inPeak)
	return k
}

// less reports whether a outranks b under rule order 2,3,4,5.
func less(a, b rankKey) bool {
	if a.deadlinePressure != b.deadlinePressure {
		return a.deadlinePressure // pressured group always outranks non-pressured
	}
	if a.deadlinePressure {
		if !a.deadline.Equal(b.deadline) {
			return a.deadline.Before(b.deadline)
		}
	}
	if a.energyMatch != b.energyMatch {
		return a.energyMatch < b.energyMatch
	}
	if a.siblingIx != b.siblingIx {
		return a.siblingIx < b.siblingIx
	}
	return a.createdAt.Before(b.createdAt)
}

// energyRank classifies heading as deep or shallow work and returns how
// well it matches the current energy window: 0 = best match (deep work in
// the peak window, or shallow work outside it), 1 = neutral (neither deep
// nor shallow heuristic fired), 2 = mismatch.
func energyRank(heading string, inPeak bool) int {
	h := strings.ToLower(heading)
	deep := containsAny(h, deepVerbs)
	shallow := containsAny(h, shallowVerbs)
	switch {
	case deep && inPeak:
		return 0
	case shallow && !inPeak:
		return 0
	case !deep && !shallow:
		return 1
	default:
		return 2
	}
}

func containsAny(h string, verbs []string) bool {
	for _, v := range verbs {
		if strings.Contains(h, v) {
			return true
		}
	}
	return false
}

func hourInWindow(hour int, window string) bool {
	switch window {
	case "morning":
		return hour >= 5 && hour < 12
	case "afternoon":
		return hour >= 12 && hour < 17
	case "evening":
		return hour >= 17 && hour < 22
	default:
		return false
	}
}

func fitFor(k rankKey, inPeak bool) models.PsychologicalFit {
	switch k.energyMatch {
	case 0:
		if inPeak {
			return models.FitPeak
		}
		return models.FitAligned
	case 1:
		return models.FitAcceptable
	default:
		return models.FitMismatch
	}
}

func reasoningFor(k rankKey, c candidate) string {
	if k.deadlinePressure {
		return "deadline pressure: \"" + c.task.Heading + "\" is due within 24h"
	}
	if k.energyMatch == 0 {
		return "energy match: \"" + c.subtask.Heading + "\" fits the current energy window"
	}
	if k.siblingIx > 0 {
		return "dependency order: earlier prerequisite subtasks are already done"
	}
	return "earliest prerequisite: first pending subtask of \"" + c.task.Heading + "\""
}
