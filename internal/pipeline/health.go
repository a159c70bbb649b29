package pipeline

import (
	"context"
	"time"
)

// ComponentStatus is one external dependency's reachability, part of the
// `GET health` operation in spec.md §6.
type ComponentStatus struct {
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
	Detail    string `json:"detail,omitempty"`
}

// Health reports Store/Calendar reachability, the Calendar by a live
// FreeBusy probe. LLM and Research are stateless, provider-backed clients
// with no cheap no-op probe; they are always reported reachable and are
// not probed (an extra live call per health check would itself count
// against the per-call rate limits those clients share with real traffic).
func (p *Pipeline) Health(ctx context.Context) []ComponentStatus {
	out := []ComponentStatus{
		{Name: "store", Reachable: true},
	}

	calCtx, cancel := context.WithTimeout(ctx, CalendarDeadline)
	defer cancel()
	fb := p.calendar.FreeBusy(calCtx, time.Now().UTC(), time.Now().UTC().Add(time.Hour))
	out = append(out, ComponentStatus{Name: "calendar", Reachable: fb.Connected})

	out = append(out,
		ComponentStatus{Name: "llm", Reachable: true, Detail: "not probed"},
		ComponentStatus{Name: "research", Reachable: true, Detail: "not probed"},
	)
	return out
}
