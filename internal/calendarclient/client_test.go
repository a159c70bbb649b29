package calendarclient

import (
	"testing"
	"time"

	"github.com/jony/genie/internal/models"
)

func TestComplementIntervalsFindsGaps(t *testing.T) {
	from := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)
	busy := []models.Interval{
		{Start: from.Add(1 * time.Hour), End: from.Add(2 * time.Hour)},
		{Start: from.Add(4 * time.Hour), End: from.Add(5 * time.Hour)},
	}
	free := complementIntervals(from, to, busy)

	if len(free) != 3 {
		t.Fatalf("got %d free intervals, want 3: %+v", len(free), free)
	}
	if !free[0].Start.Equal(from) || !free[0].End.Equal(from.Add(1*time.Hour)) {
		t.Errorf("first gap = %v..%v", free[0].Start, free[0].End)
	}
	if !free[2].End.Equal(to) {
		t.Errorf("last gap should extend to `to`, got %v", free[2].End)
	}
}

func TestBuildCalendarURLEscapesUsername(t *testing.T) {
	cfg := Config{Host: "https://cloud.example.com", Username: "a b", CalendarID: "personal"}
	got := buildCalendarURL(cfg)
	want := "https://cloud.example.com/remote.php/dav/calendars/a%20b/personal/"
	if got != want {
		t.Errorf("buildCalendarURL = %q, want %q", got, want)
	}
}

func TestMarkSummaryIsBitExactWithTrailingSpacePrefix(t *testing.T) {
	c := &Client{cfg: Config{SummaryPrefix: "[Genie] "}}
	got := c.markSummary("write the draft")
	want := "[Genie] write the draft"
	if got != want {
		t.Errorf("markSummary = %q, want %q", got, want)
	}
}

func TestMarkSummaryNormalizesPrefixWithoutTrailingSpace(t *testing.T) {
	c := &Client{cfg: Config{SummaryPrefix: "[Genie]"}}
	got := c.markSummary("write the draft")
	want := "[Genie] write the draft"
	if got != want {
		t.Errorf("markSummary = %q, want %q", got, want)
	}
}

func TestSummaryPrefixMatchesMarkSummary(t *testing.T) {
	c := &Client{cfg: Config{SummaryPrefix: "[Genie] "}}
	got := c.SummaryPrefix() + "write the draft"
	want := c.markSummary("write the draft")
	if got != want {
		t.Errorf("SummaryPrefix()+heading = %q, want %q (must match markSummary for orphan adoption)", got, want)
	}
}
