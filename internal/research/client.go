// Package research is the Research Client (C3): a thin, best-effort
// wrapper over an academic search provider. It never surfaces an error to
// its caller — an upstream failure degrades to an empty resource list.
package research

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mtreilly/goarxiv"
	"go.uber.org/zap"

	"github.com/jony/genie/internal/models"
)

// Client looks up reading material for a subtask's heading.
type Client struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Client {
	return &Client{log: log}
}

// Find returns up to maxResults deduplicated, ranked resources for focus.
// On any upstream failure it returns an empty (nil) slice: the Planner
// treats "no reading material" as a normal outcome, never as a pipeline
// failure. Each lookup is bounded by a 10-second deadline.
func (c *Client) Find(ctx context.Context, focus string, maxResults int) []models.Resource {
	if maxResults <= 0 {
		maxResults = 3
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := goarxiv.New()
	if err != nil {
		if c.log != nil {
			c.log.Warnw("research: provider init failed", "error", err)
		}
		return nil
	}

	query := strings.TrimSpace(focus)
	if query == "" {
		return nil
	}
	if strings.Contains(query, " ") && !strings.HasPrefix(query, "\"") {
		query = fmt.Sprintf("%q", query)
	}

	results, err := client.Search(ctx, fmt.Sprintf("all:%s", query), &goarxiv.SearchOptions{
		MaxResults: maxResults * 2, // overfetch, then dedup/cap below
	})
	if err != nil {
		if c.log != nil {
			c.log.Warnw("research: search failed", "focus", focus, "error", err)
		}
		return nil
	}

	seen := make(map[string]bool)
	var out []models.Resource
	for _, article := range results.Articles {
		id := UUID12(article.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, models.Resource{
			Title: article.Title,
			URL:   NormalizeURL(article.ID),
			Kind:  models.ResourceDocs,
			Focus: focus,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Title) < len(out[j].Title) })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}
