// Package llmclient is the stateless prompt -> JSON LLM Client (C2): it
// loads named prompt templates, substitutes variables, calls the provider
// with a bounded retry budget, and sanitizes the raw response into the
// text the caller actually asked for.
package llmclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jony/genie/internal/models"
)

// Config controls timeouts and retry budget for the LLM Client.
type Config struct {
	Model          anthropic.Model
	MaxTokens      int64
	CallTimeout    time.Duration // per spec: 30s
	MaxElapsedTime time.Duration // bound on the whole retry budget
}

func DefaultConfig() Config {
	return Config{
		Model:          anthropic.ModelClaude3_5HaikuLatest,
		MaxTokens:      2048,
		CallTimeout:    30 * time.Second,
		MaxElapsedTime: 90 * time.Second,
	}
}

// Client is a stateless, concurrency-safe wrapper around the Anthropic API.
type Client struct {
	api       anthropic.Client
	templates *TemplateStore
	cfg       Config
	log       *zap.SugaredLogger
}

// New builds a Client. apiKey may be empty in tests that inject a stub transport.
func New(apiKey string, templates *TemplateStore, cfg Config, log *zap.SugaredLogger) *Client {
	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		templates: templates,
		cfg:       cfg,
		log:       log,
	}
}

// Complete renders the named template with vars, calls the provider and
// returns the sanitized response text wrapped in a Result so the Pipeline
// can branch on Outcome instead of catching exceptions.
func (c *Client) Complete(ctx context.Context, templateName string, vars map[string]string) models.Result[string] {
	prompt, err := c.templates.Render(templateName, vars)
	if err != nil {
		return models.InvalidResult[string](err)
	}

	var raw string
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = c.cfg.MaxElapsedTime

	attempt := 0
	callErr := backoff.Retry(func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()

		text, outcome, err := c.call(callCtx, prompt)
		if outcome == models.Ok {
			raw = text
			return nil
		}
		if outcome == models.AuthFailure {
			return backoff.Permanent(err)
		}
		if c.log != nil {
			c.log.Debugw("llm call retrying", "template", templateName, "attempt", attempt, "error", err)
		}
		return err // transient: retry
	}, backoff.WithContext(b, ctx))

	if callErr != nil {
		if isAuthFailure(callErr) {
			return models.AuthResult[string](callErr)
		}
		return models.TransientResult[string](callErr)
	}

	return models.OkResult(Sanitize(raw))
}

// call issues one attempt against the provider and classifies the result.
func (c *Client) call(ctx context.Context, prompt string) (string, models.Outcome, error) {
	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if isAuthFailure(err) {
			return "", models.AuthFailure, err
		}
		return "", models.TransientFailure, err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", models.InvalidOutput, errors.New("llmclient: empty response content")
	}
	return text, models.Ok, nil
}

func isAuthFailure(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
