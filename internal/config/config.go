// Package config loads Genie's runtime configuration from the
// environment variables named in spec.md §6, using
// github.com/caarlos0/env the way the teacher's own
// pkg/config.LoadFromEnv overlays env vars onto a struct.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config mirrors the recognized environment options of spec.md §6.
type Config struct {
	StoragePath         string `env:"STORAGE_PATH" envDefault:"./genie-data/store.json"`
	BackupDir           string `env:"BACKUP_DIR" envDefault:"./genie-data/backups"`
	AutoBackup          bool   `env:"AUTO_BACKUP" envDefault:"true"`
	BackupRetentionDays int    `env:"BACKUP_RETENTION_DAYS" envDefault:"14"`

	LLMAPIKey      string `env:"LLM_API_KEY"`
	ResearchAPIKey string `env:"RESEARCH_API_KEY"`

	CalendarHost             string `env:"CALENDAR_HOST"`
	CalendarCredentialsPath  string `env:"CALENDAR_CREDENTIALS_PATH"`
	CalendarTokenPath        string `env:"CALENDAR_TOKEN_PATH"`
	CalendarUsername         string `env:"CALENDAR_USERNAME"`
	CalendarPassword         string `env:"CALENDAR_PASSWORD"`
	DefaultCalendarID        string `env:"DEFAULT_CALENDAR_ID" envDefault:"primary"`
	EventSummaryPrefix       string `env:"EVENT_SUMMARY_PREFIX" envDefault:"[Genie] "`

	OverallDeadlineMS  int `env:"OVERALL_DEADLINE_MS" envDefault:"60000"`
	LLMDeadlineMS      int `env:"LLM_DEADLINE_MS" envDefault:"30000"`
	ResearchDeadlineMS int `env:"RESEARCH_DEADLINE_MS" envDefault:"10000"`
	CalendarDeadlineMS int `env:"CALENDAR_DEADLINE_MS" envDefault:"10000"`

	MaxConcurrentUtterances int64  `env:"MAX_CONCURRENT_UTTERANCES" envDefault:"16"`
	PromptTemplateDir       string `env:"PROMPT_TEMPLATE_DIR" envDefault:"./prompts"`
	LLMModel                string `env:"LLM_MODEL"`
}

// Load parses environment variables into a Config, applying the
// envDefault tags for anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OverallDeadline, LLMDeadline, ResearchDeadline, and CalendarDeadline
// convert the millisecond env settings into time.Duration for callers.
func (c *Config) OverallDeadline() time.Duration  { return time.Duration(c.OverallDeadlineMS) * time.Millisecond }
func (c *Config) LLMDeadline() time.Duration      { return time.Duration(c.LLMDeadlineMS) * time.Millisecond }
func (c *Config) ResearchDeadline() time.Duration { return time.Duration(c.ResearchDeadlineMS) * time.Millisecond }
func (c *Config) CalendarDeadline() time.Duration { return time.Duration(c.CalendarDeadlineMS) * time.Millisecond }
