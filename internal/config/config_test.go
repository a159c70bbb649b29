package config

import (
	"os"
	"testing"
	"time"
)

func clearGenieEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STORAGE_PATH", "BACKUP_DIR", "AUTO_BACKUP", "BACKUP_RETENTION_DAYS",
		"LLM_API_KEY", "RESEARCH_API_KEY", "CALENDAR_HOST", "CALENDAR_USERNAME",
		"CALENDAR_PASSWORD", "DEFAULT_CALENDAR_ID", "EVENT_SUMMARY_PREFIX",
		"OVERALL_DEADLINE_MS", "LLM_DEADLINE_MS", "RESEARCH_DEADLINE_MS",
		"CALENDAR_DEADLINE_MS", "MAX_CONCURRENT_UTTERANCES", "PROMPT_TEMPLATE_DIR", "LLM_MODEL",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearGenieEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoragePath != "./genie-data/store.json" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if !cfg.AutoBackup {
		t.Errorf("AutoBackup default should be true")
	}
	if cfg.BackupRetentionDays != 14 {
		t.Errorf("BackupRetentionDays = %d, want 14", cfg.BackupRetentionDays)
	}
	if cfg.MaxConcurrentUtterances != 16 {
		t.Errorf("MaxConcurrentUtterances = %d, want 16", cfg.MaxConcurrentUtterances)
	}
	if cfg.OverallDeadline() != 60*time.Second {
		t.Errorf("OverallDeadline = %v, want 60s", cfg.OverallDeadline())
	}
	if cfg.LLMDeadline() != 30*time.Second {
		t.Errorf("LLMDeadline = %v, want 30s", cfg.LLMDeadline())
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearGenieEnv(t)
	os.Setenv("STORAGE_PATH", "/tmp/custom.json")
	os.Setenv("AUTO_BACKUP", "false")
	os.Setenv("MAX_CONCURRENT_UTTERANCES", "4")
	os.Setenv("CALENDAR_DEADLINE_MS", "5000")
	defer clearGenieEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoragePath != "/tmp/custom.json" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.AutoBackup {
		t.Errorf("expected AUTO_BACKUP=false to be honored")
	}
	if cfg.MaxConcurrentUtterances != 4 {
		t.Errorf("MaxConcurrentUtterances = %d, want 4", cfg.MaxConcurrentUtterances)
	}
	if cfg.CalendarDeadline() != 5*time.Second {
		t.Errorf("CalendarDeadline = %v, want 5s", cfg.CalendarDeadline())
	}
}
