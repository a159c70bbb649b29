package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
)

// genieEnvPath is where setupCmd writes its .env file; loadConfig only
// reads real process env vars, so callers `source` or `export $(cat ...)`
// this file before running other commands.
const genieEnvPath = "./genie.env"

// setupCmd guides the user through interactively producing a genie.env
// file of the variables spec.md §6 recognizes.
func setupCmd() {
	fmt.Printf("%s Starting Genie Setup Wizard...\n\n", logo)

	rawCfg := make(map[string]string)
	if data, err := os.ReadFile(genieEnvPath); err == nil {
		for _, line := range splitEnvLines(string(data)) {
			k, v, ok := splitEnvLine(line)
			if ok {
				rawCfg[k] = v
			}
		}
	} else {
		fmt.Printf("Starting with a blank configuration (%v)\n", err)
	}

	storagePath := orDefault(rawCfg["STORAGE_PATH"], "./genie-data/store.json")
	backupDir := orDefault(rawCfg["BACKUP_DIR"], "./genie-data/backups")
	autoBackup := orDefault(rawCfg["AUTO_BACKUP"], "true") == "true"
	retentionStr := orDefault(rawCfg["BACKUP_RETENTION_DAYS"], "14")
	llmKey := rawCfg["LLM_API_KEY"]
	llmModel := orDefault(rawCfg["LLM_MODEL"], "claude-3-5-haiku-latest")
	researchKey := rawCfg["RESEARCH_API_KEY"]
	calHost := rawCfg["CALENDAR_HOST"]
	calUser := rawCfg["CALENDAR_USERNAME"]
	calPass := rawCfg["CALENDAR_PASSWORD"]
	calID := orDefault(rawCfg["DEFAULT_CALENDAR_ID"], "primary")
	summaryPrefix := orDefault(rawCfg["EVENT_SUMMARY_PREFIX"], "[Genie]")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Storage Path").Description("Where the persisted document lives.").Value(&storagePath),
			huh.NewInput().Title("Backup Directory").Value(&backupDir),
			huh.NewConfirm().Title("Enable auto-backup before every write?").
				Value(&autoBackup),
			huh.NewInput().Title("Backup Retention (days)").Value(&retentionStr),
		).Title("Store"),
		huh.NewGroup(
			huh.NewInput().Title("Anthropic API Key").EchoMode(huh.EchoModePassword).Value(&llmKey),
			huh.NewInput().Title("LLM Model").Value(&llmModel),
			huh.NewInput().Title("Research Provider API Key (optional)").EchoMode(huh.EchoModePassword).Value(&researchKey),
		).Title("LLM & Research"),
		huh.NewGroup(
			huh.NewInput().Title("CalDAV Host").Description("Ex: https://nextcloud.example.com").Value(&calHost),
			huh.NewInput().Title("CalDAV Username").Value(&calUser),
			huh.NewInput().Title("CalDAV App Password").EchoMode(huh.EchoModePassword).Value(&calPass),
			huh.NewInput().Title("Calendar ID").Value(&calID),
			huh.NewInput().Title("Event Summary Prefix").Value(&summaryPrefix),
		).Title("Calendar"),
	)

	if err := form.Run(); err != nil {
		log.Fatalf("Form aborted: %v", err)
	}

	out := map[string]string{
		"STORAGE_PATH":          storagePath,
		"BACKUP_DIR":            backupDir,
		"AUTO_BACKUP":           fmt.Sprintf("%t", autoBackup),
		"BACKUP_RETENTION_DAYS": retentionStr,
		"LLM_API_KEY":           llmKey,
		"LLM_MODEL":             llmModel,
		"RESEARCH_API_KEY":      researchKey,
		"CALENDAR_HOST":         calHost,
		"CALENDAR_USERNAME":     calUser,
		"CALENDAR_PASSWORD":     calPass,
		"DEFAULT_CALENDAR_ID":   calID,
		"EVENT_SUMMARY_PREFIX":  summaryPrefix,
	}

	if err := os.MkdirAll(filepath.Dir(storagePath), 0o755); err != nil {
		log.Fatalf("failed to create storage dir: %v", err)
	}

	file, err := os.Create(genieEnvPath)
	if err != nil {
		log.Fatalf("failed to open %s for writing: %v", genieEnvPath, err)
	}
	defer file.Close()
	for k, v := range out {
		if v == "" {
			continue
		}
		fmt.Fprintf(file, "%s=%s\n", k, v)
	}

	fmt.Printf("\nSetup complete! Configuration saved to %s\n", genieEnvPath)
	fmt.Println("Run `export $(cat genie.env | xargs) && genie say <user> '<utterance>'` to try it.")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitEnvLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitEnvLine(line string) (string, string, bool) {
	for i := 0; i < len(line); i++ {
		if line[i] == '=' {
			return line[:i], line[i+1:], true
		}
	}
	return "", "", false
}
