// Command genie is a thin CLI over the Pipeline (C9), exercising the
// operations of spec.md §6 for manual testing. It carries no routing
// logic of its own: every command calls straight into internal/pipeline
// or internal/store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/jony/genie/internal/calendarclient"
	"github.com/jony/genie/internal/config"
	"github.com/jony/genie/internal/llmclient"
	"github.com/jony/genie/internal/models"
	"github.com/jony/genie/internal/pipeline"
	"github.com/jony/genie/internal/research"
	"github.com/jony/genie/internal/store"
)

const logo = "\U0001F9DE" // genie emoji

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "say":
		sayCmd()
	case "tasks":
		tasksCmd()
	case "feedback":
		feedbackCmd()
	case "analytics":
		analyticsCmd()
	case "health":
		healthCmd()
	case "setup":
		setupCmd()
	case "version", "--version", "-v":
		fmt.Printf("%s genie v1.0.0\n", logo)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s genie - personal task assistant\n\n", logo)
	fmt.Println("Usage: genie <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  say <userId> <utterance>   Send an utterance through the pipeline")
	fmt.Println("  tasks <userId>             List a user's tasks")
	fmt.Println("  feedback <userId> <kind> <taskId> <n>   Record a feedback sample")
	fmt.Println("  analytics <userId>         Show derived analytics")
	fmt.Println("  health                     Report component reachability")
	fmt.Println("  setup                      Interactive configuration wizard")
	fmt.Println("  version                    Show version")
}

func buildLogger() *zap.SugaredLogger {
	l, _ := zap.NewProduction()
	return l.Sugar()
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "genie: failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func openStore(cfg *config.Config, log *zap.SugaredLogger) *store.Store {
	st, err := store.Open(store.Config{
		StoragePath:         cfg.StoragePath,
		BackupDir:           cfg.BackupDir,
		AutoBackup:          cfg.AutoBackup,
		BackupRetentionDays: cfg.BackupRetentionDays,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genie: failed to open store: %v\n", err)
		os.Exit(1)
	}
	return st
}

func buildPipeline(cfg *config.Config, log *zap.SugaredLogger) *pipeline.Pipeline {
	templates, err := llmclient.NewTemplateStore(cfg.PromptTemplateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genie: failed to load prompt templates: %v\n", err)
		os.Exit(1)
	}
	llmCfg := llmclient.DefaultConfig()
	if cfg.LLMModel != "" {
		llmCfg.Model = anthropic.Model(cfg.LLMModel)
	}
	llmCfg.CallTimeout = cfg.LLMDeadline()
	llm := llmclient.New(cfg.LLMAPIKey, templates, llmCfg, log)

	rc := research.New(log)

	cal := calendarclient.New(calendarclient.Config{
		Host:           cfg.CalendarHost,
		Username:       cfg.CalendarUsername,
		Password:       cfg.CalendarPassword,
		CalendarID:     cfg.DefaultCalendarID,
		SummaryPrefix:  cfg.EventSummaryPrefix,
		TimeoutSeconds: int(cfg.CalendarDeadline().Seconds()),
	}, log)

	st := openStore(cfg, log)

	return pipeline.New(st, llm, rc, cal, log, pipeline.Config{
		MaxConcurrentUtterances: cfg.MaxConcurrentUtterances,
	})
}

func sayCmd() {
	if len(os.Args) < 4 {
		fmt.Println("usage: genie say <userId> <utterance>")
		os.Exit(1)
	}
	cfg := loadConfig()
	log := buildLogger()
	p := buildPipeline(cfg, log)

	ctx := context.Background()
	res, err := p.HandleUtterance(ctx, os.Args[2], os.Args[3])
	if err != nil {
		fmt.Fprintf(os.Stderr, "genie: %v\n", err)
		os.Exit(1)
	}
	printJSON(res)
}

func tasksCmd() {
	if len(os.Args) < 3 {
		fmt.Println("usage: genie tasks <userId>")
		os.Exit(1)
	}
	cfg := loadConfig()
	log := buildLogger()
	st := openStore(cfg, log)
	tasks, err := st.ListTasks(os.Args[2], nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genie: %v\n", err)
		os.Exit(1)
	}
	printJSON(tasks)
}

func feedbackCmd() {
	if len(os.Args) < 6 {
		fmt.Println("usage: genie feedback <userId> <kind> <taskId> <value>")
		os.Exit(1)
	}
	cfg := loadConfig()
	log := buildLogger()
	st := openStore(cfg, log)

	var value int
	fmt.Sscanf(os.Args[5], "%d", &value)
	fb := models.Feedback{
		Kind:      models.FeedbackKind(os.Args[3]),
		TaskID:    os.Args[4],
		Timestamp: time.Now().UTC(),
	}
	switch fb.Kind {
	case models.FeedbackEnergy:
		fb.Energy = value
	case models.FeedbackDifficulty:
		fb.Difficulty = value
	default:
		fb.ActualMinutes = value
	}
	if err := st.AddFeedback(os.Args[2], fb); err != nil {
		fmt.Fprintf(os.Stderr, "genie: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func analyticsCmd() {
	if len(os.Args) < 3 {
		fmt.Println("usage: genie analytics <userId>")
		os.Exit(1)
	}
	cfg := loadConfig()
	log := buildLogger()
	st := openStore(cfg, log)
	an, err := st.GetAnalytics(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "genie: %v\n", err)
		os.Exit(1)
	}
	printJSON(an)
}

func healthCmd() {
	cfg := loadConfig()
	log := buildLogger()
	p := buildPipeline(cfg, log)
	printJSON(p.Health(context.Background()))
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
