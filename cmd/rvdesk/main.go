package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/cli"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/config"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/db"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/intelligence"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/labor"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/llm"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/repository"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	caseRepo := repository.NewSQLiteCaseRepo(database)
	messageRepo := repository.NewSQLiteMessageRepo(database)
	metadataRepo := repository.NewSQLiteMetadataRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)

	// Model access; a disabled client sends every turn to the checklist.
	llmCfg := cfg.LLMSettings()
	var observer llm.Observer = llm.NoopObserver{}
	if llmCfg.LogCalls {
		observer = llm.NewLogObserver(logger)
	}
	assistant := intelligence.NewDiagnosticAssistant(llm.NewClient(llmCfg, observer))
	logger.Debug("llm configured", "enabled", llmCfg.Enabled, "model", llmCfg.Model, "endpoint", llmCfg.Endpoint)

	useCases := service.NewLogUseCaseObserver(logger)
	app := &cli.App{
		Cases:       service.NewCaseService(caseRepo, messageRepo, useCases),
		Diagnostics: service.NewDiagnosticService(caseRepo, messageRepo, metadataRepo, uow, labor.NewLedger(), assistant, useCases),
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.JSONLogs() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
