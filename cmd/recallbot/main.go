package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/coopco/recallbot/internal/bus"
	"github.com/coopco/recallbot/internal/config"
	"github.com/coopco/recallbot/internal/platform"
	"github.com/coopco/recallbot/internal/recall"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "recallbot",
	Short: "Message recall moderation service",
	Long: `recallbot connects to a OneBot-style chat backend and recalls messages,
either on demand via the /recall command or automatically when an inbound
event carries an affirmative moderation verdict.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default ~/.recallbot/config.json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Environment overrides may live in a local .env file.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg.Logging.Level)

	if !cfg.Plugin.Enabled {
		slog.Warn("recallbot is disabled in config, exiting")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgBus := bus.NewMessageBus(cfg.Bus.BufferSize)

	manager := platform.NewManager(msgBus)
	onebot := platform.NewOneBot(cfg.Platform, msgBus)
	manager.Add(onebot)

	coord := recall.NewCoordinator(recall.CoordinatorConfig{
		Config:  cfg,
		Bus:     msgBus,
		Backend: onebot.Client(),
		History: onebot.Client(),
	})
	rt := recall.NewRuntime(msgBus, coord, cfg)

	go msgBus.DispatchOutbound(ctx)

	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start platform adapters: %w", err)
	}
	slog.Info("recallbot started",
		"platform", cfg.Platform.Name,
		"webhook_port", cfg.Platform.WebhookPort,
		"smart_recall", cfg.Components.EnableSmartRecall,
		"recall_command", cfg.Components.EnableRecallCommand)

	if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("runtime stopped", "err", err)
	}

	slog.Info("shutting down", "pending_recalls", coord.PendingTasks())
	coord.Shutdown()
	if err := manager.StopAll(); err != nil {
		slog.Error("failed to stop platform adapters", "err", err)
	}
	slog.Info("recallbot stopped")
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
