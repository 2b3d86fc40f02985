package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/camera-ready/internal/history"
	"github.com/pdiddy/camera-ready/internal/server"
	"github.com/pdiddy/camera-ready/internal/session"
	"github.com/pdiddy/camera-ready/internal/template"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the formatting HTTP service",
	Long: `Serve starts the HTTP API: upload a manuscript with its figures, run
the formatting pipeline, preview the detected structure, and download
the result as DOCX, PDF, or a ZIP bundle. Idle sessions are swept on a
cron schedule; completed runs are recorded in the history database.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	registry, err := template.New()
	if err != nil {
		return err
	}
	if err := registry.Load(cfg.Storage.TemplatesDir); err != nil {
		return err
	}

	hist, err := history.Open(cfg.Storage.HistoryDB)
	if err != nil {
		return err
	}
	defer hist.Close()

	sessions := session.NewStore(filepath.Join(cfg.Storage.WorkDir, "sessions"))
	sweeper, err := session.StartSweeper(sessions, cfg.Server.SessionTTL, cfg.Server.CleanupSchedule, logger)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, logger, sessions, registry, hist).Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config, default :8080)")

	rootCmd.AddCommand(serveCmd)
}
