package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/cmd/server"
	"github.com/thereayou/streamhub/internal/config"
	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:          "streamhub",
	Short:        "Video sharing and room chat backend",
	Long:         `REST + WebSocket API. Commands: serve (default), migrate.`,
	RunE:         runServe,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and run the HTTP/WebSocket server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, rdb, err := server.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(ctx, cfg, log, db, rdb)
	defer srv.Close()

	return srv.Run(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cmd.Context(), cfg.DatabaseURL, cfg.DBConnectAttempts, cfg.DBConnectDelay, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema is up to date")
	return nil
}
