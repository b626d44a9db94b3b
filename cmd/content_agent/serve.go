package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/config"
	"github.com/jonathan/content-engine/internal/orchestrator"
	"github.com/jonathan/content-engine/internal/server"
	"github.com/jonathan/content-engine/internal/tasks"
)

var (
	serveConfigPath string
	servePort       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that accepts generation requests and day batches,
runs them as background tasks and exposes task status by polling and SSE.

DATABASE_URL selects PostgreSQL storage; without it records are kept in memory.
JWT_SECRET is required to authenticate requests.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	// The database pool is closed by the server on shutdown
	defer func() {
		if c.client != nil {
			_ = c.client.Close()
		}
	}()

	registry := tasks.NewRegistry(cfg.TaskDuration())
	launcher := tasks.NewLauncher(ctx, registry)
	runner := orchestrator.NewRunner(c.worker, c.store, c.images, registry)

	srv, err := server.New(server.Config{
		Port:     cfg.Port,
		Registry: registry,
		Launcher: launcher,
		Runner:   runner,
		Tokens:   server.NewJWTService(jwtCfg).AsTokenValidator(),
		DB:       c.db,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
