package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/api"
	"github.com/veridex/veridex/internal/job"
	"github.com/veridex/veridex/internal/model"
)

var (
	serveAddr      string
	engineModeFlag string
	skipHealth     bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fact-check API server",
	Long: `Start the HTTP server exposing job submission, status, result and
health endpoints.

In live mode the server refuses to start unless the evidence and LLM
providers pass their health checks: a misconfigured provider must fail
loudly at startup, not degrade silently into fabricated evidence.

Example:
  veridex serve
  veridex serve --addr :9090
  veridex serve --engine-mode synthetic`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&engineModeFlag, "engine-mode", "", "engine mode: live or synthetic")
	serveCmd.Flags().BoolVar(&skipHealth, "skip-health-check", false, "skip the startup provider health check")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Local .env keeps provider keys out of shell history during development
	if err := godotenv.Load(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Loaded environment from .env")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if engineModeFlag != "" {
		mode := model.EngineMode(engineModeFlag)
		if mode != model.EngineLive && mode != model.EngineSynthetic {
			return fmt.Errorf("unknown engine mode %q (want live or synthetic)", engineModeFlag)
		}
		cfg.Engine.Mode = mode
	}

	orchestrator, err := job.NewOrchestrator(cfg)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	if !skipHealth && cfg.Engine.Mode == model.EngineLive {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := orchestrator.Health(ctx); err != nil {
			return fmt.Errorf("startup health check failed: %w", err)
		}
	}

	log.Printf("veridex listening on %s (engine mode: %s)", cfg.Server.Addr, cfg.Engine.Mode)
	return api.NewServer(orchestrator).Run(cfg.Server.Addr)
}
