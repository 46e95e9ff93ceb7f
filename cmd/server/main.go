package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/config"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/logging"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/server"
)

const logo = `     _           _       _      _
  __| | ___  ___| | ____| |_ __(_)_   _____ _ __
 / _' |/ _ \/ __| |/ / _' | '__| \ \ / / _ \ '__|
| (_| |  __/\__ \   < (_| | |  | |\ V /  __/ |
 \__,_|\___||___/_|\_\__,_|_|  |_| \_/ \___|_|`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment variables
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "Listen address")
	flag.StringVar(&cfg.Server.BasePath, "base-path", cfg.Server.BasePath, "WebDriver route prefix")
	flag.IntVar(&cfg.Automation.CleanupCycle, "cleanup-cycle", cfg.Automation.CleanupCycle, "Inactive session cleanup cycle in seconds (0 disables)")
	flag.BoolVar(&cfg.Automation.AllowShell, "allow-powershell", cfg.Automation.AllowShell, "Allow the powerShell script")
	flag.IntVar(&cfg.Server.MaxConnections, "max-connections", cfg.Server.MaxConnections, "Concurrent connection cap (0 is unlimited)")
	flag.StringVar(&cfg.Automation.Fixture, "fixture", cfg.Automation.Fixture, "Desktop fixture file (yaml, toml or json)")
	flag.BoolVar(&cfg.Logging.Bodies, "log-response-body", cfg.Logging.Bodies, "Log request and response bodies")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development logging")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}
	logger := srv.Logger()
	logServerOptions(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}
	if err := srv.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		os.Exit(1)
	}
}

func logServerOptions(logger *logging.Logger, cfg *config.Config) {
	if cfg.Logging.Development {
		fmt.Println(logo)
		fmt.Println()
	}
	logger.Info("Server options",
		zap.String("address", cfg.Server.Address()),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("provider", cfg.Automation.Provider),
		zap.String("fixture", cfg.Automation.Fixture),
		zap.Duration("cleanup_cycle", cfg.Automation.CleanupInterval()),
		zap.Bool("allow_shell", cfg.Automation.AllowShell),
		zap.Int("workers", cfg.Automation.Workers),
		zap.Int("max_element_handles", cfg.Automation.MaxElementHandles),
		zap.Bool("log_bodies", cfg.Logging.Bodies),
		zap.Bool("compress", cfg.Server.Compress),
		zap.Int("max_connections", cfg.Server.MaxConnections),
		zap.Strings("cors_origins", cfg.Server.CORSOrigins),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.String("rate_limit_scope", cfg.RateLimit.Scope),
		zap.Bool("basic_auth", cfg.Auth.Enabled()),
		zap.Strings("scripts", automation.ScriptNames()),
	)
}
