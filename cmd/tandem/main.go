package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tandemedit/tandem/internal/config"
	"github.com/tandemedit/tandem/internal/core"
	"github.com/tandemedit/tandem/internal/host"
	"github.com/tandemedit/tandem/internal/logging"
	"github.com/tandemedit/tandem/internal/transport"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run starts a headless core against the in-memory host adapter. Real
// IDE bindings embed the core the same way with their own adapter; the
// standalone binary exists to soak-test a listener/scanner pair on one
// machine.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)
	logger.Info("tandem starting",
		slog.String("version", Version),
		slog.String("role", cfg.Role),
		slog.String("project", cfg.ProjectPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter := host.NewHeadless()

	c := core.New(cfg, adapter, logger)
	c.SetOnState(func(s transport.State) {
		logger.Info("sync state", slog.String("state", s.String()))
	})

	c.Start()
	defer c.Dispose()

	if !cfg.AutoStartSync {
		c.Enable()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
