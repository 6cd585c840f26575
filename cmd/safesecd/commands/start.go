package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/safesecd/safesecd/internal/keyfile"
	"github.com/safesecd/safesecd/internal/logger"
	"github.com/safesecd/safesecd/internal/metrics"
	"github.com/safesecd/safesecd/internal/server"
	"github.com/safesecd/safesecd/pkg/config"
)

var (
	dbDir      string
	bindAddr   string
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the safesecd server",
	Long: `Start the safesecd server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/safesecd/config.yaml.

Examples:
  # Start in background (default)
  safesecd start

  # Start in foreground
  safesecd start --foreground

  # Start with an explicit store directory and bind address
  safesecd start --foreground --dbdir /var/lib/safesec/store --bindaddr 0.0.0.0:9999

  # Start with environment variable overrides
  SAFESECD_LOGGING_LEVEL=DEBUG safesecd start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVarP(&dbDir, "dbdir", "d", "", "storage directory for the keyfile store")
	startCmd.Flags().StringVarP(&bindAddr, "bindaddr", "b", "", "address to bind (host:port)")
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "path to PID file (default: $XDG_STATE_HOME/safesecd/safesecd.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "path to log file for daemon mode (default: $XDG_STATE_HOME/safesecd/safesecd.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	if bindAddr != "" {
		cfg.BindAddr = bindAddr
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	store, err := keyfile.OpenBadgerStore(cfg.DBDir)
	if err != nil {
		return fmt.Errorf("failed to open keyfile store at %s: %w", cfg.DBDir, err)
	}
	defer store.Close()

	if cfg.Metrics.Enabled {
		metricsSrv, err := metrics.InitRegistry(cfg.Metrics.Port)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer metricsSrv.Close()
		logger.Info("metrics enabled", "addr", metricsSrv.Addr)
	}

	ln, err := net.Listen("tcp", cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", cfg.BindAddr, err)
	}

	acceptor := server.New(ln, store, server.Config{
		ControlChannelCapacity: cfg.Server.ControlChannelCapacity,
		MaxConnections:         cfg.Server.MaxConnections,
		ShutdownTimeout:        cfg.Server.ShutdownTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveDone := make(chan error, 1)
	go func() { serveDone <- acceptor.Serve(ctx) }()

	logger.Info("safesecd listening", "addr", ln.Addr().String(), "dbdir", cfg.DBDir)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining connections")
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+time.Second)
		defer cancel()
		if err := acceptor.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown did not complete cleanly", logger.Err(err))
		}
		if err := <-serveDone; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server loop exited with error", logger.Err(err))
		}
		logger.Info("safesecd stopped")
	case err := <-serveDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server loop exited with error", logger.Err(err))
			return err
		}
	}

	return nil
}
