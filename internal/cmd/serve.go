package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/amrewind/rewind/internal/config"
	errwrap "github.com/amrewind/rewind/internal/errors"
	"github.com/amrewind/rewind/internal/observability"
	"github.com/amrewind/rewind/internal/server"
	"github.com/amrewind/rewind/internal/server/handlers"
	"github.com/amrewind/rewind/internal/store"
	"github.com/amrewind/rewind/internal/throttle"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the artist cache and service health over HTTP",
	Long: `Start the HTTP server exposing the artist cache, cache stats, and
health probes.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit

The store is closed and logs are flushed on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()

		logLevel := viper.GetString("logging.level")
		observability.InitServerLogger("rewind", logLevel)
		logger := observability.ServerLogger

		if serverHost != "" {
			cfg.Server.Host = serverHost
		}
		if serverPort != 0 {
			cfg.Server.Port = serverPort
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return errwrap.EnsureEnvelope(err)
		}

		// The session backs the throttle counters on /api/v1/stats; it
		// shares the CLI commands' rate configuration.
		session, err := newSession(cfg, logger)
		if err != nil {
			return errwrap.EnsureEnvelope(err)
		}

		logger.Info("Initializing server",
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Path))

		srv := server.New(cfg.Server, serverDeps(db, session, versionInfo.Version))

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: server first, then store, then
		// logger flush.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Closing store...")
			return db.Close()
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Closing throttled session...")
			return session.Close()
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.EnsureEnvelope(err)
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.EnsureEnvelope(err)
		}

		return nil
	},
}

// serverDeps assembles the handler dependencies for the HTTP server.
func serverDeps(db *store.Store, session *throttle.Session, version string) server.Deps {
	health := handlers.NewHealthManager(version)
	health.RegisterChecker("store", db)

	return server.Deps{
		Health:  health,
		Cache:   &handlers.CacheAPI{Store: db, Session: session},
		Version: version,
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (default from config)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "server port (default from config)")
}
