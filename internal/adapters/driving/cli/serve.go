package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdex/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ragdex/internal/core/ports/driving"
	"github.com/custodia-labs/ragdex/internal/core/services"
	"github.com/custodia-labs/ragdex/internal/logger"
	"github.com/custodia-labs/ragdex/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the Ragdex HTTP API. The engine initialises in the
background; requests arriving before it is ready receive 503 with a
Retry-After header.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := services.NewHandle()
	handle.Start(func() (driving.Engine, error) {
		return buildEngine(ctx, cfg)
	})

	if cfg.Watch.Enabled {
		go func() {
			engine, err := awaitEngine(ctx, handle)
			if err != nil {
				logger.Warn("Watcher not started: %v", err)
				return
			}
			w := watcher.New(cfg.Watch.Dir, engine)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Watcher stopped: %v", err)
			}
		}()
	}

	server := httpapi.NewServer(cfg.Server.Addr(), httpapi.NewHandler(handle))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Ragdex listening on %s", cfg.Server.Addr())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// awaitEngine polls the lifecycle handle until it resolves.
func awaitEngine(ctx context.Context, handle *services.Handle) (driving.Engine, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		switch handle.Phase() {
		case services.PhaseReady:
			return handle.Engine()
		case services.PhaseFailed:
			return nil, handle.Err()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
