package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/livescore/internal/api/rest"
	"github.com/fortuna/livescore/internal/api/websocket"
	"github.com/fortuna/livescore/internal/backfill"
	"github.com/fortuna/livescore/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST and WebSocket servers, the scheduler and the backfill worker",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "version", serviceVersion)

	a, err := newApp(ctx, cfg, logger, appOptions{withHub: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// Non-fatal: the rows may already exist.
	if err := a.seedTeams(ctx); err != nil {
		logger.Warn("seeding teams", logging.FieldError, err)
	}

	sched := a.orchestrator(ctx)
	if sched.Enabled() {
		n, err := sched.ScheduleAll(ctx)
		if err != nil {
			logger.Warn("initial scheduling incomplete", logging.FieldError, err)
		}
		logger.Info("jobs scheduled", logging.FieldCount, n)
	}

	backfillSvc := backfill.NewService(
		backfill.NewRepository(a.db),
		backfill.NewRunner(a.agent),
		a.factory.IsKnown,
		logger,
	)
	backfillSvc.Start()

	restServer := rest.NewServer(cfg.RESTPort, rest.Deps{
		Ingest:    a.agent,
		Users:     a.users,
		Games:     a.store,
		Teams:     a.store,
		Favorites: a.store,
		Scheduler: sched,
		Backfill:  backfillSvc,
		Health:    a.healthChecks(),
		Logger:    logger,
	})
	wsServer := websocket.NewServer(a.hub, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return sched.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("REST API listening", "port", cfg.RESTPort)
		if err := restServer.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := wsServer.Start(cfg.WSPort); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		sched.Stop()
		if err := restServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("REST shutdown", logging.FieldError, err)
		}
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("WebSocket shutdown", logging.FieldError, err)
		}
		if err := backfillSvc.Shutdown(shutdownCtx); err != nil {
			logger.Warn("backfill shutdown", logging.FieldError, err)
		}
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}
