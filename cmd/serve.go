package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/matchasong/PictureShiritori/config"
	"github.com/matchasong/PictureShiritori/handlers"
	"github.com/matchasong/PictureShiritori/middleware"
	"github.com/matchasong/PictureShiritori/routes"
	"github.com/matchasong/PictureShiritori/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var noSweep bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Slack endpoints, the spectator feed and the finish sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, true, func(ctx context.Context, cfg *config.Config, logger *zap.Logger, a *app) error {
				return serve(ctx, cfg, logger, a, !noSweep)
			})
		},
	}
	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "do not run the periodic finish sweep (use an external scheduler)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, a *app, sweep bool) error {
	go a.hub.Run(ctx)
	if sweep {
		go runSweeper(ctx, a.finisher, cfg.FinishSweepInterval, logger.Named("sweeper"))
	}

	gameHandler := handlers.NewGameHandler(context.WithoutCancel(ctx), a.games, a.starter, a.finisher, a.results, a.submissions, logger.Named("http"))

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger.Named("http")), middleware.CORS())
	routes.SetupRoutes(router, gameHandler, a.hub, routes.Options{
		SigningSecret: cfg.SlackSigningSecret,
		SweepToken:    cfg.SweepToken,
	}, logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		gameHandler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("submissions still running at shutdown")
	}

	logger.Info("server stopped")
	return nil
}

// runSweeper finishes expired games on every tick until ctx is done.
func runSweeper(ctx context.Context, finisher *services.FinishService, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := finisher.Finish(ctx)
			if err != nil {
				logger.Error("finish sweep failed", zap.Error(err))
				continue
			}
			if result != nil {
				logger.Info("finish sweep closed a game", zap.Uint("game_id", result.GameID))
			}
		}
	}
}
