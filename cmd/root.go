package cmd

import (
	"context"
	"os"

	"github.com/matchasong/PictureShiritori/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pictureshiritori",
		Short:         "AI picture shiritori for Slack",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newStartCmd(), newFinishCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// withApp loads configuration, builds the services and hands them to fn.
func withApp(ctx context.Context, spectators bool, fn func(ctx context.Context, cfg *config.Config, logger *zap.Logger, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.InitLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := buildApp(ctx, cfg, logger, spectators)
	if err != nil {
		logger.Error("failed to initialize", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close resources", zap.Error(err))
		}
	}()

	return fn(ctx, cfg, logger, a)
}
