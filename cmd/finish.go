package cmd

import (
	"context"
	"fmt"

	"github.com/matchasong/PictureShiritori/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFinishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Close the expired game, if any, and announce the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), false, func(ctx context.Context, _ *config.Config, _ *zap.Logger, a *app) error {
				result, err := a.finisher.Finish(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result == nil {
					fmt.Fprintln(out, "no expired game")
					return nil
				}
				fmt.Fprintf(out, "game %d closed, chain length %d\n", result.GameID, len(result.Chain))
				if result.HasWinner {
					fmt.Fprintf(out, "winner: %s\n", result.WinnerName)
				}
				return nil
			})
		},
	}
}
