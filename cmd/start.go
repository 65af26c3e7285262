package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/matchasong/PictureShiritori/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStartCmd() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a game and announce it in the game channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), false, func(ctx context.Context, _ *config.Config, _ *zap.Logger, a *app) error {
				text := ""
				if cmd.Flags().Changed("hours") {
					text = strconv.Itoa(hours)
				}
				game, err := a.starter.Start(ctx, text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "game %d started with %s, ends at %s\n",
					game.ID, game.StartingLetter, game.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 1, "game length in hours (1-48, default DEFAULT_LIMIT_HOURS)")
	return cmd
}
