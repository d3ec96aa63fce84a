package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/sttalk999/sttalk/internal/app"
)

var rankCmd = &cobra.Command{
	Use:   "rank <entity-id>",
	Short: "Print the ranked investor candidates for an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app.App) error {
			scores, err := a.Ranker.Rank(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), scores)
		})
	},
}

var autoMatchCmd = &cobra.Command{
	Use:   "automatch <entity-id>",
	Short: "Create matches for an entity's top candidates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app.App) error {
			summary, err := a.Lifecycle.AutoMatch(ctx, args[0])
			if summary != nil {
				if printErr := printJSON(cmd.OutOrStdout(), summary); printErr != nil {
					return printErr
				}
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(rankCmd, autoMatchCmd)
}

func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, logger, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync() //nolint:errcheck

	return withApp(cmd.Context(), cfg, logger, fn)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
