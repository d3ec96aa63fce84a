package cmd

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sttalk999/sttalk/config"
	"github.com/sttalk999/sttalk/internal/app"
)

const appName = "sttalk"

var (
	envFile string

	rootCmd = &cobra.Command{
		Use:           appName,
		Short:         "sttalk scores startups against investors and manages their matches",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")
}

// bootstrap loads configuration and the logger shared by every command.
func bootstrap() (*config.Config, ectologger.Logger, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, zapLogger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, zapLogger, nil
}

// withApp starts the application's dependencies, runs fn and stops them again.
func withApp(ctx context.Context, cfg *config.Config, logger ectologger.Logger, fn func(ctx context.Context, a *app.App) error) error {
	a := app.New(cfg, logger)
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := a.Stop(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to stop cleanly")
		}
	}()
	return fn(ctx, a)
}
