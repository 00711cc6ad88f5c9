package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, extract, summarize and store articles once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.RunOnce(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
