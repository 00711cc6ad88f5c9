package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/logging"
)

var onceOnStart bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the ingestion job on the configured daily schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("once-on-start") {
			cfg.Scheduler.RunOnStart = onceOnStart
		}
		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Schedule(ctx)
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&onceOnStart, "once-on-start", true,
		"run the job immediately, then on schedule")
	rootCmd.AddCommand(scheduleCmd)
}
