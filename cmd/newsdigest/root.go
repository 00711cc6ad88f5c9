package main

import (
	"os"

	"github.com/spf13/cobra"

	"NewsDigest/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "newsdigest",
	Short: "News aggregation pipeline: fetch, extract, summarize, store",
	Long: `newsdigest ingests news from RSS feeds and BBC section pages, extracts
full article text, produces neutral AI summaries, and stores everything in
Postgres. It runs once or on a daily schedule.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the YAML config file (falls back to NEWSDIGEST_CONFIG)")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
