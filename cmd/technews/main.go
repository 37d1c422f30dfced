package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pevans/technews/config"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "technews",
	Short: "technews - tech news reader backend",
	Long: `technews serves a merged, searchable collection of technology news
from NewsAPI or RSS feeds, remembers the articles each browser opened, and
collects web-vitals reports.

Configuration is read from ~/.technews/config.yaml and TECHNEWS_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = cfg.Log.Build()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, newsCmd, recentCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
