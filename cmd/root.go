package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madalingavanarescu/competeai/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "competeai",
	Short: "AI-driven competitive analysis pipeline",
	Long:  "Takes a website and company name, discovers competitors, analyzes each one comparatively, and generates battle cards, summaries, and reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
