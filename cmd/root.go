package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "feedermatrix",
	Short: "Feeder load-shape feature matrix builder",
	Long:  "Joins climate zones, ZIP polygons, feeder lines, and hourly load shapes into a per-feeder feature matrix for congestion modeling.",
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
