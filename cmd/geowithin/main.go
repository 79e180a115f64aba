package main

import (
	"fmt"
	"os"

	"github.com/kass/geowithin/internal/config"
	"github.com/kass/geowithin/pkg/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg        *config.Config
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "geowithin",
	Short: "Great-circle distance rules for coordinates",
	Long:  `Evaluate "within" / "not within" distance rules against latitude/longitude coordinates using the Haversine formula.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			c.Log.Level = "debug"
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
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (default ./geowithin.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseInput parses a "lat,lon" flag, range checking it when strict validation is on.
func parseInput(flag, value string) (models.Coordinate, error) {
	c, err := models.ParseCoordinate(value)
	if err != nil {
		return c, fmt.Errorf("--%s: %w", flag, err)
	}
	if cfg != nil && cfg.Validation.Strict {
		if err := c.Validate(); err != nil {
			return c, fmt.Errorf("--%s: %w", flag, err)
		}
	}
	return c, nil
}
