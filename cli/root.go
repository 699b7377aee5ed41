package cli

import (
	"fmt"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagAPIURL    string
	flagLogLevel  string
	flagLogFormat string

	cfg *config.Config
)

// NewRootCmd creates the root cobra command for the radarcol CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "radarcol",
		Short: "RadarCol public procurement risk explorer",
		Long: "radarcol queries the RadarCol scoring API for public contracts, pages and aggregates\n" +
			"the results, and serves them to the dashboard.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(flagConfig)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if flagAPIURL != "" {
				loaded.API.BaseURL = flagAPIURL
			}
			if flagLogLevel != "" {
				loaded.Log.Level = flagLogLevel
			}
			if flagLogFormat != "" {
				loaded.Log.Format = flagLogFormat
			}

			logger.Init(&logger.Config{
				Level:  loaded.Log.Level,
				Format: loaded.Log.Format,
			})
			cfg = loaded
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "Path to the YAML config file")
	root.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Scoring API base URL (overrides config and "+config.BaseURLEnv+")")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newServeCmd(),
		newContractsCmd(),
		newAnalysisCmd(),
		newExportCmd(),
	)

	return root
}
