package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/version"
)

var (
	cfgFile      string
	baseDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "promptdeck",
	Short: "Local prompt assembly board with clipboard history",
	Long: `Promptdeck serves a local single-page board for assembling prompts
from configured keyword slots.

It provides:
  - A TOML configuration store that self-heals on load
  - A rotating append-only history of copied prompts with attached images
  - Rendered HTML history pages that stay in sync with the server
  - One-click clipboard copy with duplicate debouncing`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: <base>/config.toml or <base>/config/config.toml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&baseDir, "base", "", "base directory for config, history and images (default: executable directory)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Environment overrides: PROMPTDECK_CONFIG, PROMPTDECK_BASE, PROMPTDECK_TRACE.
	viper.SetEnvPrefix("PROMPTDECK")
	viper.AutomaticEnv()

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
