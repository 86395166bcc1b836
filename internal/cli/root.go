// Package cli implements the pulseboard command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randalmurphal/pulseboard/internal/config"
)

var (
	cfgFile string
	verbose bool
	jsonOut bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulseboard",
	Short: "Personal task-activity dashboard",
	Long: `pulseboard ingests task exports and serves a completion-activity
dashboard: a trailing-year heatmap plus summary statistics.

Quick start:
  pulseboard init                  Write a starter config
  pulseboard serve                 Start the API server
  pulseboard import tasks.json     Import an exporter batch from a file
  pulseboard stats                 Print the summary numbers`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .pulseboard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig resolves the effective configuration. An explicit
// --config path must exist and parse; without one the layered loader
// applies and falls back to defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFrom(cfgFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in .pulseboard directory
		viper.AddConfigPath(".pulseboard")
		viper.AddConfigPath("$HOME/.pulseboard")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PULSEBOARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
