// Package main provides the coracle CLI, which claims shifts on the punchcard
// scheduling site according to the rules in a settings file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/coracle/shiftclaim/internal/config"
)

var (
	settingsPath    string
	credentialsPath string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:           "coracle",
	Short:         "Automatic shift claiming for the punchcard scheduling site",
	Long:          "Coracle watches shift-change notifications, checks them against your rules and history, and claims eligible shifts through a browser session.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", config.DefaultSettingsPath, "Path to settings JSON")
	rootCmd.PersistentFlags().StringVarP(&credentialsPath, "credentials", "c", config.DefaultCredentialsPath, "Path to credentials JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Debug-level logging and per-cycle summaries")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
