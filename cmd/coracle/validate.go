package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coracle/shiftclaim/internal/config"
	"github.com/coracle/shiftclaim/internal/observability"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings and credentials files",
	Long:  "Validates both files against their schemas, parses the rule tree and prints it.",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var (
		settings *config.Settings
		creds    *config.Credentials
	)
	var g errgroup.Group
	g.Go(func() error {
		s, err := config.LoadSettings(settingsPath)
		if err != nil {
			return fmt.Errorf("%s: %w", settingsPath, err)
		}
		settings = s
		return nil
	})
	g.Go(func() error {
		c, err := config.LoadCredentials(credentialsPath)
		if err != nil {
			return fmt.Errorf("%s: %w", credentialsPath, err)
		}
		creds = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	observability.NewPrinter(out).PrintRules(settings.Rules)
	active := "forever"
	if settings.Active != config.Forever {
		active = settings.ActiveDuration().String()
	}
	fmt.Fprintf(out, "Settings OK: active %s, refresh %s, history %s\n", active, settings.RefreshInterval(), settings.HistoryFile)
	fmt.Fprintf(out, "Credentials OK: site user %s\n", creds.ITS.Username)
	return nil
}
