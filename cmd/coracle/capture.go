package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/config"
	"github.com/coracle/shiftclaim/internal/driver"
	"github.com/coracle/shiftclaim/internal/session"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Save the site's pages for offline replay",
	Long:  "Logs in with Chrome and saves the login, home and schedule pages into a directory usable with 'run --replay'.",
	RunE:  runCapture,
}

var captureOut string

func init() {
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "", "Capture directory (required)")
	captureCmd.Flags().BoolVar(&runHeaded, "headed", false, "Show the browser window")
	captureCmd.Flags().StringVar(&runChromePath, "chrome", "", "Path to the Chrome binary")

	if err := captureCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	creds, err := config.LoadCredentials(credentialsPath)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	d, err := newChrome(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	m := session.New(d, settings.SessionSite(), logger)
	pages := make(map[string]string)
	snapshot := func() error {
		u, err := d.CurrentURL(ctx)
		if err != nil {
			return err
		}
		html, err := d.HTML(ctx)
		if err != nil {
			return err
		}
		pages[u] = html
		logger.Info("captured page", zap.String("url", u))
		return nil
	}

	if err := m.InitSession(ctx); err != nil {
		return err
	}
	if err := m.WaitLoaded(ctx); err != nil {
		return err
	}
	if err := snapshot(); err != nil {
		return err
	}
	ok, err := m.Login(ctx, creds.ITS.Username, creds.ITS.Password)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("login was not accepted")
	}
	for _, loc := range []session.Location{session.Home, session.Schedule} {
		if err := m.GoToLocation(ctx, loc); err != nil {
			return err
		}
		if err := snapshot(); err != nil {
			return err
		}
	}

	if err := driver.SaveCapture(captureOut, pages); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Captured %d pages into %s\n", len(pages), captureOut)
	return nil
}
