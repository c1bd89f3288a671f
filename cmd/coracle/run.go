package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/calendar"
	"github.com/coracle/shiftclaim/internal/config"
	"github.com/coracle/shiftclaim/internal/driver"
	"github.com/coracle/shiftclaim/internal/engine"
	"github.com/coracle/shiftclaim/internal/notify"
	"github.com/coracle/shiftclaim/internal/observability"
	"github.com/coracle/shiftclaim/internal/session"
	"github.com/coracle/shiftclaim/internal/slots"
)

// DefaultNotificationsPath is the spool the mail parser writes to.
const DefaultNotificationsPath = "./notifications/notifications.json"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll notifications and claim eligible shifts",
	Long: `Reads shift notifications from the spool every refresh interval for the active period,
checks each against the rules and the history, and claims eligible shifts on the site.
With --replay the site is served from a capture directory and nothing is submitted.`,
	RunE: runRun,
}

var (
	runNotifications string
	runReplay        string
	runOnce          bool
	runHeaded        bool
	runChromePath    string
)

func init() {
	runCmd.Flags().StringVarP(&runNotifications, "notifications", "n", DefaultNotificationsPath, "Path to the notification spool JSON")
	runCmd.Flags().StringVar(&runReplay, "replay", "", "Replay a capture directory instead of launching Chrome")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single cycle and exit")
	runCmd.Flags().BoolVar(&runHeaded, "headed", false, "Show the browser window")
	runCmd.Flags().StringVar(&runChromePath, "chrome", "", "Path to the Chrome binary")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeHistory, err := openHistory(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	d, err := newDriver(ctx, runReplay, logger)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	m := session.New(d, settings.SessionSite(), logger)
	eng := engine.New(engine.Config{
		Rules:       settings.Rules,
		History:     store,
		Session:     m,
		Claimer:     slots.New(m, calendar.New(m, logger), logger),
		Credentials: engine.Credentials{Username: creds.ITS.Username, Password: creds.ITS.Password},
		Logger:      logger,
	})

	opts := engine.RunOptions{
		Active:  settings.ActiveDuration(),
		Refresh: settings.RefreshInterval(),
	}
	if runOnce {
		opts.Active = 0
	}
	if verbose {
		opts.OnCycle = observability.NewPrinter(cmd.OutOrStdout()).PrintCycle
	}

	err = eng.Run(ctx, notify.NewFile(runNotifications, logger), opts)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted; stopping")
		return nil
	}
	return err
}

// newDriver replays the capture in replayDir when set and launches Chrome otherwise.
func newDriver(ctx context.Context, replayDir string, logger *zap.Logger) (driver.Driver, error) {
	if replayDir != "" {
		logger.Info("replaying captured site", zap.String("dir", replayDir))
		return driver.LoadStatic(replayDir)
	}
	return newChrome(ctx, logger)
}

func newChrome(ctx context.Context, logger *zap.Logger) (*driver.Chrome, error) {
	opts := driver.DefaultChromeOptions()
	opts.Headless = !runHeaded
	opts.ExecPath = runChromePath
	return driver.NewChrome(ctx, opts, logger)
}
