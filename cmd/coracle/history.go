package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coracle/shiftclaim/internal/config"
	"github.com/coracle/shiftclaim/internal/observability"
	"github.com/coracle/shiftclaim/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded shifts",
	Long: `Lists the shifts in the history. With --from and --to only the records touching that
range are listed, with recurring shifts expanded into their weekly occurrences.`,
	RunE: runHistory,
}

var (
	historyFrom string
	historyTo   string
	historyAll  bool
)

func init() {
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "Range start, M/D/YY")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "Range end, M/D/YY")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "List every record instead of the first few")
	historyCmd.MarkFlagsRequiredTogether("from", "to")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, closeHistory, err := openHistory(cmd.Context(), settings, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if historyFrom == "" {
		printer.PrintShifts(fmt.Sprintf("HISTORY (%d)", store.Len()), store.History(), historyAll)
		return nil
	}

	from, err := types.ParseDate(historyFrom)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := types.ParseDate(historyTo)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	shifts, err := store.ShiftsInRange(from, to)
	if err != nil {
		return err
	}
	printer.PrintShifts(fmt.Sprintf("HISTORY %s..%s (%d)", from, to, len(shifts)), shifts, historyAll)
	return nil
}
