package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coracle/shiftclaim/internal/history"
	"github.com/coracle/shiftclaim/internal/observability"
	"github.com/coracle/shiftclaim/internal/types"
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Show the weekly occurrences of a recurring shift",
	RunE:  runExpand,
}

var (
	expandStart     string
	expandEnd       string
	expandHours     string
	expandLocations []string
)

func init() {
	expandCmd.Flags().StringVar(&expandStart, "start", "", "First date, M/D/YY (required)")
	expandCmd.Flags().StringVar(&expandEnd, "end", "", "Last date, M/D/YY (required)")
	expandCmd.Flags().StringVar(&expandHours, "hours", "", "Hours, e.g. 9:00AM-11:00AM (required)")
	expandCmd.Flags().StringSliceVar(&expandLocations, "location", nil, "Locations of the shift")

	for _, name := range []string{"start", "end", "hours"} {
		if err := expandCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, _ []string) error {
	start, err := types.ParseDate(expandStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := types.ParseDate(expandEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	clocks := types.ScanClocks(expandHours)
	if len(clocks) != 2 {
		return fmt.Errorf("invalid --hours %q: want a start and an end time", expandHours)
	}

	perm := types.Shift{
		Type:      types.PermShift,
		Action:    types.ActionPermTake,
		Locations: expandLocations,
		StartDate: start,
		EndDate:   end,
		Weekday:   types.WeekdayOf(start),
		StartTime: clocks[0],
		EndTime:   clocks[1],
	}
	occurrences, err := history.ExpandRecurring(perm)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintShifts(fmt.Sprintf("%s OCCURRENCES (%d)", perm.Weekday, len(occurrences)), occurrences, true)
	return nil
}
