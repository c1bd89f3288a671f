package slots

import (
	"fmt"
	"strings"

	"github.com/coracle/shiftclaim/internal/types"
)

// ParseBlock reads the time window and date span shown in a slot block, for example
// "2:00pm - 4:00pm 9/1/24 - 12/10/24". A block showing one date covers that day only.
func ParseBlock(text string) (types.SlotBlock, error) {
	clocks := types.ScanClocks(text)
	if len(clocks) < 2 {
		return types.SlotBlock{}, fmt.Errorf("slot block %q has no time window", text)
	}
	dates := types.ScanDates(text)
	if len(dates) == 0 {
		return types.SlotBlock{}, fmt.Errorf("slot block %q has no date", text)
	}
	b := types.SlotBlock{
		StartTime: clocks[0],
		EndTime:   clocks[1],
		StartDate: dates[0],
		EndDate:   dates[0],
	}
	if len(dates) > 1 {
		b.EndDate = dates[1]
	}
	return b, nil
}

// NormalizeAction lowercases an action label and strips its spaces so that
// "Temp Take" and "temptake" compare equal.
func NormalizeAction(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
