package types

import "cloud.google.com/go/civil"

// SlotBlock is one bookable window parsed from the rendered schedule page.
type SlotBlock struct {
	StartDate civil.Date
	EndDate   civil.Date
	StartTime Clock
	EndTime   Clock
}

// Contains reports whether the whole shift lies inside the block: both of its times
// within the block's hours and both of its dates within the block's dates.
func (b SlotBlock) Contains(s Shift) bool {
	return s.StartTime.Between(b.StartTime, b.EndTime) &&
		s.EndTime.Between(b.StartTime, b.EndTime) &&
		DateBetween(s.StartDate, b.StartDate, b.EndDate) &&
		DateBetween(s.EndDate, b.StartDate, b.EndDate)
}
