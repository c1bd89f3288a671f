package types

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestScanClocks(t *testing.T) {
	got := ScanClocks("Shift 2:00pm - 3:30 PM (was 9am)")
	assert.Equal(t, []Clock{NewClock(14, 0), NewClock(15, 30), NewClock(9, 0)}, got)
	assert.Empty(t, ScanClocks("no times here"))
}

func TestScanDates(t *testing.T) {
	got := ScanDates("From 9/1/24 to 12/10/2024")
	assert.Equal(t, []civil.Date{{Year: 2024, Month: 9, Day: 1}, {Year: 2024, Month: 12, Day: 10}}, got)
}

func TestScanWeekday(t *testing.T) {
	day, ok := ScanWeekday("every TUESDAY 2:00pm")
	assert.True(t, ok)
	assert.Equal(t, "Tuesday", day)

	_, ok = ScanWeekday("daily")
	assert.False(t, ok)
}
