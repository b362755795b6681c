package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ExclusiveScanner/internal/domain"
)

var seoul = time.FixedZone("KST", 9*60*60)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 15, 0, 0, seoul)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	holidays := NewCalendar("2025-10-09", " ", "")

	tests := []struct {
		name string
		now  time.Time
		want domain.Window
	}{
		{"weekday afternoon", at(2025, time.October, 14, 15), domain.WindowWeekday},
		{"weekday six", at(2025, time.October, 14, 6), domain.WindowMorning},
		{"saturday six", at(2025, time.October, 11, 6), domain.WindowMorning},
		{"holiday six", at(2025, time.October, 9, 6), domain.WindowMorning},
		{"saturday noon", at(2025, time.October, 11, 12), domain.WindowWeekend},
		{"sunday midnight", at(2025, time.October, 12, 0), domain.WindowWeekend},
		{"monday midnight", at(2025, time.October, 13, 0), domain.WindowWeekend},
		{"monday one", at(2025, time.October, 13, 1), domain.WindowWeekday},
		{"tuesday midnight", at(2025, time.October, 14, 0), domain.WindowWeekday},
		{"weekday holiday", at(2025, time.October, 9, 11), domain.WindowWeekend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.now, holidays))
		})
	}
}

func TestSelectUsesLocalClock(t *testing.T) {
	t.Parallel()

	// 21:30 UTC on Sunday is 06:30 on Monday in Seoul.
	utc := time.Date(2025, time.October, 12, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, domain.WindowWeekend, Select(utc, Calendar{}))
	assert.Equal(t, domain.WindowMorning, Select(utc.In(seoul), Calendar{}))
}

func TestSelectIsTotalAndDeterministic(t *testing.T) {
	t.Parallel()

	cal := NewCalendar("2025-01-01", "2025-03-03")
	start := time.Date(2024, time.December, 30, 0, 0, 0, 0, seoul)

	for h := 0; h < 24*120; h++ {
		now := start.Add(time.Duration(h) * time.Hour)
		first := Select(now, cal)
		require.Equal(t, first, Select(now, cal))

		switch {
		case now.Hour() == 6:
			require.Equal(t, domain.WindowMorning, first, now)
		case now.Weekday() == time.Saturday || now.Weekday() == time.Sunday:
			require.Equal(t, domain.WindowWeekend, first, now)
		}
	}
}

func TestWeekendIgnoresHolidayList(t *testing.T) {
	t.Parallel()

	saturday := at(2025, time.October, 11, 13)
	assert.Equal(t, domain.WindowWeekend, Select(saturday, Calendar{}))
	assert.Equal(t, domain.WindowWeekend, Select(saturday, NewCalendar("2025-10-11")))
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	cal := NewCalendar("2025-10-09")
	assert.Equal(t, "2025-10-12 (Sunday, weekend)", Describe(at(2025, time.October, 12, 9), cal))
	assert.Equal(t, "2025-10-09 (Thursday, weekday holiday)", Describe(at(2025, time.October, 9, 9), cal))
	assert.Equal(t, "2025-10-14 (Tuesday, weekday)", Describe(at(2025, time.October, 14, 9), cal))
}
