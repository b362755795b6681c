// Package window picks the search range a scrape should cover.
package window

import (
	"fmt"
	"strings"
	"time"

	"ExclusiveScanner/internal/domain"
)

const dateLayout = "2006-01-02"

// Calendar is an explicit set of weekday holidays treated like weekends.
type Calendar struct {
	days map[string]struct{}
}

// NewCalendar builds a calendar from YYYY-MM-DD strings; blanks are ignored.
func NewCalendar(dates ...string) Calendar {
	days := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		days[d] = struct{}{}
	}
	return Calendar{days: days}
}

// IsHoliday reports whether the civil date of t is listed.
func (c Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.days[t.Format(dateLayout)]
	return ok
}

// Select maps a local time to the window used for the query. The first matching
// rule wins: 06 o'clock, then Monday midnight / weekend / holiday, then weekday.
func Select(now time.Time, cal Calendar) domain.Window {
	hour := now.Hour()
	if hour == 6 {
		return domain.WindowMorning
	}

	mondayMidnight := now.Weekday() == time.Monday && hour == 0
	if mondayMidnight || isWeekend(now) || cal.IsHoliday(now) {
		return domain.WindowWeekend
	}

	return domain.WindowWeekday
}

// Describe renders the date with its day kind, e.g. "2025-10-12 (Sunday, weekend)".
func Describe(now time.Time, cal Calendar) string {
	kind := "weekday"
	switch {
	case isWeekend(now):
		kind = "weekend"
	case cal.IsHoliday(now):
		kind = "weekday holiday"
	}
	return fmt.Sprintf("%s (%s, %s)", now.Format(dateLayout), now.Weekday(), kind)
}

func isWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}
