// Package timeparse converts Korean relative time labels ("8분 전") to timestamps.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numberExpr = regexp.MustCompile(`\d+`)

const day = 24 * time.Hour

// units are checked in order by substring containment; month and year are
// approximations (30 and 365 days).
var units = []struct {
	markers []string
	size    time.Duration
}{
	{[]string{"초"}, time.Second},
	{[]string{"분"}, time.Minute},
	{[]string{"시간"}, time.Hour},
	{[]string{"일"}, day},
	{[]string{"주"}, 7 * day},
	{[]string{"개월", "달"}, 30 * day},
	{[]string{"년"}, 365 * day},
}

// ToAbsolute subtracts the labelled offset from now. Text without a number or
// a known unit yields now unchanged.
func ToAbsolute(text string, now time.Time) time.Time {
	match := numberExpr.FindString(text)
	if match == "" {
		return now
	}

	value, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return now
	}

	for _, unit := range units {
		for _, marker := range unit.markers {
			if strings.Contains(text, marker) {
				return now.Add(-time.Duration(value) * unit.size)
			}
		}
	}

	return now
}
