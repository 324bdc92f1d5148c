package core

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the persisted timestamp layout. Values carry no zone
// designator: they are wall-clock timestamps pinned to NormalizedHour.
const DateLayout = "2006-01-02T15:04:05"

// NormalizedHour is the fixed hour-of-day stamped on every event date so a
// calendar day survives timezone round-trips unchanged.
const NormalizedHour = 12

// DayKey returns the calendar key for a 1-based day number, e.g. "day#01".
func DayKey(day int) string {
	return fmt.Sprintf("day#%02d", day)
}

// NormalizeDate pins a timestamp to the calendar day at NormalizedHour and
// formats it in the persisted layout.
func NormalizeDate(value time.Time) string {
	day := time.Date(value.Year(), value.Month(), value.Day(), NormalizedHour, 0, 0, 0, time.UTC)
	return day.Format(DateLayout)
}

// ParseDate parses a persisted timestamp value.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event date %q: %w", value, err)
	}
	return parsed, nil
}

// KeyDates converts a list of date values into the keyed calendar map.
// Dates are sorted ascending and keyed day#01, day#02, ... in that order.
func KeyDates(dates []string) map[string]string {
	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Strings(sorted)

	keyed := make(map[string]string, len(sorted))
	for i, value := range sorted {
		keyed[DayKey(i+1)] = value
	}
	return keyed
}

// DateValues returns the calendar values ordered by day key. The inverse of
// KeyDates: a keyed map produced from sorted dates yields the same dates in
// the same order.
func DateValues(keyed map[string]string) []string {
	keys := make([]string, 0, len(keyed))
	for key := range keyed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, keyed[key])
	}
	return values
}

// SortedQuotas returns the quota map values ordered by invitation type.
func SortedQuotas(keyed map[string]Quota) []Quota {
	types := make([]string, 0, len(keyed))
	for invitationType := range keyed {
		types = append(types, invitationType)
	}
	sort.Strings(types)

	quotas := make([]Quota, 0, len(types))
	for _, invitationType := range types {
		quotas = append(quotas, keyed[invitationType])
	}
	return quotas
}
