package delta

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts without a zone parse as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006 3:04pm",
	"1/2/2006 3:04 pm",
	"1/2/2006 15:04",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseTimestamp parses a date cell rendered as a string.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Grid views render pm/am in either case.
	if lower := strings.ToLower(s); lower != s {
		return ParseTimestamp(lower)
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// SortChronological returns the group ordered most recent first. Equal
// timestamps keep their input order. The input slice is not modified.
func SortChronological(group []Observation) ([]Observation, error) {
	type timed struct {
		obs Observation
		at  time.Time
	}

	items := make([]timed, len(group))
	for i, obs := range group {
		at, err := ParseTimestamp(obs.Timestamp)
		if err != nil {
			return nil, &InvalidDateError{RecordID: obs.RecordID, EntityID: obs.EntityID, Value: obs.Timestamp}
		}
		items[i] = timed{obs: obs, at: at}
	}

	slices.SortStableFunc(items, func(a, b timed) int {
		return b.at.Compare(a.at)
	})

	sorted := make([]Observation, len(items))
	for i, it := range items {
		sorted[i] = it.obs
	}
	return sorted, nil
}
