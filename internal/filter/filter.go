// Package filter narrows lists of canonical events for display.
//
// Filters combine independent criteria:
//   - Upcoming only (event date on or after today)
//   - Days ahead (event date within N days of today)
//   - Source (at least one contributing source event from a named source)
//   - Tag (case-insensitive exact tag match)
//   - Weekends only (Saturday/Sunday in the reference timezone)
//
// All date comparisons happen on calendar dates in the reference timezone,
// matching how duplicates are grouped.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

// Filter represents display filtering criteria.
type Filter struct {
	// UpcomingOnly drops events whose date has passed.
	UpcomingOnly bool

	// DaysAhead limits results to events within this many days of today.
	// Zero means no limit.
	DaysAhead int

	// Source keeps only events with a contributing source event from this
	// source (exact match).
	Source string

	// Tag keeps only events carrying this tag (case-insensitive).
	Tag string

	// WeekendsOnly keeps only Saturday and Sunday events.
	WeekendsOnly bool
}

// IsEmpty reports whether the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return !f.UpcomingOnly &&
		f.DaysAhead == 0 &&
		f.Source == "" &&
		f.Tag == "" &&
		!f.WeekendsOnly
}

// Matches checks one canonical event against all active criteria. Dates are
// evaluated in loc relative to now.
func (f *Filter) Matches(ce *event.CanonicalEvent, now time.Time, loc *time.Location) bool {
	if f.IsEmpty() {
		return true
	}

	eventDate := ce.Timing.Date(loc)
	today := dateOf(now, loc)

	if f.UpcomingOnly && eventDate.Before(today) {
		return false
	}

	if f.DaysAhead > 0 {
		limit := today.AddDate(0, 0, f.DaysAhead)
		if eventDate.Before(today) || eventDate.After(limit) {
			return false
		}
	}

	if f.WeekendsOnly {
		weekday := eventDate.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if f.Source != "" {
		matched := false
		for _, ref := range ce.SourceEvents {
			source, _, err := event.SplitRef(ref)
			if err == nil && source == f.Source {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.Tag != "" {
		matched := false
		for _, tag := range ce.Tags {
			if strings.EqualFold(tag, f.Tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns the events matching all active criteria. An empty filter
// returns the input unchanged.
func (f *Filter) Apply(events []event.CanonicalEvent, now time.Time, loc *time.Location) []event.CanonicalEvent {
	if f.IsEmpty() {
		return events
	}

	var filtered []event.CanonicalEvent
	for i := range events {
		if f.Matches(&events[i], now, loc) {
			filtered = append(filtered, events[i])
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.UpcomingOnly {
		parts = append(parts, "Upcoming only")
	}
	if f.DaysAhead > 0 {
		parts = append(parts, fmt.Sprintf("Next %d days", f.DaysAhead))
	}
	if f.Source != "" {
		parts = append(parts, fmt.Sprintf("Source: %s", f.Source))
	}
	if f.Tag != "" {
		parts = append(parts, fmt.Sprintf("Tag: %s", f.Tag))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	return strings.Join(parts, " | ")
}

// dateOf truncates an instant to midnight of its calendar day in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
