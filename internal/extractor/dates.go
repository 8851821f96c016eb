package extractor

// Date and time formats seen across the sources:
//
//	GSP calendar:  "July 28, 9am-12:30pm" (no year)
//	SPR feed:      "Sunday, August 3, 2025, 8&nbsp;&ndash;&nbsp;11am"
//	SPU-style:     "Saturday, August 9" with "10 am &ndash; 12 pm"

import (
	"fmt"
	"strings"
	"time"
)

var clockLayouts = []string{"3:04pm", "3pm", "3:04", "3"}

func hasMeridiem(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm")
}

var dayLayouts = []string{
	"January 2",
	"Monday, January 2",
	"Monday, January 2, 2006",
	"January 2, 2006",
	"Monday, Jan 2",
}

// parseClockTime parses a time-of-day like "9am", "12:30pm", or a bare "8".
// A bare hour is read as AM; parseTimeRange shifts it to PM when the range
// only makes sense that way.
func parseClockTime(raw string) (time.Time, error) {
	cleaned := strings.ReplaceAll(raw, "&nbsp;", " ")
	cleaned = strings.ToLower(strings.ReplaceAll(cleaned, " ", ""))

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse time: %q", raw)
}

// parseDayDate parses a calendar date in any of the source formats. When
// the format carries no year, the current year relative to after is used,
// rolling into the next year if the date would otherwise be in the past
// (January listings scraped in December).
func parseDayDate(raw string, after time.Time) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)

	for _, layout := range dayLayouts {
		t, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		if !strings.Contains(layout, "2006") {
			t = time.Date(after.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			if t.Before(time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, time.UTC)) {
				t = t.AddDate(1, 0, 0)
			}
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("could not parse date: %q", raw)
}

// parseTimeRange parses "9am-12:30pm" or "8 &ndash; 11am" into start and
// end times of day. A start hour without its own am/pm marker inherits
// whichever meridiem gives the shorter span, so "1 - 3pm" reads as an
// afternoon event rather than a fourteen-hour one.
func parseTimeRange(raw string) (start, end time.Time, err error) {
	cleaned := strings.ReplaceAll(raw, "&nbsp;", " ")
	cleaned = strings.ReplaceAll(cleaned, "&ndash;", "-")
	cleaned = strings.ReplaceAll(cleaned, "–", "-")

	parts := strings.SplitN(cleaned, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("could not parse time range: %q", raw)
	}

	start, err = parseClockTime(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = parseClockTime(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !hasMeridiem(parts[0]) && start.Add(12*time.Hour).Before(end) {
		start = start.Add(12 * time.Hour)
	}
	return start, end, nil
}

// combineLocal merges a calendar date with a time-of-day in loc and returns
// the UTC instant.
func combineLocal(day, clock time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, loc).UTC()
}
