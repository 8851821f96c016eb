package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkoster/parkwork/internal/event"
)

const (
	manualSource = "MAN"
	// manualWindowDays is how far ahead recurring events are expanded.
	manualWindowDays = 180
)

// Manual reads recurring community events that no source publishes, like
// the monthly work parties organized over mailing lists, from a YAML file
// and expands each recurrence pattern into concrete upcoming occurrences.
type Manual struct {
	Path string
	Now  func() time.Time
}

// ManualDefinition is one recurring event entry in the YAML file.
type ManualDefinition struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Pattern string `yaml:"recurring_pattern"` // e.g. "first_saturday"
	// StartTime/EndTime are local times of day like "13:00"; omitted for
	// date-only events.
	StartTime string   `yaml:"start_time"`
	EndTime   string   `yaml:"end_time"`
	Venue     string   `yaml:"venue"`
	Address   string   `yaml:"address"`
	URL       string   `yaml:"url"`
	Cost      string   `yaml:"cost"`
	Tags      []string `yaml:"tags"`
}

type manualFile struct {
	RecurringEvents []ManualDefinition `yaml:"recurring_events"`
}

func (m *Manual) Source() string { return manualSource }

// Fetch loads the YAML file and expands recurrences. The shared Client is
// unused; manual events never leave the filesystem.
func (m *Manual) Fetch(ctx context.Context, _ *Client) ([]event.SourceEvent, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("reading manual events file: %w", err)
	}
	return m.Parse(data)
}

// Parse expands every definition into occurrences within the window.
func (m *Manual) Parse(data []byte) ([]event.SourceEvent, error) {
	var file manualFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing manual events file: %w", err)
	}

	now := m.now().In(SeattleTZ)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, SeattleTZ)
	until := today.AddDate(0, 0, manualWindowDays)

	events := make([]event.SourceEvent, 0)
	for _, def := range file.RecurringEvents {
		occurrences, err := expandRecurrence(def.Pattern, today, until)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", def.ID, err)
		}
		for _, day := range occurrences {
			evt, err := m.instantiate(def, day)
			if err != nil {
				return nil, fmt.Errorf("definition %q: %w", def.ID, err)
			}
			events = append(events, evt)
		}
	}

	return validFiltered(events), nil
}

// instantiate builds the SourceEvent for one occurrence. The source ID is
// the definition ID plus the date, so occurrences stay stable across runs.
func (m *Manual) instantiate(def ManualDefinition, day time.Time) (event.SourceEvent, error) {
	timing := event.DateOnly(day.Year(), day.Month(), day.Day(), SeattleTZ)
	if def.StartTime != "" && def.EndTime != "" {
		start, err := time.Parse("15:04", def.StartTime)
		if err != nil {
			return event.SourceEvent{}, fmt.Errorf("bad start_time %q: %w", def.StartTime, err)
		}
		end, err := time.Parse("15:04", def.EndTime)
		if err != nil {
			return event.SourceEvent{}, fmt.Errorf("bad end_time %q: %w", def.EndTime, err)
		}
		timing = event.TimedSpan(
			combineLocal(day, start, SeattleTZ),
			combineLocal(day, end, SeattleTZ),
		)
	}

	return event.SourceEvent{
		Source:   manualSource,
		SourceID: fmt.Sprintf("%s-%s", def.ID, day.Format("2006-01-02")),
		Title:    def.Title,
		Timing:   timing,
		Venue:    def.Venue,
		Address:  def.Address,
		Cost:     def.Cost,
		URL:      normalizeURL(def.URL, ""),
		Tags:     def.Tags,
	}, nil
}

// expandRecurrence lists every occurrence of an nth-weekday pattern like
// "first_saturday" or "third_sunday" between from and until inclusive.
func expandRecurrence(pattern string, from, until time.Time) ([]time.Time, error) {
	nth, weekday, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}

	var days []time.Time
	for month := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location()); !month.After(until); month = month.AddDate(0, 1, 0) {
		day, ok := nthWeekdayOfMonth(month.Year(), month.Month(), nth, weekday, from.Location())
		if ok && !day.Before(from) && !day.After(until) {
			days = append(days, day)
		}
	}
	return days, nil
}

var ordinals = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parsePattern(pattern string) (int, time.Weekday, error) {
	nthStr, weekdayStr, ok := strings.Cut(pattern, "_")
	if !ok {
		return 0, 0, fmt.Errorf("unrecognized recurring pattern: %q", pattern)
	}
	nth, ok := ordinals[nthStr]
	if !ok {
		return 0, 0, fmt.Errorf("unrecognized ordinal in pattern: %q", pattern)
	}
	weekday, ok := weekdays[weekdayStr]
	if !ok {
		return 0, 0, fmt.Errorf("unrecognized weekday in pattern: %q", pattern)
	}
	return nth, weekday, nil
}

// nthWeekdayOfMonth returns the nth occurrence of a weekday in a month, or
// ok=false when the month has no such occurrence.
func nthWeekdayOfMonth(year int, month time.Month, nth int, weekday time.Weekday, loc *time.Location) (time.Time, bool) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := first.AddDate(0, 0, offset+(nth-1)*7)
	if day.Month() != month {
		return time.Time{}, false
	}
	return day, true
}

func (m *Manual) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
