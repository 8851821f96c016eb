package event

import (
	"fmt"
	"strings"
	"time"
)

// Timing describes when an event happens. AllDay marks listings where the
// publisher knows the calendar date but not the time of day; Start and End
// then both hold midnight of that date (in the publisher's timezone,
// converted to UTC).
type Timing struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day,omitempty"`
}

// TimedSpan creates a Timing with real time-of-day information.
func TimedSpan(start, end time.Time) Timing {
	return Timing{Start: start.UTC(), End: end.UTC()}
}

// DateOnly creates an all-day Timing for the given calendar date, anchored
// at local midnight in loc and stored in UTC.
func DateOnly(year int, month time.Month, day int, loc *time.Location) Timing {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return Timing{Start: midnight.UTC(), End: midnight.UTC(), AllDay: true}
}

// TimingFromInstants interprets a raw start/end pair using the legacy
// convention where start == end means "date only". Used when reading rows
// written before the all-day flag existed.
func TimingFromInstants(start, end time.Time) Timing {
	return Timing{Start: start.UTC(), End: end.UTC(), AllDay: start.Equal(end)}
}

// HasTimeOfDay reports whether the timing carries real time-of-day
// information rather than just a calendar date.
func (t Timing) HasTimeOfDay() bool {
	return !t.AllDay
}

// Date returns the calendar date of the timing's start in loc, truncated to
// midnight. This is the date used for deduplication blocking.
func (t Timing) Date(loc *time.Location) time.Time {
	local := t.Start.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SourceEvent is one listing as published by a single source, already
// normalized into the common schema by that source's extractor.
type SourceEvent struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Timing   Timing `json:"timing"`

	Venue     string   `json:"venue,omitempty"`
	Address   string   `json:"address,omitempty"`
	Cost      string   `json:"cost,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	URL string `json:"url"`
	// SameAs asserts this listing describes the same real-world event as
	// one published at the given URL by a different source.
	SameAs string `json:"same_as,omitempty"`
}

// Ref returns the "source:source_id" string identifying this event across
// all sources.
func (e *SourceEvent) Ref() string {
	return e.Source + ":" + e.SourceID
}

// SplitRef splits a "source:source_id" ref back into its parts. Source IDs
// may themselves contain colons, so only the first separator counts.
func SplitRef(ref string) (source, sourceID string, err error) {
	source, sourceID, ok := strings.Cut(ref, ":")
	if !ok || source == "" || sourceID == "" {
		return "", "", fmt.Errorf("malformed source event ref: %q", ref)
	}
	return source, sourceID, nil
}

// Validate checks the extractor-layer preconditions: events failing these
// must never reach deduplication or storage.
func (e *SourceEvent) Validate() error {
	if e.Source == "" || e.SourceID == "" {
		return fmt.Errorf("event missing source identity: %q", e.Ref())
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("event %s has empty title", e.Ref())
	}
	if e.URL == "" {
		return fmt.Errorf("event %s has no URL", e.Ref())
	}
	if e.Timing.Start.After(e.Timing.End) {
		return fmt.Errorf("event %s starts after it ends (%s > %s)",
			e.Ref(), e.Timing.Start.Format(time.RFC3339), e.Timing.End.Format(time.RFC3339))
	}
	return nil
}

// CanonicalEvent is the merged display record for one real-world event,
// synthesized from every source listing that refers to it.
type CanonicalEvent struct {
	CanonicalID string `json:"canonical_id"`
	Title       string `json:"title"`
	Timing      Timing `json:"timing"`

	Venue     string   `json:"venue,omitempty"`
	Address   string   `json:"address,omitempty"`
	Cost      string   `json:"cost,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	URL string `json:"url"`

	// SourceEvents lists the "source:source_id" refs of every listing
	// folded into this record, in group order.
	SourceEvents []string `json:"source_events"`
}

// IsMerged reports whether more than one source listing contributed.
func (c *CanonicalEvent) IsMerged() bool {
	return len(c.SourceEvents) > 1
}
