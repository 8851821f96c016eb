package filter

import (
	"testing"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

var seattle = mustLoad("America/Los_Angeles")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// now is a Friday.
var now = time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)

func canonicalOn(id string, day time.Time, refs []string, tags []string) event.CanonicalEvent {
	return event.CanonicalEvent{
		CanonicalID:  id,
		Title:        "Event " + id,
		Timing:       event.TimedSpan(day, day.Add(2*time.Hour)),
		URL:          "https://example.org/" + id,
		Tags:         tags,
		SourceEvents: refs,
	}
}

func TestEmptyFilterMatchesAll(t *testing.T) {
	f := &Filter{}
	events := []event.CanonicalEvent{
		canonicalOn("a", now.AddDate(0, 0, -30), []string{"GSP:1"}, nil),
	}
	if got := f.Apply(events, now, seattle); len(got) != 1 {
		t.Errorf("empty filter should pass everything, got %d", len(got))
	}
}

func TestUpcomingOnly(t *testing.T) {
	f := &Filter{UpcomingOnly: true}
	events := []event.CanonicalEvent{
		canonicalOn("past", now.AddDate(0, 0, -7), []string{"GSP:1"}, nil),
		canonicalOn("today", now, []string{"GSP:2"}, nil),
		canonicalOn("future", now.AddDate(0, 0, 7), []string{"GSP:3"}, nil),
	}

	got := f.Apply(events, now, seattle)
	if len(got) != 2 {
		t.Fatalf("expected today and future, got %d", len(got))
	}
	if got[0].CanonicalID != "today" || got[1].CanonicalID != "future" {
		t.Errorf("unexpected survivors: %s, %s", got[0].CanonicalID, got[1].CanonicalID)
	}
}

func TestDaysAhead(t *testing.T) {
	f := &Filter{DaysAhead: 7}
	events := []event.CanonicalEvent{
		canonicalOn("past", now.AddDate(0, 0, -1), []string{"GSP:1"}, nil),
		canonicalOn("soon", now.AddDate(0, 0, 3), []string{"GSP:2"}, nil),
		canonicalOn("late", now.AddDate(0, 0, 30), []string{"GSP:3"}, nil),
	}

	got := f.Apply(events, now, seattle)
	if len(got) != 1 || got[0].CanonicalID != "soon" {
		t.Errorf("expected only the event within 7 days, got %+v", got)
	}
}

func TestSourceFilter(t *testing.T) {
	f := &Filter{Source: "SPR"}
	events := []event.CanonicalEvent{
		canonicalOn("merged", now, []string{"GSP:1", "SPR:9"}, nil),
		canonicalOn("gsp-only", now, []string{"GSP:2"}, nil),
	}

	got := f.Apply(events, now, seattle)
	if len(got) != 1 || got[0].CanonicalID != "merged" {
		t.Errorf("expected only the event with an SPR member, got %+v", got)
	}
}

func TestTagFilterIsCaseInsensitive(t *testing.T) {
	f := &Filter{Tag: "volunteer"}
	events := []event.CanonicalEvent{
		canonicalOn("tagged", now, []string{"GSP:1"}, []string{"Volunteer", "Restoration"}),
		canonicalOn("untagged", now, []string{"GSP:2"}, []string{"Restoration"}),
	}

	got := f.Apply(events, now, seattle)
	if len(got) != 1 || got[0].CanonicalID != "tagged" {
		t.Errorf("expected only the tagged event, got %+v", got)
	}
}

func TestWeekendsOnly(t *testing.T) {
	f := &Filter{WeekendsOnly: true}
	// Aug 1 2025 is a Friday, Aug 2 a Saturday, Aug 3 a Sunday.
	events := []event.CanonicalEvent{
		canonicalOn("friday", time.Date(2025, time.August, 1, 17, 0, 0, 0, time.UTC), []string{"GSP:1"}, nil),
		canonicalOn("saturday", time.Date(2025, time.August, 2, 17, 0, 0, 0, time.UTC), []string{"GSP:2"}, nil),
		canonicalOn("sunday", time.Date(2025, time.August, 3, 17, 0, 0, 0, time.UTC), []string{"GSP:3"}, nil),
	}

	got := f.Apply(events, now, seattle)
	if len(got) != 2 {
		t.Fatalf("expected 2 weekend events, got %d", len(got))
	}
	if got[0].CanonicalID != "saturday" || got[1].CanonicalID != "sunday" {
		t.Errorf("unexpected survivors: %s, %s", got[0].CanonicalID, got[1].CanonicalID)
	}
}

func TestWeekendEvaluatedInReferenceTimezone(t *testing.T) {
	f := &Filter{WeekendsOnly: true}
	// 02:00 UTC Saturday is still Friday evening in Seattle.
	fridayEvening := time.Date(2025, time.August, 2, 2, 0, 0, 0, time.UTC)
	events := []event.CanonicalEvent{
		canonicalOn("utc-saturday", fridayEvening, []string{"GSP:1"}, nil),
	}

	if got := f.Apply(events, now, seattle); len(got) != 0 {
		t.Errorf("Friday evening in Seattle should not pass a weekend filter")
	}
}

func TestString(t *testing.T) {
	empty := &Filter{}
	if empty.String() != "No active filters" {
		t.Errorf("unexpected empty description %q", empty.String())
	}

	f := &Filter{DaysAhead: 14, Tag: "Volunteer", WeekendsOnly: true}
	want := "Next 14 days | Tag: Volunteer | Weekends only"
	if f.String() != want {
		t.Errorf("String() = %q, want %q", f.String(), want)
	}
}
