package site

import (
	"os"
	"path/filepath"
	"strings"
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

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	return &Generator{
		Dir:      t.TempDir(),
		Location: seattle,
		Now:      func() time.Time { return time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func sampleEvents() []event.CanonicalEvent {
	lat, lon := 47.5613, -122.3934
	return []event.CanonicalEvent{
		{
			CanonicalID: "abc123",
			Title:       "Lincoln Park Work Party",
			Timing: event.TimedSpan(
				time.Date(2025, time.August, 2, 16, 0, 0, 0, time.UTC),
				time.Date(2025, time.August, 2, 19, 30, 0, 0, time.UTC),
			),
			Venue:        "Lincoln Park",
			Address:      "8011 Fauntleroy Way SW",
			Cost:         "Free",
			Latitude:     &lat,
			Longitude:    &lon,
			Tags:         []string{"Volunteer"},
			URL:          "https://seattle.greencitypartnerships.org/event/42030",
			SourceEvents: []string{"GSP:42030", "SPR:9"},
		},
		{
			CanonicalID:  "def456",
			Title:        "Beach Naturalists, Low Tide",
			Timing:       event.DateOnly(2025, time.August, 3, seattle),
			URL:          "https://example.org/beach",
			SourceEvents: []string{"SPR:10"},
		},
	}
}

func TestGenerateWritesBothFiles(t *testing.T) {
	g := testGenerator(t)
	if err := g.Generate(sampleEvents()); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"index.html", "events.ics"} {
		if _, err := os.Stat(filepath.Join(g.Dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestIndexContents(t *testing.T) {
	g := testGenerator(t)
	if err := g.Generate(sampleEvents()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(g.Dir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	if !strings.Contains(html, "Lincoln Park Work Party") {
		t.Error("event title missing from index")
	}
	// 16:00 UTC on Aug 2 is 9:00am PDT.
	if !strings.Contains(html, "Saturday, August 2, 2025, 9:00am - 12:30pm") {
		t.Errorf("timed event not rendered in local time:\n%s", html)
	}
	// The all-day event shows only its date.
	if !strings.Contains(html, "Sunday, August 3, 2025") {
		t.Error("all-day event date missing")
	}
	if strings.Contains(html, "Sunday, August 3, 2025, 12:00am") {
		t.Error("all-day event should not show a time of day")
	}
	if !strings.Contains(html, "https://www.google.com/maps/search/?api=1&amp;query=47.561300,-122.393400") {
		t.Error("maps link missing or not built from coordinates")
	}
	if !strings.Contains(html, "Listed by 2 sources") {
		t.Error("merged event should show its source count")
	}
}

func TestIndexEmptyState(t *testing.T) {
	g := testGenerator(t)
	if err := g.Generate(nil); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(g.Dir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "No upcoming events.") {
		t.Error("empty list should render the empty state")
	}
}

func TestGenerateICS(t *testing.T) {
	now := time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)
	ics := GenerateICS(sampleEvents(), now)

	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Error("calendar envelope malformed")
	}
	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("expected 2 VEVENTs, got %d", got)
	}
	if !strings.Contains(ics, "UID:abc123@parkwork\r\n") {
		t.Error("UID should come from the canonical ID")
	}
	if !strings.Contains(ics, "DTSTART:20250802T160000Z\r\n") {
		t.Error("timed event should use a UTC datetime DTSTART")
	}
	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20250803\r\n") ||
		!strings.Contains(ics, "DTEND;VALUE=DATE:20250804\r\n") {
		t.Error("all-day event should use date-valued DTSTART/DTEND")
	}
	if !strings.Contains(ics, "SUMMARY:Beach Naturalists\\, Low Tide\r\n") {
		t.Error("commas in summaries must be escaped")
	}
	if !strings.Contains(ics, "LOCATION:Lincoln Park\\, 8011 Fauntleroy Way SW\r\n") {
		t.Error("location should combine venue and address")
	}
}
