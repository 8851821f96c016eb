package extractor

import (
	"testing"
	"time"
)

const sprFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Seattle Parks volunteer events</title>
  <item>
    <title>Heron&#8217;s Nest Event</title>
    <link>https://www.seattle.gov/parks/event/8841</link>
    <guid>8841</guid>
    <category>Volunteer/Work Party</category>
    <description>Sunday, August 3, 2025, 8&amp;nbsp;&amp;ndash;&amp;nbsp;11am
at Lincoln Park
Help restore the forest understory.</description>
    <source url="https://seattle.greencitypartnerships.org/event/42030">Green Seattle Partnership</source>
  </item>
  <item>
    <title>Green Lake Litter Patrol</title>
    <link>https://www.seattle.gov/parks/event/8842</link>
    <guid>8842</guid>
    <description>Saturday, August 9</description>
  </item>
  <item>
    <title>Broken Item</title>
    <link>https://www.seattle.gov/parks/event/8843</link>
    <guid>8843</guid>
    <description>when we feel like it</description>
  </item>
</channel>
</rss>`

func TestSPRParse(t *testing.T) {
	now := time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	s := &SPR{Now: func() time.Time { return now }}

	events, err := s.Parse([]byte(sprFeedFixture))
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events (unparseable date dropped), got %d", len(events))
	}

	first := events[0]
	if first.SourceID != "8841" {
		t.Errorf("expected GUID as source ID, got %q", first.SourceID)
	}
	// The raw entity-laden title is preserved; normalization is dedup's
	// job, not the extractor's.
	if first.Title != "Heron’s Nest Event" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Venue != "Lincoln Park" {
		t.Errorf("expected venue from 'at' line, got %q", first.Venue)
	}
	if first.SameAs != "https://seattle.greencitypartnerships.org/event/42030" {
		t.Errorf("expected same-as hint, got %q", first.SameAs)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "Volunteer/Work Party" {
		t.Errorf("expected category tag, got %v", first.Tags)
	}

	// 8am PDT on August 3 is 15:00 UTC.
	wantStart := time.Date(2025, time.August, 3, 15, 0, 0, 0, time.UTC)
	if !first.Timing.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, first.Timing.Start)
	}
	wantEnd := time.Date(2025, time.August, 3, 18, 0, 0, 0, time.UTC)
	if !first.Timing.End.Equal(wantEnd) {
		t.Errorf("expected end %v, got %v", wantEnd, first.Timing.End)
	}

	second := events[1]
	if !second.Timing.AllDay {
		t.Error("date-line-only item should be date-only")
	}
	if got := second.Timing.Date(SeattleTZ).Format("2006-01-02"); got != "2025-08-09" {
		t.Errorf("expected date 2025-08-09, got %s", got)
	}
}

func TestSPRParseInvalidXML(t *testing.T) {
	s := &SPR{}
	if _, err := s.Parse([]byte("not xml at all <<<")); err == nil {
		t.Error("expected error for invalid XML")
	}
}
