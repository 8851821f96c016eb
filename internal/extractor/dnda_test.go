package extractor

import (
	"testing"
	"time"
)

const dndaFixture = `[
  {
    "id": 9120,
    "title": "Longfellow Creek Restoration",
    "start": "2025-08-09T10:00:00-07:00",
    "end": "2025-08-09T13:00:00-07:00",
    "url": "https://dnda.org/event/longfellow-creek-restoration/",
    "location": "Delridge Wetland Park, 5911 23rd Ave SW",
    "labels": "Volunteer, Restoration"
  },
  {
    "id": 9121,
    "title": "Cancelled Work Party",
    "start": "2025-08-10T10:00:00-07:00",
    "end": "2025-08-10T12:00:00-07:00",
    "url": "https://dnda.org/event/cancelled-work-party/",
    "reason_for_cancellation": "Air quality"
  },
  {
    "id": 9122,
    "title": "Bad Timestamps",
    "start": "sometime",
    "end": "later",
    "url": "https://dnda.org/event/bad/"
  }
]`

func TestDNDAParse(t *testing.T) {
	d := &DNDA{}
	events, err := d.Parse([]byte(dndaFixture))
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event (cancelled and unparseable dropped), got %d", len(events))
	}

	evt := events[0]
	if evt.SourceID != "9120" {
		t.Errorf("expected numeric ID as source ID, got %q", evt.SourceID)
	}
	if evt.Address != "Delridge Wetland Park, 5911 23rd Ave SW" {
		t.Errorf("unexpected address %q", evt.Address)
	}
	if evt.URL != "https://dnda.org/event/longfellow-creek-restoration" {
		t.Errorf("URL not normalized: %q", evt.URL)
	}

	// 10:00 PDT is 17:00 UTC.
	wantStart := time.Date(2025, time.August, 9, 17, 0, 0, 0, time.UTC)
	if !evt.Timing.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, evt.Timing.Start)
	}

	want := []string{"Volunteer", "Restoration"}
	if len(evt.Tags) != 2 || evt.Tags[0] != want[0] || evt.Tags[1] != want[1] {
		t.Errorf("expected tags %v, got %v", want, evt.Tags)
	}
}

func TestDNDAParseInvalidJSON(t *testing.T) {
	d := &DNDA{}
	if _, err := d.Parse([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
