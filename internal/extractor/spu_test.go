package extractor

import (
	"testing"
	"time"
)

const spuTableFixture = `
<html><body>
<table>
  <thead>
    <tr><th>Date</th><th>Neighborhood</th><th>Meeting Location</th><th>Time</th></tr>
  </thead>
  <tbody>
    <tr>
      <td>Saturday, August 9</td>
      <td>Othello</td>
      <td>Othello Park</td>
      <td>10 am &ndash; 12 pm</td>
    </tr>
    <tr>
      <td>Saturday, Nov 22</td>
      <td>Lake City</td>
      <td><a href="https://maps.app.goo.gl/abc">Akin Building
(12360 Lake City Way NE)</a></td>
      <td>1 &ndash; 3 pm</td>
    </tr>
    <tr>
      <td>Someday soon</td>
      <td>Ballard</td>
      <td>TBD</td>
      <td>10 am &ndash; 12 pm</td>
    </tr>
  </tbody>
</table>
</body></html>`

func spuAt(now time.Time) *SPU {
	return &SPU{Now: func() time.Time { return now }}
}

func TestSPUParse(t *testing.T) {
	now := time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	events, err := spuAt(now).Parse([]byte(spuTableFixture))
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events (the undated row dropped), got %d", len(events))
	}

	first := events[0]
	if first.Source != "SPU" {
		t.Errorf("unexpected source %q", first.Source)
	}
	if first.SourceID != "2025-08-09-othello" {
		t.Errorf("expected date-plus-neighborhood ID, got %q", first.SourceID)
	}
	if first.Title != "All Hands Neighborhood Cleanup - Othello" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Venue != "Othello Park" || first.Address != "" {
		t.Errorf("plain location cell misread: venue %q, address %q", first.Venue, first.Address)
	}
	// 10am PDT on August 9 is 17:00 UTC.
	wantStart := time.Date(2025, time.August, 9, 17, 0, 0, 0, time.UTC)
	if !first.Timing.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, first.Timing.Start)
	}
	if first.URL != "https://www.seattle.gov/utilities/volunteer/all-hands-neighborhood-cleanup" {
		t.Errorf("unexpected URL %q", first.URL)
	}

	second := events[1]
	if second.SourceID != "2025-11-22-lakecity" {
		t.Errorf("neighborhood not flattened in ID: %q", second.SourceID)
	}
	if second.Venue != "Akin Building" {
		t.Errorf("venue not split from address: %q", second.Venue)
	}
	if second.Address != "12360 Lake City Way NE" {
		t.Errorf("address not extracted: %q", second.Address)
	}
	// "1 - 3 pm" is an afternoon cleanup: 1pm PST on November 22 is 21:00 UTC.
	wantStart = time.Date(2025, time.November, 22, 21, 0, 0, 0, time.UTC)
	if !second.Timing.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, second.Timing.Start)
	}
}

func TestSPUParseNoTable(t *testing.T) {
	events, err := spuAt(time.Now()).Parse([]byte("<html><body><p>No events scheduled.</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestSPUParseHeaderOnlyRows(t *testing.T) {
	// A table without tbody: the first row is the header and is skipped.
	fixture := `<table>
<tr><th>Date</th><th>Neighborhood</th><th>Meeting Location</th><th>Time</th></tr>
<tr><td>Saturday, August 9</td><td>Othello</td><td>Othello Park</td><td>10 am - 12 pm</td></tr>
</table>`
	now := time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	events, err := spuAt(now).Parse([]byte(fixture))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].SourceID != "2025-08-09-othello" {
		t.Errorf("expected the single data row, got %+v", events)
	}
}

func TestSPUVenueAddress(t *testing.T) {
	tests := []struct {
		location string
		venue    string
		address  string
	}{
		{"Othello Park", "Othello Park", ""},
		{"Akin Building (12360 Lake City Way NE)", "Akin Building", "12360 Lake City Way NE"},
		{"Fresh Flours (9410 Delridge Wy SW)", "Fresh Flours", "9410 Delridge Wy SW"},
		{"Hoa Mai Park (1224 S King St", "Hoa Mai Park (1224 S King St", ""},
	}
	for _, tt := range tests {
		venue, address := spuVenueAddress(tt.location)
		if venue != tt.venue || address != tt.address {
			t.Errorf("spuVenueAddress(%q) = %q, %q, want %q, %q",
				tt.location, venue, address, tt.venue, tt.address)
		}
	}
}
