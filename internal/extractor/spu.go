package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mkoster/parkwork/internal/event"
)

const (
	spuSource     = "SPU"
	spuCleanupURL = "https://www.seattle.gov/utilities/volunteer/all-hands-neighborhood-cleanup"
)

// SPU extracts All Hands Neighborhood Cleanup events from the Seattle
// Public Utilities page. Events live in an HTML table with columns Date,
// Neighborhood, Meeting Location, and Time:
//
//	Saturday, August 9 | Othello | Othello Park            | 10 am – 12 pm
//	Saturday, Nov 22   | Lake City | Akin Building
//	                               (12360 Lake City Way NE) | 9 am – 11 am
//
// The location cell holds a venue name optionally followed by a street
// address in parentheses. Every event links back to the cleanup page
// itself; the page has no per-event detail URLs.
type SPU struct {
	// Now is the reference time for year inference; zero means wall clock.
	Now func() time.Time
}

func (s *SPU) Source() string { return spuSource }

// Fetch retrieves the cleanup page and parses its table.
func (s *SPU) Fetch(ctx context.Context, client *Client) ([]event.SourceEvent, error) {
	body, err := client.Get(ctx, spuCleanupURL, nil)
	if err != nil {
		return nil, err
	}
	return s.Parse(body)
}

// Parse extracts events from the page HTML. Rows whose date or time range
// cannot be parsed are skipped.
func (s *SPU) Parse(html []byte) ([]event.SourceEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing SPU cleanup HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		// No tbody: take every row after the header.
		rows = table.Find("tr").Slice(1, goquery.ToEnd)
	}

	now := s.now()
	events := make([]event.SourceEvent, 0, rows.Length())

	rows.Each(func(i int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 4 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		neighborhood := strings.TrimSpace(cells.Eq(1).Text())
		location := collapseSpace(cells.Eq(2).Text())
		timeText := strings.TrimSpace(cells.Eq(3).Text())
		if neighborhood == "" {
			return
		}

		day, err := parseDayDate(dateText, now)
		if err != nil {
			return
		}
		start, end, err := parseTimeRange(timeText)
		if err != nil {
			return
		}

		venue, address := spuVenueAddress(location)
		events = append(events, event.SourceEvent{
			Source:   spuSource,
			SourceID: spuSourceID(day, neighborhood),
			Title:    "All Hands Neighborhood Cleanup - " + neighborhood,
			Timing: event.TimedSpan(
				combineLocal(day, start, SeattleTZ),
				combineLocal(day, end, SeattleTZ),
			),
			Venue:   venue,
			Address: address,
			URL:     normalizeURL(spuCleanupURL, ""),
		})
	})

	return validFiltered(events), nil
}

// spuSourceID derives a stable ID like "2025-08-09-othello" from the
// cleanup date and neighborhood; the page carries no IDs of its own.
func spuSourceID(day time.Time, neighborhood string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(neighborhood) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return day.Format("2006-01-02") + "-" + b.String()
}

// spuVenueAddress splits a location cell like
// "Akin Building (12360 Lake City Way NE)" into venue and address. Cells
// without a parenthesized address yield the whole text as the venue.
func spuVenueAddress(location string) (venue, address string) {
	open := strings.Index(location, "(")
	if open < 0 {
		return location, ""
	}
	closing := strings.Index(location[open:], ")")
	if closing < 0 {
		return location, ""
	}
	address = strings.TrimSpace(location[open+1 : open+closing])
	venue = collapseSpace(location[:open] + location[open+closing+1:])
	return venue, address
}

// collapseSpace normalizes runs of whitespace (including the line breaks
// goquery preserves from multi-line table cells) to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *SPU) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
