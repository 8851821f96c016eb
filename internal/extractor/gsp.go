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
	gspSource      = "GSP"
	gspBaseURL     = "https://seattle.greencitypartnerships.org"
	gspCalendarURL = gspBaseURL + "/event/calendar/"
	// gspWindowDays is how far ahead the calendar is asked for events.
	gspWindowDays = 30
)

// GSP extracts restoration work parties from the Green Seattle Partnership
// event calendar. Entries look like:
//
//	<div class="event">
//	  <h4><a href="/event/42030/">Lizard Haven weeding and watering</a></h4>
//	  <p><em>July 28, 9am-12:30pm @ Discovery Park</em></p>
//	  <p>Join us for a restoration work party...</p>
//	</div>
//
// Dates carry no year; the year is inferred relative to the fetch time.
type GSP struct {
	// Now is the reference time for year inference; zero means wall clock.
	Now func() time.Time
}

func (g *GSP) Source() string { return gspSource }

// Fetch retrieves the calendar page and parses its events.
func (g *GSP) Fetch(ctx context.Context, client *Client) ([]event.SourceEvent, error) {
	now := g.now()
	url := fmt.Sprintf("%s?start=%s&end=%s", gspCalendarURL,
		now.Format("2006-01-02"), now.AddDate(0, 0, gspWindowDays).Format("2006-01-02"))

	body, err := client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return g.Parse(body)
}

// Parse extracts events from the calendar HTML.
func (g *GSP) Parse(html []byte) ([]event.SourceEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing GSP calendar HTML: %w", err)
	}

	now := g.now()
	events := make([]event.SourceEvent, 0)

	doc.Find("div.event").Each(func(i int, sel *goquery.Selection) {
		titleLink := sel.Find("h4 a").First()
		title := strings.TrimSpace(titleLink.Text())
		href, _ := titleLink.Attr("href")
		if title == "" {
			return
		}

		eventURL := normalizeURL(href, gspBaseURL)
		sourceID := gspSourceID(href)
		if sourceID == "" {
			sourceID = fallbackSourceID(title)
		}

		// "July 28, 9am-12:30pm @ Discovery Park"
		dateText := strings.TrimSpace(sel.Find("p em").First().Text())
		if dateText == "" {
			return
		}
		datePart := dateText
		venue := ""
		if at := strings.Index(dateText, "@"); at >= 0 {
			datePart = strings.TrimSpace(dateText[:at])
			venue = strings.TrimSpace(dateText[at+1:])
		}

		timing, err := parseGSPTiming(datePart, now)
		if err != nil {
			return
		}

		tags := []string{"Green Seattle Partnership"}
		events = append(events, event.SourceEvent{
			Source:   gspSource,
			SourceID: sourceID,
			Title:    title,
			Timing:   timing,
			Venue:    venue,
			URL:      eventURL,
			Tags:     tags,
		})
	})

	return validFiltered(events), nil
}

// parseGSPTiming parses "July 28, 9am-12:30pm". When the time range is
// missing the event is date-only.
func parseGSPTiming(datePart string, now time.Time) (event.Timing, error) {
	dateStr, timeStr, hasTimes := strings.Cut(datePart, ",")

	day, err := parseDayDate(dateStr, now)
	if err != nil {
		return event.Timing{}, err
	}
	if !hasTimes || strings.TrimSpace(timeStr) == "" {
		return event.DateOnly(day.Year(), day.Month(), day.Day(), SeattleTZ), nil
	}

	start, end, err := parseTimeRange(strings.TrimSpace(timeStr))
	if err != nil {
		return event.Timing{}, err
	}
	return event.TimedSpan(
		combineLocal(day, start, SeattleTZ),
		combineLocal(day, end, SeattleTZ),
	), nil
}

// gspSourceID pulls the numeric event ID out of hrefs like "/event/42030/".
func gspSourceID(href string) string {
	_, rest, ok := strings.Cut(href, "/event/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

// fallbackSourceID derives a stable ID from the title when the URL carries
// none.
func fallbackSourceID(title string) string {
	id := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

func (g *GSP) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
