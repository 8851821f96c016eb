package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mkoster/parkwork/internal/event"
)

const (
	ecSource  = "EC"
	ecBaseURL = "https://www.earthcorps.org"
	// ecDefaultDuration is assumed when an event carries no duration.
	ecDefaultDuration = 3 * time.Hour
)

// EarthCorps extracts volunteer events from the EarthCorps monthly
// calendar. The calendar page embeds its data as a JavaScript object:
//
//	var events_by_date = {"9": {"events": [{"Id": "4821", ...}]}, ...};
//
// keyed by day of month. The month itself is not in the data; it is
// recovered from the previous-month navigation link. Start times arrive as
// "8/9/2025 10:00 AM" strings with a fractional duration in hours.
type EarthCorps struct {
	// Now is the reference time for the calendar month fetched and for
	// month inference when the page lacks navigation; zero means wall
	// clock.
	Now func() time.Time
}

type ecEvent struct {
	ID            string     `json:"Id"`
	Name          string     `json:"Name"`
	StartDateTime string     `json:"StartDateTime"`
	StartTime     string     `json:"startTime"`
	Duration      ecDuration `json:"Duration"`
}

// ecDuration is a duration in hours that the calendar serializes
// inconsistently, sometimes as a number and sometimes as a string.
type ecDuration float64

func (d *ecDuration) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = ecDuration(v)
	return nil
}

func (e *EarthCorps) Source() string { return ecSource }

// Fetch retrieves the calendar for the month two weeks out, so events near
// a month boundary are not missed.
func (e *EarthCorps) Fetch(ctx context.Context, client *Client) ([]event.SourceEvent, error) {
	target := e.now().AddDate(0, 0, 14)
	url := fmt.Sprintf("%s/volunteer/calendar/%d/%d/", ecBaseURL, target.Year(), int(target.Month()))

	body, err := client.Get(ctx, url, map[string]string{
		"Accept":  "text/html",
		"Referer": ecBaseURL + "/",
	})
	if err != nil {
		return nil, err
	}
	if bytes.Contains(body, []byte("Just a moment")) {
		return nil, fmt.Errorf("EarthCorps calendar behind bot protection: %s", url)
	}
	return e.Parse(body)
}

var ecEventsRe = regexp.MustCompile(`(?s)var events_by_date = (\{.*?\});`)

// Parse extracts events from the calendar HTML.
func (e *EarthCorps) Parse(html []byte) ([]event.SourceEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing EarthCorps calendar HTML: %w", err)
	}
	year, month := ecYearMonth(doc, e.now())

	match := ecEventsRe.FindSubmatch(html)
	if match == nil {
		return nil, nil
	}
	var byDate map[string]struct {
		Events []ecEvent `json:"events"`
	}
	if err := json.Unmarshal(match[1], &byDate); err != nil {
		return nil, fmt.Errorf("parsing EarthCorps calendar data: %w", err)
	}

	days := make([]int, 0, len(byDate))
	dayKeys := make(map[int]string, len(byDate))
	for key := range byDate {
		day, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		days = append(days, day)
		dayKeys[day] = key
	}
	sort.Ints(days)

	var events []event.SourceEvent
	for _, day := range days {
		for _, raw := range byDate[dayKeys[day]].Events {
			title := strings.TrimSpace(raw.Name)
			if raw.ID == "" || title == "" {
				continue
			}

			start := ecStart(raw, year, month, day)
			duration := time.Duration(float64(raw.Duration) * float64(time.Hour))
			if duration <= 0 {
				duration = ecDefaultDuration
			}

			events = append(events, event.SourceEvent{
				Source:   ecSource,
				SourceID: raw.ID,
				Title:    title,
				Timing:   event.TimedSpan(start, start.Add(duration)),
				Venue:    ecVenue(title),
				URL:      normalizeURL(fmt.Sprintf("%s/volunteer/event/%s", ecBaseURL, raw.ID), ""),
			})
		}
	}

	return validFiltered(events), nil
}

var ecCalendarHrefRe = regexp.MustCompile(`/calendar/(\d{4})/(\d{1,2})/`)

// ecYearMonth recovers the displayed month from the previous-month
// navigation link, rolling December's successor into January of the next
// year. Pages without navigation fall back to now's month.
func ecYearMonth(doc *goquery.Document, now time.Time) (int, time.Month) {
	href, _ := doc.Find("div.month-nav a").First().Attr("href")
	if m := ecCalendarHrefRe.FindStringSubmatch(href); m != nil {
		year, _ := strconv.Atoi(m[1])
		prevMonth, _ := strconv.Atoi(m[2])
		month := prevMonth + 1
		if month > 12 {
			month = 1
			year++
		}
		return year, time.Month(month)
	}
	return now.Year(), now.Month()
}

// ecStart resolves an event's start instant. The StartDateTime string is
// preferred; otherwise the coarse startTime of day combines with the
// calendar position, defaulting to the usual 10am work-party start.
func ecStart(raw ecEvent, year int, month time.Month, day int) time.Time {
	if raw.StartDateTime != "" {
		if t, err := time.ParseInLocation("1/2/2006 3:04 PM", raw.StartDateTime, SeattleTZ); err == nil {
			return t.UTC()
		}
	}
	hour, minute := 10, 0
	if clock, err := parseClockTime(raw.StartTime); err == nil {
		hour, minute = clock.Hour(), clock.Minute()
	}
	return time.Date(year, month, day, hour, minute, 0, 0, SeattleTZ).UTC()
}

// ecVenue pulls a venue name out of titles like
// "Magnuson Park: Habitat Restoration"; titles without a colon read as the
// venue themselves.
func ecVenue(title string) string {
	if before, _, ok := strings.Cut(title, ":"); ok {
		if v := strings.TrimSpace(before); v != "" {
			return v
		}
	}
	return title
}

func (e *EarthCorps) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
