package extractor

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

const (
	sprSource  = "SPR"
	sprFeedURL = "https://www.seattle.gov/parks/volunteer/events.rss"
)

// SPR extracts volunteer events from the Seattle Parks & Recreation RSS
// feed. Item descriptions open with a date line like
// "Sunday, August 3, 2025, 8&nbsp;&ndash;&nbsp;11am" followed by the venue
// and details; titles sometimes arrive with HTML entities intact. An item
// may link to the matching Green Seattle Partnership registration page,
// which becomes the event's same-as hint.
type SPR struct {
	Now func() time.Time
}

type sprFeed struct {
	Channel struct {
		Items []sprItem `xml:"item"`
	} `xml:"channel"`
}

type sprItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	Category    string `xml:"category"`
	// Source is the optional cross-publisher registration link.
	Source struct {
		URL string `xml:"url,attr"`
	} `xml:"source"`
}

func (s *SPR) Source() string { return sprSource }

// Fetch retrieves and parses the RSS feed.
func (s *SPR) Fetch(ctx context.Context, client *Client) ([]event.SourceEvent, error) {
	body, err := client.Get(ctx, sprFeedURL, map[string]string{"Accept": "application/rss+xml"})
	if err != nil {
		return nil, err
	}
	return s.Parse(body)
}

// Parse extracts events from the RSS document.
func (s *SPR) Parse(data []byte) ([]event.SourceEvent, error) {
	var feed sprFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parsing SPR feed: %w", err)
	}

	now := s.now()
	events := make([]event.SourceEvent, 0, len(feed.Channel.Items))

	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(item.Title)
		link := normalizeURL(strings.TrimSpace(item.Link), sprFeedURL)

		sourceID := strings.TrimSpace(item.GUID)
		if sourceID == "" {
			sourceID = fallbackSourceID(title)
		}

		timing, venue, err := parseSPRDescription(item.Description, now)
		if err != nil {
			continue
		}

		var tags []string
		if c := strings.TrimSpace(item.Category); c != "" {
			tags = append(tags, c)
		}

		events = append(events, event.SourceEvent{
			Source:   sprSource,
			SourceID: sourceID,
			Title:    title,
			Timing:   timing,
			Venue:    venue,
			URL:      link,
			SameAs:   strings.TrimSpace(item.Source.URL),
			Tags:     tags,
		})
	}

	return validFiltered(events), nil
}

// parseSPRDescription reads the leading date line of an item description.
// Format: "Sunday, August 3, 2025, 8&nbsp;&ndash;&nbsp;11am" optionally
// followed by "at <venue>" on the next line. A date line without a time
// range produces a date-only event.
func parseSPRDescription(desc string, now time.Time) (event.Timing, string, error) {
	lines := strings.Split(strings.TrimSpace(desc), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return event.Timing{}, "", fmt.Errorf("empty SPR description")
	}
	dateLine := strings.TrimSpace(lines[0])

	venue := ""
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "at "); ok {
			venue = strings.TrimSpace(rest)
			break
		}
	}

	// The time range follows the year: "..., 2025, 8 - 11am".
	parts := strings.Split(dateLine, ", ")
	if len(parts) >= 4 {
		dateStr := strings.Join(parts[:3], ", ")
		day, err := parseDayDate(dateStr, now)
		if err != nil {
			return event.Timing{}, "", err
		}
		start, end, err := parseTimeRange(strings.Join(parts[3:], ", "))
		if err != nil {
			return event.Timing{}, "", err
		}
		return event.TimedSpan(
			combineLocal(day, start, SeattleTZ),
			combineLocal(day, end, SeattleTZ),
		), venue, nil
	}

	day, err := parseDayDate(dateLine, now)
	if err != nil {
		return event.Timing{}, "", err
	}
	return event.DateOnly(day.Year(), day.Month(), day.Day(), SeattleTZ), venue, nil
}

func (s *SPR) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
