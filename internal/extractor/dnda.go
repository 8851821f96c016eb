package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

const (
	dndaSource  = "DNDA"
	dndaBaseURL = "https://dnda.org/wp-json/mec/v1/events"
	// dndaWindowDays bounds the requested date range.
	dndaWindowDays = 90
)

// DNDA extracts volunteer events from the Delridge Neighborhoods
// Development Association JSON API. Timestamps arrive as ISO strings with
// a Pacific offset; cancelled events carry a cancellation reason and are
// skipped.
type DNDA struct {
	Now func() time.Time
}

type dndaEvent struct {
	ID                    int    `json:"id"`
	Title                 string `json:"title"`
	Start                 string `json:"start"` // "2025-08-09T10:00:00-07:00"
	End                   string `json:"end"`
	URL                   string `json:"url"`
	Location              string `json:"location"`
	Labels                string `json:"labels"`
	ReasonForCancellation string `json:"reason_for_cancellation"`
}

func (d *DNDA) Source() string { return dndaSource }

// Fetch retrieves the events API for the upcoming window.
func (d *DNDA) Fetch(ctx context.Context, client *Client) ([]event.SourceEvent, error) {
	now := d.now()
	url := fmt.Sprintf("%s?start=%s&end=%s", dndaBaseURL,
		now.Format("2006-01-02"), now.AddDate(0, 0, dndaWindowDays).Format("2006-01-02"))

	body, err := client.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return d.Parse(body)
}

// Parse extracts events from the API response.
func (d *DNDA) Parse(data []byte) ([]event.SourceEvent, error) {
	var rows []dndaEvent
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing DNDA response: %w", err)
	}

	events := make([]event.SourceEvent, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.ReasonForCancellation) != "" {
			continue
		}

		start, err := time.Parse(time.RFC3339, row.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, row.End)
		if err != nil {
			continue
		}

		var tags []string
		for _, label := range strings.Split(row.Labels, ",") {
			if label = strings.TrimSpace(label); label != "" {
				tags = append(tags, label)
			}
		}

		events = append(events, event.SourceEvent{
			Source:   dndaSource,
			SourceID: strconv.Itoa(row.ID),
			Title:    strings.TrimSpace(row.Title),
			Timing:   event.TimedSpan(start, end),
			Address:  strings.TrimSpace(row.Location),
			URL:      normalizeURL(strings.TrimSpace(row.URL), dndaBaseURL),
			Tags:     tags,
		})
	}

	return validFiltered(events), nil
}

func (d *DNDA) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
