package extractor

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mkoster/parkwork/internal/event"
	"github.com/mkoster/parkwork/internal/logger"
)

// Extractor turns one source's published documents into SourceEvents.
type Extractor interface {
	// Source returns the short code identifying this publisher
	// (e.g. "GSP", "SPR").
	Source() string
	// Fetch retrieves and parses the source's current listings. Only
	// events passing event.Validate are returned.
	Fetch(ctx context.Context, client *Client) ([]event.SourceEvent, error)
}

// SeattleTZ is the publishers' local timezone; listings are published in
// Pacific time and converted to UTC on the way in.
var SeattleTZ = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// normalizeURL canonicalizes an event URL for storage and comparison:
// https scheme, lowercased host, no trailing slash. Relative URLs are
// resolved against base.
func normalizeURL(rawURL, base string) string {
	if strings.HasPrefix(rawURL, "/") {
		if u, err := url.Parse(base); err == nil {
			rawURL = u.Scheme + "://" + u.Host + rawURL
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Scheme == "" || u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// validFiltered drops events that fail the extractor-layer preconditions so
// malformed listings never reach dedup or storage. Each drop is logged with
// its source ref; a source must never shrink silently.
func validFiltered(events []event.SourceEvent) []event.SourceEvent {
	valid := events[:0]
	for _, evt := range events {
		if err := evt.Validate(); err != nil {
			logger.Warn("dropping invalid listing", logger.Fields{
				"source": evt.Source,
				"ref":    evt.Ref(),
				"error":  err.Error(),
			})
			continue
		}
		valid = append(valid, evt)
	}
	return valid
}
