// Package site renders the canonical event list as a static website: an
// index.html listing plus an events.ics calendar feed.
package site

import (
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

// Generator writes the static site for a set of canonical events.
type Generator struct {
	// Dir is the output directory, created if missing.
	Dir string
	// Location is the timezone events are displayed in.
	Location *time.Location
	// Now stamps the generated pages; nil means time.Now.
	Now func() time.Time
}

// Generate writes index.html and events.ics into the output directory.
// Events should already be filtered and sorted by the caller.
func (g *Generator) Generate(events []event.CanonicalEvent) error {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return fmt.Errorf("creating site directory: %w", err)
	}

	if err := g.writeIndex(events); err != nil {
		return err
	}
	return g.writeCalendar(events)
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// eventView is the template-facing shape of one canonical event.
type eventView struct {
	Title   string
	When    string
	Venue   string
	Address string
	Cost    string
	Tags    []string
	URL     string
	MapsURL string
	Sources int
}

func (g *Generator) writeIndex(events []event.CanonicalEvent) error {
	views := make([]eventView, 0, len(events))
	for i := range events {
		views = append(views, g.viewOf(&events[i]))
	}

	data := struct {
		GeneratedAt string
		Events      []eventView
	}{
		GeneratedAt: g.now().In(g.Location).Format("January 2, 2006 3:04pm MST"),
		Events:      views,
	}

	path := filepath.Join(g.Dir, "index.html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := indexTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("rendering index: %w", err)
	}
	return nil
}

func (g *Generator) viewOf(ce *event.CanonicalEvent) eventView {
	return eventView{
		Title:   ce.Title,
		When:    formatWhen(ce.Timing, g.Location),
		Venue:   ce.Venue,
		Address: ce.Address,
		Cost:    ce.Cost,
		Tags:    ce.Tags,
		URL:     ce.URL,
		MapsURL: mapsURL(ce),
		Sources: len(ce.SourceEvents),
	}
}

// formatWhen renders a timing for display in loc. All-day events show only
// the date.
func formatWhen(t event.Timing, loc *time.Location) string {
	start := t.Start.In(loc)
	if t.AllDay {
		return start.Format("Monday, January 2, 2006")
	}
	end := t.End.In(loc)
	day := start.Format("Monday, January 2, 2006")
	if start.Format("2006-01-02") == end.Format("2006-01-02") {
		return fmt.Sprintf("%s, %s - %s", day, start.Format("3:04pm"), end.Format("3:04pm"))
	}
	return fmt.Sprintf("%s %s - %s", day, start.Format("3:04pm"), end.In(loc).Format("Monday, January 2 3:04pm"))
}

// mapsURL builds a Google Maps link from coordinates when available,
// falling back to the address. Empty when neither is known.
func mapsURL(ce *event.CanonicalEvent) string {
	if ce.Latitude != nil && ce.Longitude != nil {
		return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f",
			*ce.Latitude, *ce.Longitude)
	}
	if ce.Address != "" {
		return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(ce.Address)
	}
	return ""
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Seattle Park Volunteer Events</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1 { font-size: 1.5rem; }
.event { border-bottom: 1px solid #ddd; padding: 1rem 0; }
.event h2 { font-size: 1.1rem; margin: 0 0 0.25rem; }
.when { color: #365; font-weight: 600; }
.meta { color: #555; font-size: 0.9rem; }
.tags span { background: #e5efe5; border-radius: 3px; padding: 0.1rem 0.4rem; margin-right: 0.3rem; font-size: 0.8rem; }
footer { margin-top: 2rem; color: #888; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>Seattle Park Volunteer Events</h1>
<p><a href="events.ics">Subscribe to the calendar feed</a></p>
{{range .Events}}<div class="event">
<h2><a href="{{.URL}}">{{.Title}}</a></h2>
<div class="when">{{.When}}</div>
{{if .Venue}}<div class="meta">{{.Venue}}{{if .MapsURL}} &middot; <a href="{{.MapsURL}}">map</a>{{end}}</div>{{end}}
{{if .Cost}}<div class="meta">Cost: {{.Cost}}</div>{{end}}
{{if .Tags}}<div class="tags">{{range .Tags}}<span>{{.}}</span>{{end}}</div>{{end}}
{{if gt .Sources 1}}<div class="meta">Listed by {{.Sources}} sources</div>{{end}}
</div>
{{else}}<p>No upcoming events.</p>
{{end}}<footer>Generated {{.GeneratedAt}}</footer>
</body>
</html>
`))
