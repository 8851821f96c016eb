package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

// writeCalendar writes every event into one iCalendar feed.
func (g *Generator) writeCalendar(events []event.CanonicalEvent) error {
	path := filepath.Join(g.Dir, "events.ics")
	contents := GenerateICS(events, g.now())
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// GenerateICS renders a multi-event iCalendar document.
func GenerateICS(events []event.CanonicalEvent, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//parkwork//parkwork//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	stamp := formatICSTime(now)
	for i := range events {
		writeVEvent(&ics, &events[i], stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeVEvent(ics *strings.Builder, ce *event.CanonicalEvent, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(ics, "UID:%s@parkwork\r\n", ce.CanonicalID)
	fmt.Fprintf(ics, "DTSTAMP:%s\r\n", stamp)

	if ce.Timing.AllDay {
		// Date-only events become all-day entries ending the next day.
		start := ce.Timing.Start
		fmt.Fprintf(ics, "DTSTART;VALUE=DATE:%s\r\n", start.Format("20060102"))
		fmt.Fprintf(ics, "DTEND;VALUE=DATE:%s\r\n", start.AddDate(0, 0, 1).Format("20060102"))
	} else {
		fmt.Fprintf(ics, "DTSTART:%s\r\n", formatICSTime(ce.Timing.Start))
		fmt.Fprintf(ics, "DTEND:%s\r\n", formatICSTime(ce.Timing.End))
	}

	fmt.Fprintf(ics, "SUMMARY:%s\r\n", escapeICS(ce.Title))

	var description []string
	if ce.Cost != "" {
		description = append(description, "Cost: "+ce.Cost)
	}
	if len(ce.Tags) > 0 {
		description = append(description, "Tags: "+strings.Join(ce.Tags, ", "))
	}
	description = append(description, "Details: "+ce.URL)
	fmt.Fprintf(ics, "DESCRIPTION:%s\r\n", escapeICS(strings.Join(description, "\n")))

	if location := icsLocation(ce); location != "" {
		fmt.Fprintf(ics, "LOCATION:%s\r\n", escapeICS(location))
	}

	fmt.Fprintf(ics, "URL:%s\r\n", ce.URL)
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

func icsLocation(ce *event.CanonicalEvent) string {
	switch {
	case ce.Venue != "" && ce.Address != "":
		return ce.Venue + ", " + ce.Address
	case ce.Venue != "":
		return ce.Venue
	default:
		return ce.Address
	}
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters per RFC 5545
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
