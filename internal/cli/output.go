package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ListResult contains data to be output by the list command.
type ListResult struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Filter      string                 `json:"filter,omitempty"`
	Events      []event.CanonicalEvent `json:"events"`
	EventCount  int                    `json:"event_count"`
}

// WriteListOutput writes the result in the specified format.
func WriteListOutput(w io.Writer, result *ListResult, format OutputFormat, loc *time.Location) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case FormatText:
		return writeListText(w, result, loc)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeListText(w io.Writer, result *ListResult, loc *time.Location) error {
	if result.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n\n", result.Filter)
	}

	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for i := range result.Events {
		ce := &result.Events[i]
		fmt.Fprintf(w, "%s  %s\n", formatListTiming(ce.Timing, loc), ce.Title)
		if ce.Venue != "" {
			fmt.Fprintf(w, "%*s%s\n", timingWidth+2, "", ce.Venue)
		}
		details := []string{ce.URL}
		if ce.Cost != "" {
			details = append([]string{"Cost: " + ce.Cost}, details...)
		}
		if ce.IsMerged() {
			details = append(details, fmt.Sprintf("(%d listings)", len(ce.SourceEvents)))
		}
		fmt.Fprintf(w, "%*s%s\n", timingWidth+2, "", strings.Join(details, "  "))
	}

	fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)
	return nil
}

// timingWidth keeps the detail lines aligned under the title column.
const timingWidth = len("Mon Jan 02  3:04pm-12:04pm")

func formatListTiming(t event.Timing, loc *time.Location) string {
	start := t.Start.In(loc)
	day := start.Format("Mon Jan 02")
	if t.AllDay {
		return fmt.Sprintf("%-*s", timingWidth, day+"  all day")
	}
	span := fmt.Sprintf("%s-%s", start.Format("3:04pm"), t.End.In(loc).Format("3:04pm"))
	return fmt.Sprintf("%-*s", timingWidth, day+"  "+span)
}
