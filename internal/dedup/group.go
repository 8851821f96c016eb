package dedup

import (
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

// BlockKey is the exact-match blocking key: two listings group together iff
// both the normalized title and the calendar date match.
type BlockKey struct {
	NormalizedTitle string
	// Date is the calendar date of the event start in the reference
	// location, formatted 2006-01-02. A timed listing and a date-only
	// listing of the same day produce the same Date.
	Date string
}

// Group is one blocking-key equivalence class. Never empty.
type Group struct {
	Key    BlockKey
	Events []event.SourceEvent
}

// GroupByBlockKey partitions events into groups sharing a blocking key.
// Every input event lands in exactly one group. Groups are returned in
// first-seen key order so results are stable across runs; within a group,
// input order is preserved.
func GroupByBlockKey(events []event.SourceEvent, loc *time.Location) []Group {
	if loc == nil {
		loc = time.UTC
	}

	index := make(map[BlockKey]int, len(events))
	groups := make([]Group, 0, len(events))

	for _, evt := range events {
		key := BlockKey{
			NormalizedTitle: NormalizeTitle(evt.Title),
			Date:            evt.Timing.Date(loc).Format("2006-01-02"),
		}
		if i, ok := index[key]; ok {
			groups[i].Events = append(groups[i].Events, evt)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Events: []event.SourceEvent{evt}})
	}

	return groups
}
