package event

import "sort"

// DiffResult reports which fetched source events were not previously stored.
type DiffResult struct {
	NewEvents []SourceEvent
	BySource  map[string][]SourceEvent
}

// Diff compares freshly fetched events against the set of refs already in
// storage and returns the listings seen for the first time, grouped by
// source. Output order is deterministic: sorted by source, then source ID.
func Diff(previousRefs map[string]bool, current []SourceEvent) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]SourceEvent, 0),
		BySource:  make(map[string][]SourceEvent),
	}

	for _, evt := range current {
		if previousRefs[evt.Ref()] {
			continue
		}
		result.NewEvents = append(result.NewEvents, evt)
		result.BySource[evt.Source] = append(result.BySource[evt.Source], evt)
	}

	sort.Slice(result.NewEvents, func(i, j int) bool {
		if result.NewEvents[i].Source != result.NewEvents[j].Source {
			return result.NewEvents[i].Source < result.NewEvents[j].Source
		}
		return result.NewEvents[i].SourceID < result.NewEvents[j].SourceID
	})
	for source := range result.BySource {
		events := result.BySource[source]
		sort.Slice(events, func(i, j int) bool {
			return events[i].SourceID < events[j].SourceID
		})
	}

	return result
}
