package dedup

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

func scenarioEvents() []event.SourceEvent {
	timed := timedEvent("SPR", "a", "Lincoln Park Work Party",
		time.Date(2025, time.July, 28, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC))
	dated := dateOnlyEvent("GSP", "b", "Lincoln Park: Work Party", 2025, time.July, 28)
	other := timedEvent("SPR", "c", "Green Lake Restoration",
		time.Date(2025, time.July, 29, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 29, 11, 0, 0, 0, time.UTC))
	return []event.SourceEvent{timed, dated, other}
}

func TestCanonicalize(t *testing.T) {
	c := NewBlockCanonicalizer(time.UTC, nil)

	canonical, membership, err := c.Canonicalize(scenarioEvents())
	if err != nil {
		t.Fatal(err)
	}

	if len(canonical) != 2 {
		t.Fatalf("expected 2 canonical events, got %d", len(canonical))
	}

	merged := canonical[0]
	if !merged.IsMerged() {
		t.Error("Lincoln Park group should merge two listings")
	}
	if merged.Timing.Start.Hour() != 10 || merged.Timing.End.Hour() != 12 {
		t.Errorf("merged timing should come from the timed listing, got %v - %v",
			merged.Timing.Start, merged.Timing.End)
	}

	if membership["SPR:a"] != merged.CanonicalID || membership["GSP:b"] != merged.CanonicalID {
		t.Error("both Lincoln Park listings should map to the merged record")
	}
	if membership["SPR:c"] != canonical[1].CanonicalID {
		t.Error("Green Lake listing should map to its singleton record")
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	c := NewBlockCanonicalizer(time.UTC, []string{"seattle.greencitypartnerships.org"})
	events := scenarioEvents()

	first, firstMembership, err := c.Canonicalize(events)
	if err != nil {
		t.Fatal(err)
	}
	second, secondMembership, err := c.Canonicalize(events)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("canonicalize is not idempotent: canonical events differ between runs")
	}
	if !reflect.DeepEqual(firstMembership, secondMembership) {
		t.Error("canonicalize is not idempotent: membership differs between runs")
	}
}

func TestCanonicalizePartitionTotality(t *testing.T) {
	c := NewBlockCanonicalizer(time.UTC, nil)
	events := scenarioEvents()

	canonical, membership, err := c.Canonicalize(events)
	if err != nil {
		t.Fatal(err)
	}

	// Union of source_events across canonical records equals the input
	// refs exactly: no duplicates, no omissions.
	var got []string
	for _, ce := range canonical {
		got = append(got, ce.SourceEvents...)
	}
	sort.Strings(got)

	var want []string
	for i := range events {
		want = append(want, events[i].Ref())
	}
	sort.Strings(want)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("partition not total: got %v, want %v", got, want)
	}

	if len(membership) != len(events) {
		t.Errorf("membership has %d entries, want %d", len(membership), len(events))
	}
	for _, refs := range want {
		if _, ok := membership[refs]; !ok {
			t.Errorf("membership missing ref %s", refs)
		}
	}
}

func TestCanonicalizeSingleton(t *testing.T) {
	c := NewBlockCanonicalizer(time.UTC, nil)

	only := timedEvent("SPR", "solo", "Seward Park Mulching",
		time.Date(2025, time.August, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.August, 3, 12, 0, 0, 0, time.UTC))

	canonical, membership, err := c.Canonicalize([]event.SourceEvent{only})
	if err != nil {
		t.Fatal(err)
	}

	if len(canonical) != 1 {
		t.Fatalf("a single-source event still canonicalizes, got %d records", len(canonical))
	}
	if canonical[0].Title != only.Title || canonical[0].URL != only.URL {
		t.Error("singleton canonical record should carry the listing's fields")
	}
	if membership[only.Ref()] != canonical[0].CanonicalID {
		t.Error("singleton membership mapping missing")
	}
}

func TestCanonicalizeEmptyInput(t *testing.T) {
	c := NewBlockCanonicalizer(time.UTC, nil)
	canonical, membership, err := c.Canonicalize(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(canonical) != 0 || len(membership) != 0 {
		t.Errorf("empty input should produce empty output, got %d records", len(canonical))
	}
}
