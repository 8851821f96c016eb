package dedup

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mkoster/parkwork/internal/event"
)

// ErrEmptyGroup is returned when Reconcile is called on an empty group.
// Grouping never produces empty groups, so hitting this is a caller bug.
var ErrEmptyGroup = errors.New("cannot reconcile an empty group")

// GenerateCanonicalID derives a stable identifier from the blocking key.
// It depends only on the key, never on group membership, so the ID survives
// a listing joining or leaving the group between runs.
func GenerateCanonicalID(normalizedTitle, date string) string {
	h := sha1.New()
	h.Write([]byte(normalizedTitle + ":" + date))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Reconciler merges one equivalence group into a canonical event.
//
// PreferredHosts lists hostnames considered authoritative for the canonical
// URL: if any group member's URL lives on a preferred host, that URL wins
// regardless of how often other URLs appear. The restoration calendar that
// hosts registration is the usual entry.
type Reconciler struct {
	PreferredHosts []string
}

// Reconcile merges the group's members field by field. Two named selection
// strategies are used: mostFrequent (majority consensus, ties broken by
// first appearance) and firstNonEmpty (priority by arrival). Which fields
// use which is deliberate, not interchangeable.
func (r *Reconciler) Reconcile(group []event.SourceEvent, key BlockKey) (event.CanonicalEvent, error) {
	if len(group) == 0 {
		return event.CanonicalEvent{}, fmt.Errorf("reconcile %q/%s: %w", key.NormalizedTitle, key.Date, ErrEmptyGroup)
	}

	canonical := event.CanonicalEvent{
		CanonicalID: GenerateCanonicalID(key.NormalizedTitle, key.Date),
		// The exact title multiple sources agree on keeps its original
		// casing and punctuation; normalized text is only for matching.
		Title:  mostFrequent(titles(group)),
		Timing: reconcileTiming(group),
		Venue:  mostFrequent(venues(group)),
		URL:    r.reconcileURL(group),
		Tags:   tagUnion(group),
	}

	canonical.Address = firstNonEmpty(addresses(group))
	canonical.Cost = firstNonEmpty(costs(group))
	for _, evt := range group {
		if canonical.Latitude == nil && evt.Latitude != nil {
			canonical.Latitude = evt.Latitude
		}
		if canonical.Longitude == nil && evt.Longitude != nil {
			canonical.Longitude = evt.Longitude
		}
	}

	canonical.SourceEvents = make([]string, 0, len(group))
	for i := range group {
		canonical.SourceEvents = append(canonical.SourceEvents, group[i].Ref())
	}

	return canonical, nil
}

// reconcileTiming prefers the first member with real time-of-day info: a
// date-only listing carries strictly less information than a timed listing
// of the same event. Falls back to the first member when nobody has times.
func reconcileTiming(group []event.SourceEvent) event.Timing {
	for _, evt := range group {
		if evt.Timing.HasTimeOfDay() {
			return evt.Timing
		}
	}
	return group[0].Timing
}

// reconcileURL applies the preferred-host allowlist, then falls back to the
// most frequent URL among members.
func (r *Reconciler) reconcileURL(group []event.SourceEvent) string {
	for _, evt := range group {
		if r.isPreferred(evt.URL) {
			return evt.URL
		}
	}
	return mostFrequent(urls(group))
}

func (r *Reconciler) isPreferred(rawURL string) bool {
	if len(r.PreferredHosts) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, preferred := range r.PreferredHosts {
		if host == strings.ToLower(preferred) {
			return true
		}
	}
	return false
}

// mostFrequent returns the value appearing most often among the non-empty
// values, ties broken by first appearance. Returns "" when every value is
// empty.
func mostFrequent(values []string) string {
	counts := make(map[string]int, len(values))
	best := ""
	bestCount := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// firstNonEmpty returns the first non-empty value in order. Used for fields
// that are usually unique within a group, where majority voting buys
// nothing.
func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// tagUnion returns the deduplicated union of every member's tags, sorted
// for determinism.
func tagUnion(group []event.SourceEvent) []string {
	seen := make(map[string]bool)
	for _, evt := range group {
		for _, tag := range evt.Tags {
			if tag != "" {
				seen[tag] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func titles(group []event.SourceEvent) []string {
	out := make([]string, len(group))
	for i := range group {
		out[i] = group[i].Title
	}
	return out
}

func venues(group []event.SourceEvent) []string {
	out := make([]string, len(group))
	for i := range group {
		out[i] = group[i].Venue
	}
	return out
}

func urls(group []event.SourceEvent) []string {
	out := make([]string, len(group))
	for i := range group {
		out[i] = group[i].URL
	}
	return out
}

func addresses(group []event.SourceEvent) []string {
	out := make([]string, len(group))
	for i := range group {
		out[i] = group[i].Address
	}
	return out
}

func costs(group []event.SourceEvent) []string {
	out := make([]string, len(group))
	for i := range group {
		out[i] = group[i].Cost
	}
	return out
}
