package dedup

import (
	"time"

	"github.com/mkoster/parkwork/internal/event"
)

// Membership maps "source:source_id" refs to the canonical ID each listing
// was folded into. After a canonicalization pass every source event appears
// exactly once.
type Membership map[string]string

// Canonicalizer collapses source listings into canonical records. The
// blocking implementation below is the shipped strategy; a probabilistic
// record-linkage strategy would satisfy the same contract.
type Canonicalizer interface {
	Canonicalize(events []event.SourceEvent) ([]event.CanonicalEvent, Membership, error)
}

// BlockCanonicalizer implements Canonicalizer with exact-match blocking on
// (normalized title, calendar date) followed by per-group reconciliation.
// It is a pure batch computation: deterministic, no I/O, and idempotent, so
// callers can safely full-replace stored canonical records with its output.
type BlockCanonicalizer struct {
	// Location is the reference timezone for calendar dates. Defaults to
	// UTC when nil; in practice this should be the publishers' local
	// timezone so evening events block with their date-only duplicates.
	Location *time.Location

	Reconciler Reconciler
}

// NewBlockCanonicalizer creates the standard blocking canonicalizer.
func NewBlockCanonicalizer(loc *time.Location, preferredHosts []string) *BlockCanonicalizer {
	return &BlockCanonicalizer{
		Location:   loc,
		Reconciler: Reconciler{PreferredHosts: preferredHosts},
	}
}

// Canonicalize groups events by blocking key and reconciles each group.
// Returns one canonical event per group (singleton groups included) plus
// the full membership mapping. Output order follows first-seen key order;
// callers sort for display.
func (c *BlockCanonicalizer) Canonicalize(events []event.SourceEvent) ([]event.CanonicalEvent, Membership, error) {
	groups := GroupByBlockKey(events, c.Location)

	canonical := make([]event.CanonicalEvent, 0, len(groups))
	membership := make(Membership, len(events))

	for _, group := range groups {
		merged, err := c.Reconciler.Reconcile(group.Events, group.Key)
		if err != nil {
			return nil, nil, err
		}
		canonical = append(canonical, merged)
		for i := range group.Events {
			membership[group.Events[i].Ref()] = merged.CanonicalID
		}
	}

	return canonical, membership, nil
}
