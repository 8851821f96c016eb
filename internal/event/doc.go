// Package event defines the data model shared by every stage of the
// aggregator: source events as emitted by the per-source extractors,
// canonical events produced by deduplication, and the timing representation
// used by both.
//
// A source event is identified by its (source, source_id) pair, rendered as
// a "source:source_id" ref string when events are tracked across tables.
// Timing is an explicit tagged value: a timed span or an all-day date. The
// upstream sources encode "date only" as a zero-duration span; that legacy
// convention is interpreted at the edges (TimingFromInstants) and never
// leaks into the rest of the codebase.
package event
