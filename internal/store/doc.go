// Package store persists source events, canonical events, and the
// membership mapping between them in a single SQLite database.
//
// Source events are upserted per fetch cycle and never deleted. Canonical
// events are written with full-replace semantics: one transaction clears
// the canonical and membership tables and reinserts the complete result of
// a canonicalization pass. Group membership is not stable incrementally,
// so partial updates would leave stale merges behind.
package store
