// Package dedup decides which source listings describe the same real-world
// event and merges each group into one canonical record.
//
// The shipped strategy is exact blocking: listings whose normalized titles
// and calendar dates match exactly land in the same group, and each group is
// reconciled field by field into a CanonicalEvent. Blocking trades recall
// for precision: a typo'd or reworded title will not merge. The
// Canonicalizer interface is the seam where a fuzzier record-linkage
// strategy could be swapped in without touching callers.
package dedup
