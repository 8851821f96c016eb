// Package cli implements the command-line interface for parkwork.
//
// The cli package provides the Cobra-based CLI with subcommands for
// initializing the database, running the fetch-and-deduplicate pipeline,
// rebuilding the canonical event list, listing events with filters
// (text/JSON output), and generating the static site. It coordinates the
// extractor, dedup, store, and site packages.
package cli
