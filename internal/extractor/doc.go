// Package extractor fetches event listings from each upstream source and
// normalizes them into the common SourceEvent schema.
//
// Each source publishes a different shape: GSP exposes an HTML calendar,
// SPR an RSS feed, DNDA a JSON API, and MAN reads manually-maintained
// recurring events from a YAML file. One extractor per source; all of them
// emit validated, UTC-normalized events and nothing else. Fetching goes
// through a shared Client that throttles per host and retries transient
// failures with exponential backoff.
package extractor
