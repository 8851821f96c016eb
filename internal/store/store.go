package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mkoster/parkwork/internal/event"
)

// Store wraps the SQLite database holding all aggregator state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with WAL mode and foreign
// keys enabled, and initializes the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS source_events (
	source TEXT NOT NULL,
	source_id TEXT NOT NULL,
	title TEXT NOT NULL,
	start_utc TEXT NOT NULL,
	end_utc TEXT NOT NULL,
	all_day INTEGER NOT NULL DEFAULT 0,
	venue TEXT,
	address TEXT,
	cost TEXT,
	latitude REAL,
	longitude REAL,
	tags TEXT,
	url TEXT NOT NULL,
	same_as TEXT,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (source, source_id)
);

CREATE TABLE IF NOT EXISTS canonical_events (
	canonical_id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	start_utc TEXT NOT NULL,
	end_utc TEXT NOT NULL,
	all_day INTEGER NOT NULL DEFAULT 0,
	venue TEXT,
	address TEXT,
	cost TEXT,
	latitude REAL,
	longitude REAL,
	tags TEXT,
	url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_group_memberships (
	canonical_id TEXT NOT NULL,
	source TEXT NOT NULL,
	source_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (canonical_id, source, source_id)
);

CREATE TABLE IF NOT EXISTS etl_runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	num_rows INTEGER NOT NULL,
	ran_at TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Reset drops all tables and recreates the schema.
func (s *Store) Reset(ctx context.Context) error {
	drop := `
DROP TABLE IF EXISTS source_events;
DROP TABLE IF EXISTS canonical_events;
DROP TABLE IF EXISTS event_group_memberships;
DROP TABLE IF EXISTS etl_runs;
`
	if _, err := s.db.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	return initSchema(ctx, s.db)
}

// UpsertSourceEvents inserts or updates events keyed on (source, source_id).
func (s *Store) UpsertSourceEvents(ctx context.Context, events []event.SourceEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO source_events
	(source, source_id, title, start_utc, end_utc, all_day, venue, address, cost,
	 latitude, longitude, tags, url, same_as, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source, source_id) DO UPDATE SET
	title = excluded.title,
	start_utc = excluded.start_utc,
	end_utc = excluded.end_utc,
	all_day = excluded.all_day,
	venue = excluded.venue,
	address = excluded.address,
	cost = excluded.cost,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	tags = excluded.tags,
	url = excluded.url,
	same_as = excluded.same_as,
	updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range events {
		evt := &events[i]
		_, err := stmt.ExecContext(ctx,
			evt.Source, evt.SourceID, evt.Title,
			evt.Timing.Start.UTC().Format(time.RFC3339),
			evt.Timing.End.UTC().Format(time.RFC3339),
			boolToInt(evt.Timing.AllDay),
			nullable(evt.Venue), nullable(evt.Address), nullable(evt.Cost),
			evt.Latitude, evt.Longitude,
			joinTags(evt.Tags), evt.URL, nullable(evt.SameAs), now)
		if err != nil {
			return fmt.Errorf("upserting %s: %w", evt.Ref(), err)
		}
	}

	return tx.Commit()
}

// SourceEvents returns every stored source event, ordered by source then
// source ID for determinism.
func (s *Store) SourceEvents(ctx context.Context) ([]event.SourceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source, source_id, title, start_utc, end_utc, all_day, venue, address, cost,
       latitude, longitude, tags, url, same_as
FROM source_events
ORDER BY source, source_id`)
	if err != nil {
		return nil, fmt.Errorf("querying source events: %w", err)
	}
	defer rows.Close()

	var events []event.SourceEvent
	for rows.Next() {
		evt, err := scanSourceEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// SourceRefs returns the set of "source:source_id" refs currently stored.
func (s *Store) SourceRefs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, source_id FROM source_events`)
	if err != nil {
		return nil, fmt.Errorf("querying source refs: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]bool)
	for rows.Next() {
		var source, sourceID string
		if err := rows.Scan(&source, &sourceID); err != nil {
			return nil, err
		}
		refs[source+":"+sourceID] = true
	}
	return refs, rows.Err()
}

// ReplaceCanonical atomically replaces all canonical events and group
// memberships with the output of a canonicalization pass. Stale canonical
// IDs from previous runs disappear with the delete.
func (s *Store) ReplaceCanonical(ctx context.Context, events []event.CanonicalEvent, membership map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning canonical replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM canonical_events`); err != nil {
		return fmt.Errorf("clearing canonical events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_group_memberships`); err != nil {
		return fmt.Errorf("clearing memberships: %w", err)
	}

	insertEvent, err := tx.PrepareContext(ctx, `
INSERT INTO canonical_events
	(canonical_id, title, start_utc, end_utc, all_day, venue, address, cost,
	 latitude, longitude, tags, url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing canonical insert: %w", err)
	}
	defer insertEvent.Close()

	insertMember, err := tx.PrepareContext(ctx, `
INSERT INTO event_group_memberships (canonical_id, source, source_id, position)
VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing membership insert: %w", err)
	}
	defer insertMember.Close()

	for i := range events {
		ce := &events[i]
		_, err := insertEvent.ExecContext(ctx,
			ce.CanonicalID, ce.Title,
			ce.Timing.Start.UTC().Format(time.RFC3339),
			ce.Timing.End.UTC().Format(time.RFC3339),
			boolToInt(ce.Timing.AllDay),
			nullable(ce.Venue), nullable(ce.Address), nullable(ce.Cost),
			ce.Latitude, ce.Longitude, joinTags(ce.Tags), ce.URL)
		if err != nil {
			return fmt.Errorf("inserting canonical %s: %w", ce.CanonicalID, err)
		}

		for pos, ref := range ce.SourceEvents {
			source, sourceID, err := event.SplitRef(ref)
			if err != nil {
				return err
			}
			if got := membership[ref]; got != ce.CanonicalID {
				return fmt.Errorf("membership for %s maps to %q, expected %q", ref, got, ce.CanonicalID)
			}
			if _, err := insertMember.ExecContext(ctx, ce.CanonicalID, source, sourceID, pos); err != nil {
				return fmt.Errorf("inserting membership %s: %w", ref, err)
			}
		}
	}

	return tx.Commit()
}

// CanonicalEvents returns every canonical event with its membership refs
// reassembled, ordered by start time.
func (s *Store) CanonicalEvents(ctx context.Context) ([]event.CanonicalEvent, error) {
	return s.canonicalEvents(ctx, "")
}

// FutureCanonicalEvents returns canonical events that have not ended yet.
func (s *Store) FutureCanonicalEvents(ctx context.Context, now time.Time) ([]event.CanonicalEvent, error) {
	return s.canonicalEvents(ctx, now.UTC().Format(time.RFC3339))
}

func (s *Store) canonicalEvents(ctx context.Context, endAfter string) ([]event.CanonicalEvent, error) {
	query := `
SELECT canonical_id, title, start_utc, end_utc, all_day, venue, address, cost,
       latitude, longitude, tags, url
FROM canonical_events`
	var args []any
	if endAfter != "" {
		query += ` WHERE end_utc >= ?`
		args = append(args, endAfter)
	}
	query += ` ORDER BY start_utc, canonical_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying canonical events: %w", err)
	}
	defer rows.Close()

	var events []event.CanonicalEvent
	index := make(map[string]int)
	for rows.Next() {
		var ce event.CanonicalEvent
		var start, end string
		var allDay int
		var venue, address, cost, tags sql.NullString
		if err := rows.Scan(&ce.CanonicalID, &ce.Title, &start, &end, &allDay,
			&venue, &address, &cost, &ce.Latitude, &ce.Longitude, &tags, &ce.URL); err != nil {
			return nil, err
		}
		timing, err := parseTiming(start, end, allDay)
		if err != nil {
			return nil, fmt.Errorf("canonical %s: %w", ce.CanonicalID, err)
		}
		ce.Timing = timing
		ce.Venue = venue.String
		ce.Address = address.String
		ce.Cost = cost.String
		ce.Tags = splitTags(tags.String)
		index[ce.CanonicalID] = len(events)
		events = append(events, ce)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := s.db.QueryContext(ctx, `
SELECT canonical_id, source, source_id
FROM event_group_memberships
ORDER BY canonical_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer members.Close()

	for members.Next() {
		var canonicalID, source, sourceID string
		if err := members.Scan(&canonicalID, &source, &sourceID); err != nil {
			return nil, err
		}
		if i, ok := index[canonicalID]; ok {
			events[i].SourceEvents = append(events[i].SourceEvents, source+":"+sourceID)
		}
	}
	return events, members.Err()
}

// RunRecord is one row of the ETL run log.
type RunRecord struct {
	ID      string
	Source  string
	Status  string
	NumRows int
	RanAt   time.Time
}

// RecordRun appends an entry to the ETL run log.
func (s *Store) RecordRun(ctx context.Context, source, status string, numRows int) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO etl_runs (id, source, status, num_rows, ran_at)
VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), source, status, numRows,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// RecentRuns returns run log entries from the last N days, newest first.
func (s *Store) RecentRuns(ctx context.Context, days int) ([]RunRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source, status, num_rows, ran_at
FROM etl_runs
WHERE ran_at >= ?
ORDER BY ran_at DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var ranAt string
		if err := rows.Scan(&run.ID, &run.Source, &run.Status, &run.NumRows, &ranAt); err != nil {
			return nil, err
		}
		run.RanAt, err = time.Parse(time.RFC3339, ranAt)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSourceEvent(row rowScanner) (event.SourceEvent, error) {
	var evt event.SourceEvent
	var start, end string
	var allDay int
	var venue, address, cost, tags, sameAs sql.NullString
	if err := row.Scan(&evt.Source, &evt.SourceID, &evt.Title, &start, &end, &allDay,
		&venue, &address, &cost, &evt.Latitude, &evt.Longitude, &tags, &evt.URL, &sameAs); err != nil {
		return event.SourceEvent{}, err
	}
	timing, err := parseTiming(start, end, allDay)
	if err != nil {
		return event.SourceEvent{}, fmt.Errorf("source event %s: %w", evt.Ref(), err)
	}
	evt.Timing = timing
	evt.Venue = venue.String
	evt.Address = address.String
	evt.Cost = cost.String
	evt.Tags = splitTags(tags.String)
	evt.SameAs = sameAs.String
	return evt, nil
}

func parseTiming(start, end string, allDay int) (event.Timing, error) {
	startT, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return event.Timing{}, fmt.Errorf("bad start %q: %w", start, err)
	}
	endT, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return event.Timing{}, fmt.Errorf("bad end %q: %w", end, err)
	}
	if allDay != 0 {
		return event.Timing{Start: startT, End: endT, AllDay: true}, nil
	}
	// Rows written before the all-day column carry the zero-duration
	// convention.
	return event.TimingFromInstants(startT, endT), nil
}

// Tags are stored as a JSON array so a tag containing a comma survives the
// round trip. Rows written by earlier versions hold a comma-joined list;
// splitTags still reads those.
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return ""
	}
	return string(data)
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags
		}
	}
	return strings.Split(raw, ",")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
