package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoster/parkwork/internal/config"
	"github.com/mkoster/parkwork/internal/dedup"
	"github.com/mkoster/parkwork/internal/event"
	"github.com/mkoster/parkwork/internal/extractor"
	"github.com/mkoster/parkwork/internal/logger"
	"github.com/mkoster/parkwork/internal/store"
)

func newETLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "etl",
		Short: "Fetch all sources, store new events, and rebuild the canonical list",
		Long: `Run the full pipeline: fetch every enabled source, upsert the listings
into the database, report events seen for the first time, and rebuild
the deduplicated canonical event list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return runETL(cmd.Context(), cmd.OutOrStdout(), cfg, loc, st)
		},
	}
}

// allExtractors lists every known source in fetch order.
func allExtractors(cfg config.Config) []extractor.Extractor {
	return []extractor.Extractor{
		&extractor.GSP{},
		&extractor.SPR{},
		&extractor.SPU{},
		&extractor.EarthCorps{},
		&extractor.DNDA{},
		&extractor.Manual{Path: cfg.ManualEventsPath},
	}
}

func runETL(ctx context.Context, out io.Writer, cfg config.Config, loc *time.Location, st *store.Store) error {
	previousRefs, err := st.SourceRefs(ctx)
	if err != nil {
		return err
	}

	client := extractor.NewClient(cfg.FetchTimeout.Std(), cfg.FetchDelay.Std())

	var fetched []event.SourceEvent
	failures := 0
	for _, ex := range allExtractors(cfg) {
		source := ex.Source()
		if !cfg.SourceEnabled(source) {
			logger.Debug("source disabled", logger.Fields{"source": source})
			continue
		}

		events, err := ex.Fetch(ctx, client)
		if err != nil {
			logger.Error("fetch failed", logger.Fields{"source": source}, err)
			if recordErr := st.RecordRun(ctx, source, "error", 0); recordErr != nil {
				return recordErr
			}
			failures++
			continue
		}

		logger.Info("fetch complete", logger.Fields{"source": source, "events": len(events)})
		if err := st.RecordRun(ctx, source, "success", len(events)); err != nil {
			return err
		}
		fetched = append(fetched, events...)
	}

	if err := st.UpsertSourceEvents(ctx, fetched); err != nil {
		return err
	}

	diff := event.Diff(previousRefs, fetched)
	reportNewEvents(out, diff)

	canonical, err := rebuildCanonical(ctx, cfg, loc, st)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Canonical events: %d\n", len(canonical))

	if failures > 0 {
		return fmt.Errorf("%d source(s) failed to fetch", failures)
	}
	return nil
}

// reportNewEvents prints first-seen listings grouped by source.
func reportNewEvents(out io.Writer, diff *event.DiffResult) {
	if len(diff.NewEvents) == 0 {
		fmt.Fprintln(out, "No new events found.")
		return
	}

	for _, evt := range diff.NewEvents {
		fmt.Fprintf(out, "NEW (%s): %s\n", evt.Source, evt.Title)
	}
	fmt.Fprintf(out, "\nTotal: %d new across %d sources\n",
		len(diff.NewEvents), len(diff.BySource))
}

// rebuildCanonical reruns deduplication over everything stored and replaces
// the canonical tables with the result.
func rebuildCanonical(ctx context.Context, cfg config.Config, loc *time.Location, st *store.Store) ([]event.CanonicalEvent, error) {
	all, err := st.SourceEvents(ctx)
	if err != nil {
		return nil, err
	}

	canonicalizer := dedup.NewBlockCanonicalizer(loc, cfg.PreferredHosts)
	canonical, membership, err := canonicalizer.Canonicalize(all)
	if err != nil {
		return nil, err
	}

	if err := st.ReplaceCanonical(ctx, canonical, membership); err != nil {
		return nil, err
	}

	merged := 0
	for i := range canonical {
		if canonical[i].IsMerged() {
			merged++
		}
	}
	logger.Info("canonicalization complete", logger.Fields{
		"source_events":    len(all),
		"canonical_events": len(canonical),
		"merged_groups":    merged,
	})
	return canonical, nil
}
