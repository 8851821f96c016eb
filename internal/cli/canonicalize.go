package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCanonicalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canonicalize",
		Short: "Rebuild the canonical event list from stored source events",
		Long: `Rerun deduplication over every stored source event without fetching
anything, replacing the canonical event list with the result. Useful
after editing the database or changing merge configuration. With
--verbose, the merged groups are listed.`,
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

			canonical, err := rebuildCanonical(cmd.Context(), cfg, loc, st)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			merged := 0
			for i := range canonical {
				ce := &canonical[i]
				if !ce.IsMerged() {
					continue
				}
				merged++
				if flagVerbose {
					fmt.Fprintf(out, "MERGED: %s <- %s\n",
						ce.Title, strings.Join(ce.SourceEvents, ", "))
				}
			}

			fmt.Fprintf(out, "Canonical events: %d (%d merged from multiple listings)\n",
				len(canonical), merged)
			return nil
		},
	}
}
