package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoster/parkwork/internal/site"
)

func newSiteCmd() *cobra.Command {
	var flagOut string

	cmd := &cobra.Command{
		Use:   "site",
		Short: "Generate the static website and calendar feed",
		Long: `Render the upcoming canonical events as a static site: an index.html
listing and an events.ics calendar feed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}
			if flagOut != "" {
				cfg.SiteDir = flagOut
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.FutureCanonicalEvents(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			g := &site.Generator{Dir: cfg.SiteDir, Location: loc}
			if err := g.Generate(events); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d events to %s\n", len(events), cfg.SiteDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagOut, "out", "", "Output directory (overrides site_dir from config)")
	return cmd
}
