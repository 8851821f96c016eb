package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoster/parkwork/internal/filter"
)

func newListCmd() *cobra.Command {
	var (
		flagAll      bool
		flagDays     int
		flagSource   string
		flagTag      string
		flagWeekends bool
		flagFormat   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List canonical events",
		Long: `List the deduplicated canonical events. By default only upcoming
events are shown; --all includes past events.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := OutputFormat(strings.ToLower(flagFormat))
			if format != FormatText && format != FormatJSON {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
			}

			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.CanonicalEvents(cmd.Context())
			if err != nil {
				return err
			}

			f := &filter.Filter{
				UpcomingOnly: !flagAll,
				DaysAhead:    flagDays,
				Source:       flagSource,
				Tag:          flagTag,
				WeekendsOnly: flagWeekends,
			}

			now := time.Now()
			filtered := f.Apply(events, now, loc)

			result := &ListResult{
				GeneratedAt: now.UTC(),
				Events:      filtered,
				EventCount:  len(filtered),
			}
			if !f.IsEmpty() {
				result.Filter = f.String()
			}
			return WriteListOutput(cmd.OutOrStdout(), result, format, loc)
		},
	}

	cmd.Flags().BoolVar(&flagAll, "all", false, "Include past events")
	cmd.Flags().IntVar(&flagDays, "days", 0, "Only events within the next N days")
	cmd.Flags().StringVar(&flagSource, "source", "", "Only events with a listing from this source (GSP, SPR, SPU, EC, DNDA, MAN)")
	cmd.Flags().StringVar(&flagTag, "tag", "", "Only events carrying this tag")
	cmd.Flags().BoolVar(&flagWeekends, "weekends", false, "Only Saturday and Sunday events")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	return cmd
}
