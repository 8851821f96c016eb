package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	var flagReset bool

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema",
		Long: `Create the SQLite database and its schema. With --reset, any existing
tables are dropped first and all stored events are lost.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if flagReset {
				if err := st.Reset(cmd.Context()); err != nil {
					return fmt.Errorf("resetting database: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Database %s reset.\n", cfg.DatabasePath)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database %s initialized.\n", cfg.DatabasePath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagReset, "reset", false, "Drop existing tables before creating the schema")
	return cmd
}
