// cmd/libctl/reset.go
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelfmark/internal/store"
)

func newResetCommand(configFile *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Truncate all application tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to truncate without --yes")
			}

			ctx := cmd.Context()
			_, db, err := openStore(ctx, *configFile)
			if err != nil {
				return err
			}
			defer db.Close()

			stmt := fmt.Sprintf("TRUNCATE %s CASCADE", strings.Join(store.DataTables, ", "))
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Truncated %d tables.\n", len(store.DataTables))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive reset")
	return cmd
}
