// cmd/libctl/fixture.go
package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newFixtureCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Manipulate test data",
	}
	cmd.AddCommand(newMakeOverdueCommand(configFile))
	return cmd
}

// newMakeOverdueCommand backdates one active borrow record so the
// overdue path can be exercised against live data.
func newMakeOverdueCommand(configFile *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "make-overdue",
		Short: "Backdate an active borrow record past its due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := openStore(ctx, *configFile)
			if err != nil {
				return err
			}
			defer db.Close()

			var id string
			err = db.QueryRowContext(ctx, `
				UPDATE borrow_records
				SET due_date = NOW() - ($1 * INTERVAL '1 day')
				WHERE id = (
					SELECT id FROM borrow_records
					WHERE returned_at IS NULL
					ORDER BY borrowed_at
					LIMIT 1
				)
				RETURNING id`, days).Scan(&id)
			if errors.Is(err, sql.ErrNoRows) {
				return errors.New("no active borrow records to backdate")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Borrow record %s is now %d days overdue.\n", id, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "how many days past due to set")
	return cmd
}
