// cmd/libctl/audit.go
package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"shelfmark/internal/audit"
)

func newAuditCommand(configFile *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent staff actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := openStore(ctx, *configFile)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := audit.NewLogger(db).Recent(ctx, limit)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"When", "Actor", "Action", "Entity", "Entity ID", "Details"})
			for _, e := range entries {
				tw.AppendRow(table.Row{
					e.CreatedAt.Format("2006-01-02 15:04"),
					e.Actor,
					e.Action,
					e.Entity,
					e.EntityID,
					e.Details,
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "how many entries to show")
	return cmd
}
