// cmd/libctl/borrows.go
package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"shelfmark/internal/audit"
	"shelfmark/internal/borrowing"
	"shelfmark/internal/fines"
	"shelfmark/internal/notify"
	"shelfmark/internal/payments"
)

func newBorrowsCommand(configFile *string) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "borrows",
		Short: "List borrow records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := openStore(ctx, *configFile)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := borrowing.NewService(
				db,
				fines.NewLedger(db),
				notify.NewNotifier(cfg.Mail, db),
				payments.NewGateway(cfg.MPesa),
				audit.NewLogger(db),
			)

			records, err := svc.List(ctx, borrowing.ParseStatusFilter(status))
			if err != nil {
				return err
			}

			now := time.Now()
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Book", "Borrower", "Due", "Status"})
			for _, r := range records {
				tw.AppendRow(table.Row{
					r.ID,
					r.BookTitle,
					borrowerColumn(r),
					r.DueDate.Format("2006-01-02"),
					recordStatus(r, now),
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "active", "filter: active, returned, overdue or all")
	return cmd
}

func borrowerColumn(r *borrowing.BorrowRecord) string {
	if r.StudentID != nil {
		return "student " + r.StudentID.String()
	}
	if r.StaffID != nil {
		return "staff " + r.StaffID.String()
	}
	return ""
}

func recordStatus(r *borrowing.BorrowRecord, now time.Time) string {
	switch {
	case r.Returned():
		return "returned"
	case r.Overdue(now):
		return "overdue"
	default:
		return "active"
	}
}
