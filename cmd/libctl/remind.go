// cmd/libctl/remind.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/audit"
	"shelfmark/internal/borrowing"
	"shelfmark/internal/fines"
	"shelfmark/internal/notify"
	"shelfmark/internal/payments"
)

func newRemindCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send due-date reminders and overdue notices to students",
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

			reminders, err := svc.SendDueSoonReminders(ctx)
			if err != nil {
				return fmt.Errorf("due-date reminders: %w", err)
			}
			notices, err := svc.SendOverdueNotices(ctx)
			if err != nil {
				return fmt.Errorf("overdue notices: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d due-date reminders and %d overdue notices.\n", reminders, notices)
			return nil
		},
	}
}
