// internal/notify/notifier.go

// Package notify delivers transactional email through a pluggable
// notifier. Delivery is best-effort: callers log failures and move on,
// and every attempt lands in the email_log table for the staff console.
package notify

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/config"
)

// Email is one outbound message. Category, OwnerID and RecordID tie the
// message back to the borrower and borrow record that triggered it.
type Email struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Category string    `json:"category"`
	OwnerID  uuid.UUID `json:"owner_id"`
	RecordID uuid.UUID `json:"record_id"`
}

// Notifier sends email. Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}

// NewNotifier builds a notifier backed by the configured mail relay.
// When no relay is configured, messages are only recorded in the email
// log so the rest of the system behaves the same in development.
func NewNotifier(cfg config.Mail, db *sql.DB) Notifier {
	emailLog := &emailLog{db: db}
	if cfg.RelayURL == "" {
		return &logOnlyNotifier{log: emailLog}
	}
	return newRelayNotifier(cfg, emailLog)
}

type logOnlyNotifier struct {
	log *emailLog
}

func (n *logOnlyNotifier) Send(ctx context.Context, email Email) error {
	log.Printf("mail relay not configured, logging email to %s (%s)", email.To, email.Category)
	n.log.record(ctx, email, "logged", "")
	return nil
}

// emailLog persists delivery attempts. A nil db disables persistence,
// which tests use.
type emailLog struct {
	db *sql.DB
}

func (l *emailLog) record(ctx context.Context, email Email, status, errMsg string) {
	if l.db == nil {
		return
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO email_log (recipient, subject, category, owner_id, record_id, status, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, email.To, email.Subject, email.Category, email.OwnerID, email.RecordID, status, errMsg, time.Now().UTC())
	if err != nil {
		log.Printf("failed to record email log entry: %v", err)
	}
}
