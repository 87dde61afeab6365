// internal/fines/ledger.go
package fines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/store"
)

const fineColumns = `id, borrow_record_id, student_id, amount, reason, paid, paid_at, created_at`

// Ledger tracks fines and their payment status. Mutating methods take a
// store.Querier so the borrowing lifecycle can run them inside its own
// transaction; *sql.DB works for standalone use.
type Ledger struct {
	db *sql.DB
}

// NewLedger creates a fine ledger over the given database.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// FindForBorrow returns the fine for a borrow record and student, or
// nil when none exists.
func (l *Ledger) FindForBorrow(ctx context.Context, q store.Querier, borrowID, studentID uuid.UUID) (*Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE borrow_record_id = $1 AND student_id = $2`
	fine, err := scanFine(q.QueryRowContext(ctx, query, borrowID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find fine: %w", err)
	}
	return fine, nil
}

// Create records a new fine. The unique index on borrow_record_id turns
// a racing insert into ErrDuplicateFine.
func (l *Ledger) Create(ctx context.Context, q store.Querier, studentID, borrowID uuid.UUID, amount int, reason string) (*Fine, error) {
	fine := &Fine{
		ID:             uuid.New(),
		BorrowRecordID: borrowID,
		StudentID:      studentID,
		Amount:         amount,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO fines (id, borrow_record_id, student_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, fine.ID, fine.BorrowRecordID, fine.StudentID, fine.Amount, fine.Reason, fine.CreatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrDuplicateFine
		}
		return nil, fmt.Errorf("insert fine: %w", err)
	}

	return fine, nil
}

// MarkPaid sets the paid flag and payment timestamp. Paying is a
// one-way transition; a second attempt reports ErrFineAlreadyPaid.
func (l *Ledger) MarkPaid(ctx context.Context, q store.Querier, fineID uuid.UUID) error {
	result, err := q.ExecContext(ctx, `
		UPDATE fines SET paid = TRUE, paid_at = NOW() WHERE id = $1 AND paid = FALSE
	`, fineID)
	if err != nil {
		return fmt.Errorf("mark fine paid: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark fine paid: %w", err)
	}
	if affected == 0 {
		var paid bool
		err := q.QueryRowContext(ctx, `SELECT paid FROM fines WHERE id = $1`, fineID).Scan(&paid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFineNotFound
		}
		if err != nil {
			return fmt.Errorf("mark fine paid: %w", err)
		}
		return ErrFineAlreadyPaid
	}
	return nil
}

// Get retrieves a fine by ID.
func (l *Ledger) Get(ctx context.Context, fineID uuid.UUID) (*Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE id = $1`
	fine, err := scanFine(l.db.QueryRowContext(ctx, query, fineID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFineNotFound
		}
		return nil, fmt.Errorf("get fine: %w", err)
	}
	return fine, nil
}

// ListUnpaid returns outstanding fines, newest first.
func (l *Ledger) ListUnpaid(ctx context.Context) ([]*Fine, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+fineColumns+` FROM fines WHERE paid = FALSE ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list unpaid fines: %w", err)
	}
	defer rows.Close()

	var unpaid []*Fine
	for rows.Next() {
		fine, err := scanFine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fine: %w", err)
		}
		unpaid = append(unpaid, fine)
	}
	return unpaid, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFine(row rowScanner) (*Fine, error) {
	fine := &Fine{}
	err := row.Scan(
		&fine.ID,
		&fine.BorrowRecordID,
		&fine.StudentID,
		&fine.Amount,
		&fine.Reason,
		&fine.Paid,
		&fine.PaidAt,
		&fine.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return fine, nil
}
