// internal/borrowing/implementation.go
package borrowing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shelfmark/internal/audit"
	"shelfmark/internal/fines"
	"shelfmark/internal/notify"
	"shelfmark/internal/payments"
	"shelfmark/internal/store"
)

// service implements the Service interface.
type service struct {
	db       *sql.DB
	ledger   *fines.Ledger
	notifier notify.Notifier
	gateway  payments.Gateway
	audit    *audit.Logger
	tracer   trace.Tracer
}

// NewService creates a new borrowing lifecycle manager. All
// collaborators are injected; there is no package-level state.
func NewService(db *sql.DB, ledger *fines.Ledger, notifier notify.Notifier, gateway payments.Gateway, auditLog *audit.Logger) Service {
	return &service{
		db:       db,
		ledger:   ledger,
		notifier: notifier,
		gateway:  gateway,
		audit:    auditLog,
		tracer:   otel.Tracer("shelfmark/borrowing"),
	}
}

// borrowerInfo is captured inside the transaction so notifications can
// be composed after commit without re-reading.
type borrowerInfo struct {
	id        uuid.UUID
	name      string
	email     string
	isStudent bool
}

// Borrow checks availability and the student loan cap, then creates a
// borrow record. All checks and the insert run in one transaction with
// the book row locked, so concurrent borrows cannot oversubscribe a
// title or breach the cap.
func (s *service) Borrow(ctx context.Context, req BorrowRequest) (*BorrowRecord, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.borrow",
		trace.WithAttributes(attribute.String("book.id", req.BookID.String())),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	record := &BorrowRecord{
		ID:        uuid.New(),
		BookID:    req.BookID,
		StudentID: req.StudentID,
		StaffID:   req.StaffID,
		Notes:     req.Notes,
	}
	var borrower borrowerInfo

	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var totalCopies int
		err := tx.QueryRowContext(ctx, `
			SELECT title, author, total_copies FROM books WHERE id = $1 FOR UPDATE
		`, req.BookID).Scan(&record.BookTitle, &record.BookAuthor, &totalCopies)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookNotFound
			}
			return fmt.Errorf("lock book: %w", err)
		}

		var activeLoans int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM borrow_records WHERE book_id = $1 AND returned_at IS NULL
		`, req.BookID).Scan(&activeLoans)
		if err != nil {
			return fmt.Errorf("count active loans: %w", err)
		}
		if totalCopies-activeLoans <= 0 {
			return ErrNoCopiesAvailable
		}

		if req.StudentID != nil {
			// Lock the student row so concurrent borrows by the same
			// student serialize on the cap check.
			err = tx.QueryRowContext(ctx, `
				SELECT name, email FROM students WHERE id = $1 FOR UPDATE
			`, *req.StudentID).Scan(&borrower.name, &borrower.email)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrBorrowerNotFound
				}
				return fmt.Errorf("lock student: %w", err)
			}
			borrower.id = *req.StudentID
			borrower.isStudent = true

			var studentLoans int
			err = tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM borrow_records WHERE student_id = $1 AND returned_at IS NULL
			`, *req.StudentID).Scan(&studentLoans)
			if err != nil {
				return fmt.Errorf("count student loans: %w", err)
			}
			if studentLoans >= MaxStudentLoans {
				return ErrBorrowLimitReached
			}
		} else {
			err = tx.QueryRowContext(ctx, `
				SELECT name, email FROM staff WHERE id = $1
			`, *req.StaffID).Scan(&borrower.name, &borrower.email)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrBorrowerNotFound
				}
				return fmt.Errorf("get staff: %w", err)
			}
			borrower.id = *req.StaffID
		}

		now := time.Now().UTC()
		record.BorrowedAt = now
		record.DueDate = now.Add(LoanPeriod)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO borrow_records (id, book_id, student_id, staff_id, borrowed_at, due_date, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, record.ID, record.BookID, record.StudentID, record.StaffID, record.BorrowedAt, record.DueDate, record.Notes)
		if err != nil {
			return fmt.Errorf("insert borrow record: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.sendEmail(ctx, borrowedEmail(
		borrower.email, borrower.name, record.BookTitle, record.BookAuthor,
		record.BorrowedAt, record.DueDate, borrower.isStudent, borrower.id, record.ID,
	))
	s.audit.Record(ctx, borrower.email, "borrow", "borrow_record", record.ID, map[string]any{
		"book_id":  record.BookID,
		"due_date": record.DueDate,
	})

	return record, nil
}

// Return sets the return timestamp and, for overdue student borrows,
// creates the fine in the same transaction. The record row is locked,
// so of two racing returns one commits and the other sees
// ErrAlreadyReturned; the unique index on fines(borrow_record_id) is
// the backstop.
func (s *service) Return(ctx context.Context, borrowID uuid.UUID, notes string) (*ReturnResult, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.return",
		trace.WithAttributes(attribute.String("record.id", borrowID.String())),
	)
	defer span.End()

	record := &BorrowRecord{ID: borrowID}
	var borrower borrowerInfo
	var fine *fines.Fine

	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var studentID, staffID uuid.NullUUID
		var returnedAt sql.NullTime
		err := tx.QueryRowContext(ctx, `
			SELECT r.book_id, r.student_id, r.staff_id, r.borrowed_at, r.due_date, r.returned_at, r.notes,
				b.title, b.author
			FROM borrow_records r
			JOIN books b ON b.id = r.book_id
			WHERE r.id = $1
			FOR UPDATE OF r
		`, borrowID).Scan(
			&record.BookID, &studentID, &staffID, &record.BorrowedAt, &record.DueDate,
			&returnedAt, &record.Notes, &record.BookTitle, &record.BookAuthor,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("lock borrow record: %w", err)
		}
		if returnedAt.Valid {
			return ErrAlreadyReturned
		}
		if studentID.Valid {
			record.StudentID = &studentID.UUID
		}
		if staffID.Valid {
			record.StaffID = &staffID.UUID
		}

		now := time.Now().UTC()
		record.ReturnedAt = &now
		if notes != "" {
			record.Notes = notes
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE borrow_records SET returned_at = $1, notes = $2 WHERE id = $3
		`, now, record.Notes, borrowID)
		if err != nil {
			return fmt.Errorf("update borrow record: %w", err)
		}

		// Staff are exempt from fines.
		if studentID.Valid && record.DueDate.Before(now) {
			days := DaysOverdue(record.DueDate, now)
			fine, err = s.ledger.FindForBorrow(ctx, tx, borrowID, studentID.UUID)
			if err != nil {
				return err
			}
			if fine == nil {
				fine, err = s.ledger.Create(ctx, tx, studentID.UUID, borrowID, FineAmount(days), fineReason(days))
				if err != nil {
					return err
				}
			}
		}

		borrowerQuery := `SELECT name, email FROM staff WHERE id = $1`
		borrowerID := staffID.UUID
		if studentID.Valid {
			borrowerQuery = `SELECT name, email FROM students WHERE id = $1`
			borrowerID = studentID.UUID
			borrower.isStudent = true
		}
		if err := tx.QueryRowContext(ctx, borrowerQuery, borrowerID).Scan(&borrower.name, &borrower.email); err != nil {
			return fmt.Errorf("get borrower: %w", err)
		}
		borrower.id = borrowerID
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.sendEmail(ctx, returnConfirmationEmail(
		borrower.email, borrower.name, record.BookTitle, record.BookAuthor,
		*record.ReturnedAt, borrower.id, record.ID,
	))

	result := &ReturnResult{
		Record:      record,
		Fine:        fine,
		FinePending: fine != nil && !fine.Paid,
	}
	details := map[string]any{"book_id": record.BookID}
	if fine != nil {
		details["fine_id"] = fine.ID
		details["fine_amount"] = fine.Amount
		span.SetAttributes(attribute.Int("fine.amount", fine.Amount))
	}
	s.audit.Record(ctx, borrower.email, "return", "borrow_record", record.ID, details)

	return result, nil
}

// PayFine marks a fine paid, optionally updating the student's phone
// in the same transaction. Payment initiation through the gateway is
// recorded but never blocks settlement; return and payment remain
// independently tracked.
func (s *service) PayFine(ctx context.Context, fineID uuid.UUID, phone string) (*fines.Fine, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.pay_fine",
		trace.WithAttributes(attribute.String("fine.id", fineID.String())),
	)
	defer span.End()

	fine, err := s.ledger.Get(ctx, fineID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var name, email, storedPhone string
	err = s.db.QueryRowContext(ctx, `
		SELECT name, email, phone FROM students WHERE id = $1
	`, fine.StudentID).Scan(&name, &email, &storedPhone)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	payPhone := storedPhone
	if phone != "" {
		payPhone = phone
	}

	// Initiation is best-effort and stays outside the settlement
	// transaction; its outcome never blocks marking the fine paid.
	if payPhone != "" {
		result, err := s.gateway.Initiate(ctx, payPhone, fine.Amount)
		if err != nil {
			log.Printf("payment initiation failed for fine %s: %v", fineID, err)
		} else {
			span.SetAttributes(attribute.String("payment.status", result.Status))
		}
	}

	// The phone update and settlement commit together or not at all.
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if phone != "" && phone != storedPhone {
			if _, err := tx.ExecContext(ctx, `
				UPDATE students SET phone = $1 WHERE id = $2
			`, phone, fine.StudentID); err != nil {
				return fmt.Errorf("update student phone: %w", err)
			}
		}
		return s.ledger.MarkPaid(ctx, tx, fineID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	paid, err := s.ledger.Get(ctx, fineID)
	if err != nil {
		return nil, err
	}

	var bookTitle string
	err = s.db.QueryRowContext(ctx, `
		SELECT b.title FROM borrow_records r JOIN books b ON b.id = r.book_id WHERE r.id = $1
	`, paid.BorrowRecordID).Scan(&bookTitle)
	if err != nil {
		log.Printf("failed to look up book title for fine %s: %v", fineID, err)
	}

	paidAt := time.Now().UTC()
	if paid.PaidAt != nil {
		paidAt = *paid.PaidAt
	}
	s.sendEmail(ctx, finePaidEmail(email, name, bookTitle, paid.Amount, paidAt, paid.StudentID, paid.BorrowRecordID))
	s.audit.Record(ctx, email, "pay_fine", "fine", paid.ID, map[string]any{
		"amount": paid.Amount,
	})

	return paid, nil
}

const recordColumns = `r.id, r.book_id, r.student_id, r.staff_id, b.title, b.author,
	r.borrowed_at, r.due_date, r.returned_at, r.notes`

// List is a pure read over borrow records. The overdue filter is a
// predicate on active records, recomputed against the clock.
func (s *service) List(ctx context.Context, filter StatusFilter) ([]*BorrowRecord, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.list",
		trace.WithAttributes(attribute.String("filter", string(filter))),
	)
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM borrow_records r JOIN books b ON b.id = r.book_id`
	switch filter {
	case FilterActive:
		query += ` WHERE r.returned_at IS NULL ORDER BY r.borrowed_at DESC`
	case FilterReturned:
		query += ` WHERE r.returned_at IS NOT NULL ORDER BY r.returned_at DESC`
	case FilterOverdue:
		query += ` WHERE r.returned_at IS NULL AND r.due_date < NOW() ORDER BY r.due_date ASC`
	default:
		query += ` ORDER BY r.borrowed_at DESC`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	defer rows.Close()

	var records []*BorrowRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan borrow record: %w", err)
		}
		records = append(records, record)
	}
	span.SetAttributes(attribute.Int("records.count", len(records)))
	return records, rows.Err()
}

// ListFines returns unpaid fines, newest first.
func (s *service) ListFines(ctx context.Context) ([]*fines.Fine, error) {
	return s.ledger.ListUnpaid(ctx)
}

// SendDueSoonReminders emails students whose active borrows fall due
// within the next 24 hours. Returns how many reminders went out.
func (s *service) SendDueSoonReminders(ctx context.Context) (int, error) {
	return s.sweep(ctx, `
		SELECT r.id, r.due_date, b.title, s.id, s.name, s.email
		FROM borrow_records r
		JOIN books b ON b.id = r.book_id
		JOIN students s ON s.id = r.student_id
		WHERE r.returned_at IS NULL
		AND r.due_date > NOW()
		AND r.due_date <= NOW() + INTERVAL '24 hours'
	`, func(recordID, studentID uuid.UUID, name, email, title string, dueDate time.Time) notify.Email {
		return dueReminderEmail(email, name, title, dueDate, studentID, recordID)
	})
}

// SendOverdueNotices emails students holding overdue books, stating the
// fine accrued so far.
func (s *service) SendOverdueNotices(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	return s.sweep(ctx, `
		SELECT r.id, r.due_date, b.title, s.id, s.name, s.email
		FROM borrow_records r
		JOIN books b ON b.id = r.book_id
		JOIN students s ON s.id = r.student_id
		WHERE r.returned_at IS NULL
		AND r.due_date < NOW()
	`, func(recordID, studentID uuid.UUID, name, email, title string, dueDate time.Time) notify.Email {
		days := DaysOverdue(dueDate, now)
		return overdueNoticeEmail(email, name, title, days, FineAmount(days), studentID, recordID)
	})
}

func (s *service) sweep(ctx context.Context, query string, compose func(recordID, studentID uuid.UUID, name, email, title string, dueDate time.Time) notify.Email) (int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("query sweep records: %w", err)
	}
	defer rows.Close()

	var emails []notify.Email
	for rows.Next() {
		var recordID, studentID uuid.UUID
		var dueDate time.Time
		var title, name, email string
		if err := rows.Scan(&recordID, &dueDate, &title, &studentID, &name, &email); err != nil {
			return 0, fmt.Errorf("scan sweep record: %w", err)
		}
		emails = append(emails, compose(recordID, studentID, name, email, title, dueDate))
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate sweep records: %w", err)
	}

	sent := 0
	for _, email := range emails {
		if err := s.notifier.Send(ctx, email); err != nil {
			log.Printf("failed to send %s email to %s: %v", email.Category, email.To, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// sendEmail delivers best-effort: failures are logged, never surfaced.
func (s *service) sendEmail(ctx context.Context, email notify.Email) {
	if err := s.notifier.Send(ctx, email); err != nil {
		log.Printf("failed to send %s email to %s: %v", email.Category, email.To, err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*BorrowRecord, error) {
	record := &BorrowRecord{}
	var studentID, staffID uuid.NullUUID
	var returnedAt sql.NullTime
	err := row.Scan(
		&record.ID, &record.BookID, &studentID, &staffID, &record.BookTitle, &record.BookAuthor,
		&record.BorrowedAt, &record.DueDate, &returnedAt, &record.Notes,
	)
	if err != nil {
		return nil, err
	}
	if studentID.Valid {
		record.StudentID = &studentID.UUID
	}
	if staffID.Valid {
		record.StaffID = &staffID.UUID
	}
	if returnedAt.Valid {
		record.ReturnedAt = &returnedAt.Time
	}
	return record, nil
}
