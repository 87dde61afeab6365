// internal/borrowing/domain.go
package borrowing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/fines"
)

const (
	// LoanPeriod is the fixed loan window applied to every borrow.
	LoanPeriod = 4 * 24 * time.Hour
	// DailyFineRate is the fine charged per overdue day, in KES.
	DailyFineRate = 40
	// MaxStudentLoans caps how many unreturned records a student may hold.
	MaxStudentLoans = 3
)

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrBorrowerNotFound   = errors.New("borrower not found")
	ErrRecordNotFound     = errors.New("borrow record not found")
	ErrNoCopiesAvailable  = errors.New("no copies of this book are available")
	ErrBorrowLimitReached = errors.New("student has reached the maximum borrowing limit of 3 books")
	ErrAlreadyReturned    = errors.New("this book has already been returned")
)

// BorrowRecord is one loan transaction linking a book to a borrower.
// Exactly one of StudentID and StaffID is set. The record transitions
// once, from active to returned; overdue is a predicate on active
// records, never a stored status.
type BorrowRecord struct {
	ID         uuid.UUID  `json:"id"`
	BookID     uuid.UUID  `json:"book_id"`
	StudentID  *uuid.UUID `json:"student_id,omitempty"`
	StaffID    *uuid.UUID `json:"staff_id,omitempty"`
	BookTitle  string     `json:"book_title,omitempty"`
	BookAuthor string     `json:"book_author,omitempty"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// Returned reports whether the record has completed its lifecycle.
func (r *BorrowRecord) Returned() bool {
	return r.ReturnedAt != nil
}

// Overdue reports whether the record is unreturned past its due date.
func (r *BorrowRecord) Overdue(now time.Time) bool {
	return !r.Returned() && r.DueDate.Before(now)
}

// BorrowRequest describes a borrow being created. Exactly one of
// StudentID and StaffID must be set.
type BorrowRequest struct {
	BookID    uuid.UUID  `json:"book_id"`
	StudentID *uuid.UUID `json:"student_id,omitempty"`
	StaffID   *uuid.UUID `json:"staff_id,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Validate checks the student-XOR-staff constraint.
func (req *BorrowRequest) Validate() error {
	if (req.StudentID == nil) == (req.StaffID == nil) {
		return errors.New("exactly one of student_id and staff_id must be set")
	}
	return nil
}

// ReturnResult reports the outcome of processing a return. FinePending
// signals that an unpaid fine exists, so the return is not fully
// settled yet.
type ReturnResult struct {
	Record      *BorrowRecord `json:"record"`
	Fine        *fines.Fine   `json:"fine,omitempty"`
	FinePending bool          `json:"fine_pending"`
}

// StatusFilter selects which borrow records a listing returns.
type StatusFilter string

const (
	FilterActive   StatusFilter = "active"
	FilterReturned StatusFilter = "returned"
	FilterOverdue  StatusFilter = "overdue"
	FilterAll      StatusFilter = "all"
)

// ParseStatusFilter maps a query string value to a filter, defaulting
// to active.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case FilterReturned, FilterOverdue, FilterAll:
		return StatusFilter(s)
	default:
		return FilterActive
	}
}

// DaysOverdue counts whole days past the due date, rounding any partial
// day up. Zero when the due date has not passed.
func DaysOverdue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	late := now.Sub(due)
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// FineAmount computes the fine for the given number of overdue days.
func FineAmount(daysOverdue int) int {
	return daysOverdue * DailyFineRate
}

func fineReason(daysOverdue int) string {
	return fmt.Sprintf("Late return: %d days overdue", daysOverdue)
}
