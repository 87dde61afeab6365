// internal/fines/domain.go
package fines

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFineNotFound    = errors.New("fine not found")
	ErrDuplicateFine   = errors.New("a fine already exists for this borrow record")
	ErrFineAlreadyPaid = errors.New("this fine has already been paid")
)

// Fine is a monetary penalty assessed against a student for a late
// return. At most one fine exists per borrow record, enforced by a
// unique index rather than lookup-before-insert alone.
type Fine struct {
	ID             uuid.UUID  `json:"id"`
	BorrowRecordID uuid.UUID  `json:"borrow_record_id"`
	StudentID      uuid.UUID  `json:"student_id"`
	Amount         int        `json:"amount"`
	Reason         string     `json:"reason"`
	Paid           bool       `json:"paid"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
