// internal/members/domain.go
package members

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrStaffNotFound   = errors.New("staff member not found")
	ErrBadCredentials  = errors.New("authentication failed: invalid credentials")
	ErrRateLimited     = errors.New("rate limit exceeded")
)

// Student is a registered learner who may borrow books and is subject
// to the loan cap and fines.
type Student struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	HSKLevel      string    `json:"hsk_level,omitempty"`
	ActiveBorrows int       `json:"active_borrows"`
	CreatedAt     time.Time `json:"created_at"`
}

// Staff is a library or institute employee. Staff may borrow without a
// cap and are exempt from fines.
type Staff struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConsoleAccount holds the login credentials for a staff member using
// the library console.
type ConsoleAccount struct {
	StaffID      uuid.UUID `json:"staff_id"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Role         string    `json:"role"`
}
