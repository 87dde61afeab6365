// internal/borrowing/emails_test.go
package borrowing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBorrowedEmailStudent(t *testing.T) {
	borrowed := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	due := borrowed.Add(LoanPeriod)

	email := borrowedEmail("wanjiku@students.uonbi.ac.ke", "Wanjiku Kamau",
		"HSK Standard Course 3", "Jiang Liping", borrowed, due, true, uuid.New(), uuid.New())

	assert.Equal(t, "borrowed", email.Category)
	assert.Equal(t, "Library Book Borrowed - HSK Standard Course 3", email.Subject)
	assert.Contains(t, email.Body, "Dear Wanjiku Kamau,")
	assert.Contains(t, email.Body, "Due Date: 2025-03-14")
	assert.Contains(t, email.Body, "Maximum Days Allowed: 4 days")
	assert.Contains(t, email.Body, "Confucius Institute Library\nUniversity of Nairobi")
}

func TestBorrowedEmailStaffHasNoDueDate(t *testing.T) {
	borrowed := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	email := borrowedEmail("prof@uonbi.ac.ke", "Prof. Otieno",
		"Modern Chinese Grammar", "", borrowed, borrowed.Add(LoanPeriod), false, uuid.New(), uuid.New())

	assert.Contains(t, email.Body, "Author: N/A")
	assert.NotContains(t, email.Body, "Due Date:")
	assert.NotContains(t, email.Body, "Maximum Days Allowed")
	assert.Contains(t, email.Body, "Please return the book when you are done reading.")
}

func TestFinePaidEmail(t *testing.T) {
	paid := time.Date(2025, 3, 20, 14, 0, 0, 0, time.UTC)

	email := finePaidEmail("wanjiku@students.uonbi.ac.ke", "Wanjiku Kamau",
		"HSK Standard Course 3", 120, paid, uuid.New(), uuid.New())

	assert.Equal(t, "return_and_fine_paid", email.Category)
	assert.Contains(t, email.Body, "a fine of KES 120 for late return")
}

func TestOverdueNoticeEmail(t *testing.T) {
	email := overdueNoticeEmail("wanjiku@students.uonbi.ac.ke", "Wanjiku Kamau",
		"HSK Standard Course 3", 3, 120, uuid.New(), uuid.New())

	assert.Equal(t, "overdue_notice", email.Category)
	assert.Contains(t, email.Body, "Days Overdue: 3")
	assert.Contains(t, email.Body, "Fine Accrued So Far: KES 120")
}
