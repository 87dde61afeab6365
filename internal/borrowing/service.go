// internal/borrowing/service.go
package borrowing

import (
	"context"

	"github.com/google/uuid"

	"shelfmark/internal/fines"
)

// Service defines the interface for the borrowing lifecycle manager.
type Service interface {
	Borrow(ctx context.Context, req BorrowRequest) (*BorrowRecord, error)
	Return(ctx context.Context, borrowID uuid.UUID, notes string) (*ReturnResult, error)
	PayFine(ctx context.Context, fineID uuid.UUID, phone string) (*fines.Fine, error)
	List(ctx context.Context, filter StatusFilter) ([]*BorrowRecord, error)
	ListFines(ctx context.Context) ([]*fines.Fine, error)
	SendDueSoonReminders(ctx context.Context) (int, error)
	SendOverdueNotices(ctx context.Context) (int, error)
}
