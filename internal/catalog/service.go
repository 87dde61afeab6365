// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, book NewBook) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	UpdateCopies(ctx context.Context, id uuid.UUID, totalCopies int) error
	RemoveBook(ctx context.Context, id uuid.UUID) error
	ListBooks(ctx context.Context, onlyAvailable bool) ([]*Book, error)
	Search(ctx context.Context, query string) ([]*Book, error)
}
