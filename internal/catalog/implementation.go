// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shelfmark/internal/store"
)

// ErrCopiesBelowLoans is returned when a copies update would leave fewer
// copies than there are unreturned borrows.
var ErrCopiesBelowLoans = errors.New("total copies cannot drop below active loans")

// availableExpr computes availability from the live borrow records
// rather than a stored counter.
const availableExpr = `b.total_copies - (
	SELECT COUNT(*) FROM borrow_records r
	WHERE r.book_id = b.id AND r.returned_at IS NULL
)`

const bookColumns = `b.id, b.isbn, b.title, b.author, b.publisher, b.published_year,
	b.total_copies, ` + availableExpr + ` AS available, b.created_at, b.updated_at`

// service implements the Service interface.
type service struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewService creates a new catalog service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("shelfmark/catalog"),
	}
}

// AddBook creates a new book in the catalog.
func (s *service) AddBook(ctx context.Context, book NewBook) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_book",
		trace.WithAttributes(attribute.String("book.title", book.Title)),
	)
	defer span.End()

	if book.Title == "" {
		return nil, errors.New("title is required")
	}
	if book.TotalCopies < 0 {
		return nil, errors.New("total copies cannot be negative")
	}

	id := uuid.New()
	now := time.Now().UTC()
	query := `
		INSERT INTO books (id, isbn, title, author, publisher, published_year, total_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		id, book.ISBN, book.Title, book.Author, book.Publisher, book.PublishedYear, book.TotalCopies, now)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return &Book{
		ID:            id,
		ISBN:          book.ISBN,
		Title:         book.Title,
		Author:        book.Author,
		Publisher:     book.Publisher,
		PublishedYear: book.PublishedYear,
		TotalCopies:   book.TotalCopies,
		Available:     book.TotalCopies,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetBook retrieves a book with its recomputed availability.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_book",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.id = $1`
	book, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// UpdateCopies changes the number of copies the library holds. The new
// total may not fall below the number of unreturned borrows.
func (s *service) UpdateCopies(ctx context.Context, id uuid.UUID, totalCopies int) error {
	ctx, span := s.tracer.Start(ctx, "catalog.update_copies",
		trace.WithAttributes(
			attribute.String("book.id", id.String()),
			attribute.Int("book.total_copies", totalCopies),
		),
	)
	defer span.End()

	if totalCopies < 0 {
		return errors.New("total copies cannot be negative")
	}

	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var activeLoans int
		err := tx.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM borrow_records r WHERE r.book_id = b.id AND r.returned_at IS NULL)
			FROM books b WHERE b.id = $1 FOR UPDATE
		`, id).Scan(&activeLoans)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookNotFound
			}
			return fmt.Errorf("lock book: %w", err)
		}

		if totalCopies < activeLoans {
			return ErrCopiesBelowLoans
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE books SET total_copies = $1, updated_at = NOW() WHERE id = $2
		`, totalCopies, id)
		if err != nil {
			return fmt.Errorf("update copies: %w", err)
		}
		return nil
	})
}

// RemoveBook deletes a book that has no borrow history.
func (s *service) RemoveBook(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "catalog.remove_book",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// ListBooks returns the catalog ordered by title, optionally only
// titles with at least one copy on the shelf.
func (s *service) ListBooks(ctx context.Context, onlyAvailable bool) ([]*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.list_books")
	defer span.End()

	query := `SELECT ` + bookColumns + ` FROM books b`
	if onlyAvailable {
		query += ` WHERE ` + availableExpr + ` > 0`
	}
	query += ` ORDER BY b.title ASC`

	books, err := s.queryBooks(ctx, query)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("books.count", len(books)))
	return books, nil
}

// Search finds books by title or author using full-text search.
func (s *service) Search(ctx context.Context, query string) ([]*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.search",
		trace.WithAttributes(attribute.String("search.query", query)),
	)
	defer span.End()

	dbQuery := `
		SELECT ` + bookColumns + `
		FROM books b
		WHERE to_tsvector('english', b.title) @@ plainto_tsquery('english', $1)
		OR to_tsvector('english', b.author) @@ plainto_tsquery('english', $1)
		LIMIT 20
	`
	return s.queryBooks(ctx, dbQuery, query)
}

func (s *service) queryBooks(ctx context.Context, query string, args ...any) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	book := &Book{}
	err := row.Scan(
		&book.ID,
		&book.ISBN,
		&book.Title,
		&book.Author,
		&book.Publisher,
		&book.PublishedYear,
		&book.TotalCopies,
		&book.Available,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}
