// internal/catalog/domain.go
package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrBookNotFound = errors.New("book not found")

// Book represents a title held by the library. Available is never
// stored: every read recomputes it as total copies minus unreturned
// borrows, so it cannot drift outside [0, total_copies].
type Book struct {
	ID            uuid.UUID `json:"id"`
	ISBN          string    `json:"isbn,omitempty"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	PublishedYear int       `json:"published_year,omitempty"`
	TotalCopies   int       `json:"total_copies"`
	Available     int       `json:"available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewBook describes a title being added to the catalog.
type NewBook struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PublishedYear int    `json:"published_year"`
	TotalCopies   int    `json:"total_copies"`
}
