// internal/members/service.go
package members

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the members service.
type Service interface {
	RegisterStudent(ctx context.Context, name, email, phone, hskLevel string) (*Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*Student, error)
	ListStudents(ctx context.Context) ([]*Student, error)
	UpdateStudentPhone(ctx context.Context, id uuid.UUID, phone string) error

	RegisterStaff(ctx context.Context, name, email, department string) (*Staff, error)
	GetStaff(ctx context.Context, id uuid.UUID) (*Staff, error)
	ListStaff(ctx context.Context) ([]*Staff, error)

	CreateConsoleAccount(ctx context.Context, staffID uuid.UUID, password, role string) error
	Login(ctx context.Context, email, password string) (*Staff, error)
}
