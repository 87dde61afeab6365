// internal/members/implementation.go
package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const activeBorrowsExpr = `(
	SELECT COUNT(*) FROM borrow_records r
	WHERE r.student_id = s.id AND r.returned_at IS NULL
)`

// service implements the Service interface.
type service struct {
	db           *sql.DB
	loginLimiter *rate.Limiter
}

// NewService creates a new members service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:           db,
		loginLimiter: rate.NewLimiter(rate.Every(time.Minute/10), 10), // 10 attempts per minute
	}
}

// RegisterStudent creates a new student record.
func (s *service) RegisterStudent(ctx context.Context, name, email, phone, hskLevel string) (*Student, error) {
	if name == "" || email == "" {
		return nil, errors.New("name and email are required")
	}

	student := &Student{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		HSKLevel:  hskLevel,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, name, email, phone, hsk_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, student.ID, student.Name, student.Email, student.Phone, student.HSKLevel, student.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}

	return student, nil
}

// GetStudent retrieves a student with their derived active borrow count.
func (s *service) GetStudent(ctx context.Context, id uuid.UUID) (*Student, error) {
	query := `
		SELECT s.id, s.name, s.email, s.phone, s.hsk_level, ` + activeBorrowsExpr + `, s.created_at
		FROM students s
		WHERE s.id = $1
	`
	student := &Student{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.Phone,
		&student.HSKLevel,
		&student.ActiveBorrows,
		&student.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}

// ListStudents returns all students ordered by name.
func (s *service) ListStudents(ctx context.Context) ([]*Student, error) {
	query := `
		SELECT s.id, s.name, s.email, s.phone, s.hsk_level, ` + activeBorrowsExpr + `, s.created_at
		FROM students s
		ORDER BY s.name ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []*Student
	for rows.Next() {
		student := &Student{}
		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.Email,
			&student.Phone,
			&student.HSKLevel,
			&student.ActiveBorrows,
			&student.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// UpdateStudentPhone stores a new phone number for the student.
func (s *service) UpdateStudentPhone(ctx context.Context, id uuid.UUID, phone string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE students SET phone = $1 WHERE id = $2
	`, phone, id)
	if err != nil {
		return fmt.Errorf("update student phone: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student phone: %w", err)
	}
	if affected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// RegisterStaff creates a new staff record.
func (s *service) RegisterStaff(ctx context.Context, name, email, department string) (*Staff, error) {
	if name == "" || email == "" {
		return nil, errors.New("name and email are required")
	}

	staff := &Staff{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Department: department,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff (id, name, email, department, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, staff.ID, staff.Name, staff.Email, staff.Department, staff.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert staff: %w", err)
	}

	return staff, nil
}

// GetStaff retrieves a staff member by ID.
func (s *service) GetStaff(ctx context.Context, id uuid.UUID) (*Staff, error) {
	staff := &Staff{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, department, created_at FROM staff WHERE id = $1
	`, id).Scan(&staff.ID, &staff.Name, &staff.Email, &staff.Department, &staff.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return staff, nil
}

// ListStaff returns all staff ordered by name.
func (s *service) ListStaff(ctx context.Context) ([]*Staff, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, department, created_at FROM staff ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var staff []*Staff
	for rows.Next() {
		member := &Staff{}
		if err := rows.Scan(&member.ID, &member.Name, &member.Email, &member.Department, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, member)
	}
	return staff, rows.Err()
}

// CreateConsoleAccount provisions console login credentials for a staff
// member.
func (s *service) CreateConsoleAccount(ctx context.Context, staffID uuid.UUID, password, role string) error {
	if _, err := s.GetStaff(ctx, staffID); err != nil {
		return err
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if role == "" {
		role = "librarian"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO console_accounts (staff_id, password_hash, salt, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (staff_id) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, salt = EXCLUDED.salt, role = EXCLUDED.role
	`, staffID, passwordHash, salt, role)
	if err != nil {
		return fmt.Errorf("upsert console account: %w", err)
	}
	return nil
}

// Login verifies console credentials and returns the staff member.
// Attempts are rate limited.
func (s *service) Login(ctx context.Context, email, password string) (*Staff, error) {
	if !s.loginLimiter.Allow() {
		return nil, ErrRateLimited
	}

	staff := &Staff{}
	var passwordHash, salt string
	err := s.db.QueryRowContext(ctx, `
		SELECT st.id, st.name, st.email, st.department, st.created_at, ca.password_hash, ca.salt
		FROM staff st
		JOIN console_accounts ca ON ca.staff_id = st.id
		WHERE st.email = $1
	`, email).Scan(&staff.ID, &staff.Name, &staff.Email, &staff.Department, &staff.CreatedAt, &passwordHash, &salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("lookup console account: %w", err)
	}

	ok, err := verifyPassword(password, salt, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	return staff, nil
}
