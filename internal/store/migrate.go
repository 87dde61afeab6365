// internal/store/migrate.go
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist. Statements are
// idempotent so the services can run it at startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id UUID PRIMARY KEY,
		isbn TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		publisher TEXT NOT NULL DEFAULT '',
		published_year INT NOT NULL DEFAULT 0,
		total_copies INT NOT NULL CHECK (total_copies >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS students (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		hsk_level TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS staff (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		department TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS console_accounts (
		staff_id UUID PRIMARY KEY REFERENCES staff(id),
		password_hash TEXT NOT NULL,
		salt TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'librarian',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS borrow_records (
		id UUID PRIMARY KEY,
		book_id UUID NOT NULL REFERENCES books(id),
		student_id UUID REFERENCES students(id),
		staff_id UUID REFERENCES staff(id),
		borrowed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		due_date TIMESTAMPTZ NOT NULL,
		returned_at TIMESTAMPTZ,
		notes TEXT NOT NULL DEFAULT '',
		CHECK ((student_id IS NULL) <> (staff_id IS NULL))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_borrow_records_active
		ON borrow_records (book_id) WHERE returned_at IS NULL`,

	`CREATE INDEX IF NOT EXISTS idx_borrow_records_student
		ON borrow_records (student_id) WHERE returned_at IS NULL`,

	// One fine per borrow record. The unique index is what makes
	// concurrent returns of the same record safe: the losing
	// transaction fails with 23505 and rolls back.
	`CREATE TABLE IF NOT EXISTS fines (
		id UUID PRIMARY KEY,
		borrow_record_id UUID NOT NULL UNIQUE REFERENCES borrow_records(id),
		student_id UUID NOT NULL REFERENCES students(id),
		amount INT NOT NULL CHECK (amount >= 0),
		reason TEXT NOT NULL DEFAULT '',
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS email_log (
		id BIGSERIAL PRIMARY KEY,
		recipient TEXT NOT NULL,
		subject TEXT NOT NULL,
		category TEXT NOT NULL,
		owner_id UUID,
		record_id UUID,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id UUID,
		details JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS videos (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL DEFAULT '',
		hsk_level TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS audios (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		hsk_level TEXT NOT NULL DEFAULT '',
		exam_code TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS exam_papers (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		file_path TEXT NOT NULL DEFAULT '',
		hsk_level TEXT NOT NULL DEFAULT '',
		exam_code TEXT NOT NULL DEFAULT '',
		year INT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS marking_schemes (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		file_path TEXT NOT NULL DEFAULT '',
		hsk_level TEXT NOT NULL DEFAULT '',
		exam_code TEXT NOT NULL DEFAULT '',
		year INT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS announcements (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS student_progress (
		id BIGSERIAL PRIMARY KEY,
		student_id UUID NOT NULL REFERENCES students(id),
		resource_type TEXT NOT NULL,
		resource_id UUID NOT NULL,
		action TEXT NOT NULL DEFAULT 'view',
		accessed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// DataTables lists every table holding row data, in an order safe for
// TRUNCATE … CASCADE. Used by the operator CLI's reset command and by
// test suites.
var DataTables = []string{
	"student_progress",
	"announcements",
	"marking_schemes",
	"exam_papers",
	"audios",
	"videos",
	"audit_log",
	"email_log",
	"fines",
	"borrow_records",
	"console_accounts",
	"staff",
	"students",
	"books",
}
