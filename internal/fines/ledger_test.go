// internal/fines/ledger_test.go
package fines

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfmark/internal/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	ctx := context.Background()
	db, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, store.Migrate(ctx, db))
	for _, table := range store.DataTables {
		_, err := db.ExecContext(ctx, "TRUNCATE "+table+" CASCADE")
		require.NoError(t, err)
	}
	return db
}

// seedBorrow creates the book, student and borrow record a fine hangs off.
func seedBorrow(t *testing.T, db *sql.DB) (studentID, borrowID uuid.UUID) {
	t.Helper()
	bookID := uuid.New()
	studentID = uuid.New()
	borrowID = uuid.New()

	_, err := db.Exec(`INSERT INTO books (id, title, total_copies) VALUES ($1, 'Test Book', 1)`, bookID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO students (id, name, email) VALUES ($1, 'Test Student', $2)`,
		studentID, fmt.Sprintf("%s@students.test", studentID))
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO borrow_records (id, book_id, student_id, due_date) VALUES ($1, $2, $3, $4)
	`, borrowID, bookID, studentID, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	return studentID, borrowID
}

func TestLedgerCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	studentID, borrowID := seedBorrow(t, db)

	fine, err := ledger.Create(ctx, db, studentID, borrowID, 120, "Late return: 3 days overdue")
	require.NoError(t, err)
	assert.False(t, fine.Paid)

	got, err := ledger.Get(ctx, fine.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.Amount)
	assert.Equal(t, "Late return: 3 days overdue", got.Reason)
	assert.Equal(t, borrowID, got.BorrowRecordID)
	assert.Nil(t, got.PaidAt)
}

func TestLedgerRejectsDuplicateForSameBorrow(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	studentID, borrowID := seedBorrow(t, db)

	_, err := ledger.Create(ctx, db, studentID, borrowID, 120, "Late return: 3 days overdue")
	require.NoError(t, err)

	_, err = ledger.Create(ctx, db, studentID, borrowID, 160, "Late return: 4 days overdue")
	assert.ErrorIs(t, err, ErrDuplicateFine)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM fines WHERE borrow_record_id = $1`, borrowID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLedgerFindForBorrow(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	studentID, borrowID := seedBorrow(t, db)

	found, err := ledger.FindForBorrow(ctx, db, borrowID, studentID)
	require.NoError(t, err)
	assert.Nil(t, found, "no fine exists yet")

	created, err := ledger.Create(ctx, db, studentID, borrowID, 40, "Late return: 1 days overdue")
	require.NoError(t, err)

	found, err = ledger.FindForBorrow(ctx, db, borrowID, studentID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestLedgerMarkPaid(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	studentID, borrowID := seedBorrow(t, db)

	fine, err := ledger.Create(ctx, db, studentID, borrowID, 120, "Late return: 3 days overdue")
	require.NoError(t, err)

	require.NoError(t, ledger.MarkPaid(ctx, db, fine.ID))

	paid, err := ledger.Get(ctx, fine.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)

	unpaid, err := ledger.ListUnpaid(ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	assert.ErrorIs(t, ledger.MarkPaid(ctx, db, fine.ID), ErrFineAlreadyPaid)
	assert.ErrorIs(t, ledger.MarkPaid(ctx, db, uuid.New()), ErrFineNotFound)
}

func TestLedgerGetNotFound(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	_, err := ledger.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrFineNotFound)
}

func TestLedgerRunsInsideCallerTransaction(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	studentID, borrowID := seedBorrow(t, db)

	err := store.InTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := ledger.Create(ctx, tx, studentID, borrowID, 120, "Late return: 3 days overdue"); err != nil {
			return err
		}
		return fmt.Errorf("force rollback")
	})
	require.Error(t, err)

	found, err := ledger.FindForBorrow(ctx, db, borrowID, studentID)
	require.NoError(t, err)
	assert.Nil(t, found, "rolled-back fine must not persist")
}
