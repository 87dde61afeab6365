// internal/audit/audit_test.go
package audit

import (
	"context"
	"database/sql"
	"os"
	"testing"

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
	_, err = db.ExecContext(ctx, "TRUNCATE audit_log CASCADE")
	require.NoError(t, err)
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := setupTestDB(t)
	logger := NewLogger(db)
	ctx := context.Background()

	firstID := uuid.New()
	logger.Record(ctx, "librarian@uonbi.ac.ke", "borrow", "borrow_record", firstID, map[string]any{
		"book_id": uuid.New(),
	})
	secondID := uuid.New()
	logger.Record(ctx, "librarian@uonbi.ac.ke", "pay_fine", "fine", secondID, map[string]any{
		"amount": 120,
	})

	entries, err := logger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "pay_fine", entries[0].Action)
	assert.Equal(t, secondID, entries[0].EntityID)
	assert.Contains(t, entries[0].Details, `"amount"`)
	assert.Contains(t, entries[0].Details, `120`)
	assert.Equal(t, "borrow", entries[1].Action)

	limited, err := logger.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "pay_fine", limited[0].Action)
}

func TestRecentDefaultsLimit(t *testing.T) {
	db := setupTestDB(t)
	logger := NewLogger(db)
	ctx := context.Background()

	logger.Record(ctx, "librarian@uonbi.ac.ke", "return", "borrow_record", uuid.New(), nil)

	entries, err := logger.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Details, "nil details stay empty")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Record(context.Background(), "nobody", "noop", "nothing", uuid.New(), nil)
}
