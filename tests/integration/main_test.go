// tests/integration/main_test.go

// Package integration exercises the library service end to end: the
// chi router, the borrowing lifecycle and the fine ledger against a
// real Postgres instance, driven purely over HTTP.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfmark/internal/audit"
	"shelfmark/internal/borrowing"
	"shelfmark/internal/catalog"
	"shelfmark/internal/config"
	"shelfmark/internal/fines"
	"shelfmark/internal/members"
	"shelfmark/internal/notify"
	"shelfmark/internal/payments"
	"shelfmark/internal/store"
)

type testSuite struct {
	db     *sql.DB
	server *httptest.Server
}

func setupTestSuite(t *testing.T) *testSuite {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
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

	ledger := fines.NewLedger(db)
	notifier := notify.NewNotifier(config.Mail{}, db)
	gateway := payments.NewGateway(config.MPesa{})
	auditLog := audit.NewLogger(db)

	router := chi.NewRouter()
	router.Group(borrowing.NewHandler(borrowing.NewService(db, ledger, notifier, gateway, auditLog)).Routes)
	router.Group(catalog.NewHandler(catalog.NewService(db)).Routes)
	router.Group(members.NewHandler(members.NewService(db)).Routes)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testSuite{db: db, server: server}
}

func (ts *testSuite) post(t *testing.T, path string, payload any, out any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(ts.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (ts *testSuite) get(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestBorrowReturnFineFlow(t *testing.T) {
	ts := setupTestSuite(t)

	student := &members.Student{}
	resp := ts.post(t, "/students", map[string]string{
		"name":  "Wanjiku Kamau",
		"email": "wanjiku@students.uonbi.ac.ke",
		"phone": "254700000000",
	}, student)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	book := &catalog.Book{}
	resp = ts.post(t, "/books", map[string]any{
		"isbn":         "9787561949992",
		"title":        "HSK Standard Course 3",
		"author":       "Jiang Liping",
		"total_copies": 2,
	}, book)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, book.Available)

	record := &borrowing.BorrowRecord{}
	resp = ts.post(t, "/borrows", map[string]string{
		"book_id":    book.ID.String(),
		"student_id": student.ID.String(),
	}, record)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, record.BorrowedAt.Add(borrowing.LoanPeriod), record.DueDate)

	// One copy is out, availability drops.
	var got catalog.Book
	resp = ts.get(t, "/books/"+book.ID.String(), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, got.Available)

	// Push the due date three days into the past so the return is late.
	_, err := ts.db.Exec(`
		UPDATE borrow_records SET due_date = NOW() - INTERVAL '2 days 12 hours' WHERE id = $1
	`, record.ID)
	require.NoError(t, err)

	result := &borrowing.ReturnResult{}
	resp = ts.post(t, "/borrows/"+record.ID.String()+"/return", map[string]string{}, result)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, "an overdue return reports a pending fine")
	require.NotNil(t, result.Fine)
	assert.True(t, result.FinePending)
	assert.Equal(t, 3*borrowing.DailyFineRate, result.Fine.Amount)
	assert.Equal(t, "Late return: 3 days overdue", result.Fine.Reason)

	// The copy is back on the shelf even while the fine is outstanding.
	resp = ts.get(t, "/books/"+book.ID.String(), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, got.Available)

	var unpaid []*fines.Fine
	resp = ts.get(t, "/fines", &unpaid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, unpaid, 1)

	paid := &fines.Fine{}
	resp = ts.post(t, "/fines/"+result.Fine.ID.String()+"/pay", map[string]string{
		"phone_number": "254712345678",
	}, paid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)

	// A second return of the same record conflicts.
	resp = ts.post(t, "/borrows/"+record.ID.String()+"/return", map[string]string{}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestConcurrentBorrowsPreventOversubscription(t *testing.T) {
	ts := setupTestSuite(t)

	book := &catalog.Book{}
	resp := ts.post(t, "/books", map[string]any{
		"title":        "The Great Gatsby",
		"author":       "F. Scott Fitzgerald",
		"total_copies": 1,
	}, book)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var students []*members.Student
	for i := 0; i < 10; i++ {
		student := &members.Student{}
		resp := ts.post(t, "/students", map[string]string{
			"name":  fmt.Sprintf("Student %d", i),
			"email": fmt.Sprintf("student%d@students.test", i),
		}, student)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		students = append(students, student)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for _, student := range students {
		wg.Add(1)
		go func(s *members.Student) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{
				"book_id":    book.ID.String(),
				"student_id": s.ID.String(),
			})
			resp, err := http.Post(ts.server.URL+"/borrows", "application/json", bytes.NewReader(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(student)
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "only one concurrent borrow of the last copy should succeed")

	var got catalog.Book
	resp = ts.get(t, "/books/"+book.ID.String(), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, got.Available)
}

func TestStudentLoanCapOverHTTP(t *testing.T) {
	ts := setupTestSuite(t)

	student := &members.Student{}
	resp := ts.post(t, "/students", map[string]string{
		"name":  "Busy Reader",
		"email": "busy@students.test",
	}, student)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for i := 0; i < borrowing.MaxStudentLoans; i++ {
		book := &catalog.Book{}
		resp := ts.post(t, "/books", map[string]any{
			"title":        fmt.Sprintf("Book %d", i),
			"total_copies": 1,
		}, book)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = ts.post(t, "/borrows", map[string]string{
			"book_id":    book.ID.String(),
			"student_id": student.ID.String(),
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	extra := &catalog.Book{}
	resp = ts.post(t, "/books", map[string]any{"title": "One Too Many", "total_copies": 1}, extra)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.post(t, "/borrows", map[string]string{
		"book_id":    extra.ID.String(),
		"student_id": student.ID.String(),
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	fetched := &members.Student{}
	resp = ts.get(t, "/students/"+student.ID.String(), fetched)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, borrowing.MaxStudentLoans, fetched.ActiveBorrows)
}
