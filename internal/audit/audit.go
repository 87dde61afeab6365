// internal/audit/audit.go

// Package audit persists a trail of staff actions. Recording is
// best-effort: a failed write is logged but never fails the operation
// that triggered it.
package audit

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var jsonit = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is one audit trail row.
type Entry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  uuid.UUID `json:"entity_id"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Logger writes audit entries. A nil Logger is safe to call and
// records nothing.
type Logger struct {
	db *sql.DB
}

// NewLogger creates an audit logger over the given database.
func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Record writes one audit entry. details may be any JSON-serializable
// value and lands in a JSONB column.
func (l *Logger) Record(ctx context.Context, actor, action, entity string, entityID uuid.UUID, details any) {
	if l == nil || l.db == nil {
		return
	}

	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = jsonit.Marshal(details)
		if err != nil {
			log.Printf("audit: failed to serialize details for %s %s: %v", action, entity, err)
			detailsJSON = nil
		}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_log (actor, action, entity, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, actor, action, entity, entityID, nullableJSON(detailsJSON), time.Now().UTC())
	if err != nil {
		log.Printf("audit: failed to record %s %s: %v", action, entity, err)
	}
}

// Recent returns the latest audit entries, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, actor, action, entity, COALESCE(entity_id, '00000000-0000-0000-0000-000000000000'),
			COALESCE(details::text, ''), created_at
		FROM audit_log
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.Entity, &entry.EntityID, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
