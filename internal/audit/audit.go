// Package audit records conversion outcomes in PostgreSQL. Auditing is
// optional: when no database is configured the service uses the no-op
// recorder and behaves identically otherwise.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the database interface the store needs. Satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Direction distinguishes parse (spreadsheet in) from generate
// (spreadsheet/CSV out) operations.
type Direction string

const (
	DirectionParse    Direction = "parse"
	DirectionGenerate Direction = "generate"
)

// Entry is one audited conversion.
type Entry struct {
	ID         uuid.UUID
	ProfileKey string
	FileName   string
	Direction  Direction
	Rows       int
	Succeeded  bool
	Detail     string // error summary when Succeeded is false
	Duration   time.Duration
	CreatedAt  time.Time
}

// Recorder is the capability the web layer depends on.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Nop is a Recorder that discards entries. Used when auditing is disabled.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// Store persists entries to PostgreSQL.
type Store struct {
	db DBTX
}

// NewStore returns a store writing through the given connection.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the audit table if it does not exist. Called once at
// startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversion_audit (
			id          UUID PRIMARY KEY,
			profile_key TEXT NOT NULL,
			file_name   TEXT,
			direction   TEXT NOT NULL,
			row_count   INTEGER NOT NULL,
			succeeded   BOOLEAN NOT NULL,
			detail      TEXT,
			duration_ms BIGINT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create conversion_audit table: %w", err)
	}
	return nil
}

// Record implements Recorder. A zero ID is assigned a fresh UUID and a zero
// CreatedAt the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	detail := pgtype.Text{String: e.Detail, Valid: e.Detail != ""}
	fileName := pgtype.Text{String: e.FileName, Valid: e.FileName != ""}

	_, err := s.db.Exec(ctx, `
		INSERT INTO conversion_audit
			(id, profile_key, file_name, direction, row_count, succeeded, detail, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ProfileKey, fileName, string(e.Direction), e.Rows,
		e.Succeeded, detail, e.Duration.Milliseconds(), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
