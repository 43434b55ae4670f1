package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB captures executed statements without a real database.
type fakeDB struct {
	sqls []string
	args [][]any
	err  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	f.args = append(f.args, args)
	return pgconn.CommandTag{}, f.err
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestStore_RecordAssignsDefaults(t *testing.T) {
	db := &fakeDB{}
	store := NewStore(db)

	err := store.Record(context.Background(), Entry{
		ProfileKey: "contacts",
		Direction:  DirectionParse,
		Rows:       3,
		Succeeded:  true,
		Duration:   250 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(db.args) != 1 {
		t.Fatalf("Exec called %d times, want 1", len(db.args))
	}

	args := db.args[0]
	id, ok := args[0].(uuid.UUID)
	if !ok || id == uuid.Nil {
		t.Errorf("id arg = %v, want generated UUID", args[0])
	}
	if args[1] != "contacts" {
		t.Errorf("profile_key arg = %v, want contacts", args[1])
	}
	if args[3] != "parse" {
		t.Errorf("direction arg = %v, want parse", args[3])
	}
	if args[7] != int64(250) {
		t.Errorf("duration_ms arg = %v, want 250", args[7])
	}
	created, ok := args[8].(time.Time)
	if !ok || created.IsZero() {
		t.Errorf("created_at arg = %v, want assigned time", args[8])
	}
}

func TestNop_RecordDiscards(t *testing.T) {
	var rec Recorder = Nop{}
	if err := rec.Record(context.Background(), Entry{ProfileKey: "x"}); err != nil {
		t.Errorf("Nop.Record() error = %v, want nil", err)
	}
}
