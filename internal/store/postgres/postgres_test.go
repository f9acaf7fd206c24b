package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/intake/internal/core"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeDB struct {
	execErr  error
	execSQL  string
	execArgs []any

	rows     []core.EmployeeRecord
	queryErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{recs: f.rows, idx: -1}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{rec: f.rows[0]}
}

type fakeRow struct {
	rec core.EmployeeRecord
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return fill(r.rec, dest)
}

type fakeRows struct {
	recs []core.EmployeeRecord
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { r.idx++; return r.idx < len(r.recs) }
func (r *fakeRows) Scan(dest ...any) error                       { return fill(r.recs[r.idx], dest) }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func fill(rec core.EmployeeRecord, dest []any) error {
	if len(dest) != 8 {
		return fmt.Errorf("scan: got %d destinations, want 8", len(dest))
	}
	*dest[0].(*int64) = rec.EmployeeID
	*dest[1].(*string) = rec.Name
	*dest[2].(*string) = rec.Email
	*dest[3].(*string) = rec.Phone
	*dest[4].(*string) = string(rec.Department)
	*dest[5].(*pgtype.Date) = pgtype.Date{Time: rec.DateOfJoining, Valid: true}
	*dest[6].(*string) = rec.Role
	*dest[7].(*pgtype.Timestamptz) = pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true}
	return nil
}

func record(id int64, email string) core.EmployeeRecord {
	return core.EmployeeRecord{
		EmployeeID:    id,
		Name:          "Ada Lovelace",
		Email:         email,
		Phone:         "5551234567",
		Department:    core.DepartmentEngineering,
		DateOfJoining: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Role:          "Engineer",
		CreatedAt:     time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantDuplicate bool
		wantUnavail   bool
	}{
		{
			name:          "email unique violation",
			err:           &pgconn.PgError{Code: "23505", ConstraintName: "employees_email_key"},
			wantDuplicate: true,
		},
		{
			name:          "primary key violation",
			err:           fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "employees_pkey"}),
			wantDuplicate: true,
		},
		{
			name: "check violation",
			err:  &pgconn.PgError{Code: "23514", ConstraintName: "employees_phone_check"},
		},
		{
			name: "other error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.wantDuplicate, errors.Is(got, core.ErrDuplicate))
			assert.Equal(t, tt.wantUnavail, errors.Is(got, core.ErrUnavailable))
		})
	}
}

func TestInsert_PassesColumns(t *testing.T) {
	db := &fakeDB{}
	rec := record(1, "ada@example.com")

	require.NoError(t, New(db).Insert(context.Background(), rec))
	require.Len(t, db.execArgs, 8)
	assert.Equal(t, int64(1), db.execArgs[0])
	assert.Equal(t, "ada@example.com", db.execArgs[2])
	assert.Equal(t, "Engineering", db.execArgs[4])
	assert.Equal(t, pgtype.Date{Time: rec.DateOfJoining, Valid: true}, db.execArgs[5])
	assert.Equal(t, rec.CreatedAt, db.execArgs[7])
}

func TestInsert_Duplicate(t *testing.T) {
	db := &fakeDB{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "employees_pkey"}}

	err := New(db).Insert(context.Background(), record(1, "ada@example.com"))
	assert.ErrorIs(t, err, core.ErrDuplicate)
	assert.Contains(t, err.Error(), "employees_pkey")
}

func TestGet(t *testing.T) {
	rec := record(1, "ada@example.com")
	got, err := New(&fakeDB{rows: []core.EmployeeRecord{rec}}).Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = New(&fakeDB{}).Get(context.Background(), 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFindConflicting(t *testing.T) {
	db := &fakeDB{rows: []core.EmployeeRecord{record(1, "ada@example.com"), record(2, "grace@example.com")}}

	got, err := New(db).FindConflicting(context.Background(), 1, "grace@example.com")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].EmployeeID)

	db.queryErr = errors.New("connection refused")
	_, err = New(db).FindConflicting(context.Background(), 1, "grace@example.com")
	assert.Error(t, err)
}

func TestSchemaDeclaresConstraints(t *testing.T) {
	assert.Contains(t, schemaSQL, "employee_id     BIGINT       PRIMARY KEY")
	assert.Contains(t, schemaSQL, "CREATE UNIQUE INDEX IF NOT EXISTS employees_email_key ON employees (lower(email))")
}
