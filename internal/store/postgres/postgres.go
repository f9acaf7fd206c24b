// Package postgres stores employee records in PostgreSQL via pgx.
//
// The employees table carries a primary key on employee_id and a unique
// index on lower(email), so a lost check-then-insert race surfaces as SQLSTATE
// 23505 and is reported as core.ErrDuplicate.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// SQLSTATE codes.
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const selectColumns = `employee_id, name, email, phone, department, date_of_joining, role, created_at`

const (
	findConflictingSQL = `SELECT ` + selectColumns + ` FROM employees
WHERE employee_id = $1 OR lower(email) = lower($2)
ORDER BY employee_id`

	insertSQL = `INSERT INTO employees
(employee_id, name, email, phone, department, date_of_joining, role, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getSQL = `SELECT ` + selectColumns + ` FROM employees WHERE employee_id = $1`
)

// Store is a core.Store backed by PostgreSQL.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New wraps an existing connection or transaction.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Open creates a connection pool from cfg and verifies connectivity.
// Connection failures wrap core.ErrUnavailable.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %w", core.ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", core.ErrUnavailable, err)
	}

	return &Store{db: pool, pool: pool}, nil
}

// FindConflicting returns rows sharing the employee id or email.
func (s *Store) FindConflicting(ctx context.Context, employeeID int64, email string) ([]core.EmployeeRecord, error) {
	rows, err := s.db.Query(ctx, findConflictingSQL, employeeID, email)
	if err != nil {
		return nil, fmt.Errorf("query conflicting employees: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.EmployeeRecord, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan conflicting employees: %w", err)
	}
	return recs, nil
}

// Insert adds rec. Unique violations wrap core.ErrDuplicate.
func (s *Store) Insert(ctx context.Context, rec core.EmployeeRecord) error {
	_, err := s.db.Exec(ctx, insertSQL,
		rec.EmployeeID,
		rec.Name,
		rec.Email,
		rec.Phone,
		string(rec.Department),
		pgtype.Date{Time: rec.DateOfJoining, Valid: true},
		rec.Role,
		createdAt(rec),
	)
	if err != nil {
		return classify(err)
	}
	return nil
}

// Get returns the employee with the given id.
func (s *Store) Get(ctx context.Context, employeeID int64) (core.EmployeeRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, getSQL, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.EmployeeRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.EmployeeRecord{}, fmt.Errorf("get employee %d: %w", employeeID, err)
	}
	return rec, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Migrate creates the employees table and its email index if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate employees table: %w", err)
	}
	return nil
}

// Close releases the pool, if the store owns one.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// scanner is satisfied by pgx.Row and pgx.CollectableRow.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (core.EmployeeRecord, error) {
	var (
		rec  core.EmployeeRecord
		dept string
		doj  pgtype.Date
		ts   pgtype.Timestamptz
	)
	if err := row.Scan(&rec.EmployeeID, &rec.Name, &rec.Email, &rec.Phone, &dept, &doj, &rec.Role, &ts); err != nil {
		return core.EmployeeRecord{}, err
	}
	rec.Department = core.Department(dept)
	if doj.Valid {
		y, m, d := doj.Time.Date()
		rec.DateOfJoining = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if ts.Valid {
		rec.CreatedAt = ts.Time.UTC()
	}
	return rec, nil
}

func createdAt(rec core.EmployeeRecord) time.Time {
	if rec.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return rec.CreatedAt
}

// classify maps driver errors onto core sentinels.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", core.ErrDuplicate, pgErr.ConstraintName)
		case checkViolation:
			return fmt.Errorf("insert employee: check %s failed: %w", pgErr.ConstraintName, err)
		}
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("insert employee: %w: %w", core.ErrUnavailable, err)
	}
	return fmt.Errorf("insert employee: %w", err)
}
