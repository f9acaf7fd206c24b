// Package mysql stores employee records in MySQL via go-sql-driver/mysql.
//
// Uniqueness is enforced by the primary key on employee_id and the unique
// functional key on LOWER(email); error 1062 (ER_DUP_ENTRY) is reported as core.ErrDuplicate.
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// MySQL server error numbers.
const (
	erDupEntry   = 1062
	erServerGone = 2006
	erServerLost = 2013
)

const selectColumns = `employee_id, name, email, phone, department, date_of_joining, role, created_at`

const (
	findConflictingSQL = `SELECT ` + selectColumns + ` FROM employees
WHERE employee_id = ? OR LOWER(email) = LOWER(?)
ORDER BY employee_id`

	insertSQL = `INSERT INTO employees
(employee_id, name, email, phone, department, date_of_joining, role, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	getSQL = `SELECT ` + selectColumns + ` FROM employees WHERE employee_id = ?`
)

// Store is a core.Store backed by MySQL.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects using cfg.DSN and verifies connectivity.
// Connection failures wrap core.ErrUnavailable.
func Open(ctx context.Context, cfg config.MySQLConfig) (*Store, error) {
	dsn, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping mysql: %w", core.ErrUnavailable, err)
	}
	return &Store{db: db}, nil
}

// ParseDSN parses a DSN and forces the options the store relies on:
// DATE/DATETIME columns scan into time.Time in UTC.
func ParseDSN(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg, nil
}

// FindConflicting returns rows sharing the employee id or email.
func (s *Store) FindConflicting(ctx context.Context, employeeID int64, email string) ([]core.EmployeeRecord, error) {
	rows, err := s.db.QueryContext(ctx, findConflictingSQL, employeeID, email)
	if err != nil {
		return nil, fmt.Errorf("query conflicting employees: %w", err)
	}
	defer rows.Close()

	var out []core.EmployeeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conflicting employees: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflicting employees: %w", err)
	}
	return out, nil
}

// Insert adds rec. Duplicate keys wrap core.ErrDuplicate.
func (s *Store) Insert(ctx context.Context, rec core.EmployeeRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, insertSQL,
		rec.EmployeeID,
		rec.Name,
		rec.Email,
		rec.Phone,
		string(rec.Department),
		rec.DateOfJoining.Format(core.DateLayout),
		rec.Role,
		created,
	)
	if err != nil {
		return classify(err)
	}
	return nil
}

// Get returns the employee with the given id.
func (s *Store) Get(ctx context.Context, employeeID int64) (core.EmployeeRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, getSQL, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.EmployeeRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.EmployeeRecord{}, fmt.Errorf("get employee %d: %w", employeeID, err)
	}
	return rec, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the employees table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate employees table: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (core.EmployeeRecord, error) {
	var (
		rec  core.EmployeeRecord
		dept string
		doj  time.Time
	)
	if err := row.Scan(&rec.EmployeeID, &rec.Name, &rec.Email, &rec.Phone, &dept, &doj, &rec.Role, &rec.CreatedAt); err != nil {
		return core.EmployeeRecord{}, err
	}
	rec.Department = core.Department(dept)
	rec.DateOfJoining = core.CalendarDay(doj, time.UTC)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

// classify maps driver errors onto core sentinels.
func classify(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erDupEntry:
			return fmt.Errorf("%w: %s", core.ErrDuplicate, myErr.Message)
		case erServerGone, erServerLost:
			return fmt.Errorf("insert employee: %w: %w", core.ErrUnavailable, err)
		}
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("insert employee: %w: %w", core.ErrUnavailable, err)
	}
	return fmt.Errorf("insert employee: %w", err)
}
