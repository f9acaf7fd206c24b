// Package core provides the business logic for employee record intake.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by the service and the storage collaborators.
var (
	// ErrDuplicate is returned by a Store when its own uniqueness constraint
	// rejects an insert.
	ErrDuplicate = errors.New("duplicate employee id or email")

	// ErrNotFound is returned when a record lookup finds nothing.
	ErrNotFound = errors.New("employee not found")

	// ErrUnavailable is returned when the storage collaborator cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrInvalidEmployeeID is returned by lookups given a malformed id.
	ErrInvalidEmployeeID = errors.New("invalid employee id")
)

// Store is the storage collaborator used by the Writer.
// Implementations live under internal/store.
type Store interface {
	// FindConflicting returns every stored record whose employee id or
	// email matches. An empty result means no conflict.
	FindConflicting(ctx context.Context, employeeID int64, email string) ([]EmployeeRecord, error)

	// Insert persists a record. A uniqueness violation must be reported
	// as an error wrapping ErrDuplicate.
	Insert(ctx context.Context, rec EmployeeRecord) error

	// Get returns the record with the given id or ErrNotFound.
	Get(ctx context.Context, employeeID int64) (EmployeeRecord, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Department is one of the fixed organizational units.
type Department string

const (
	DepartmentHR          Department = "HR"
	DepartmentEngineering Department = "Engineering"
	DepartmentMarketing   Department = "Marketing"
)

// Departments lists the allowed departments in display order.
var Departments = []Department{DepartmentHR, DepartmentEngineering, DepartmentMarketing}

// Field names as they appear on the wire and in error maps.
const (
	FieldEmployeeID    = "employeeId"
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldDepartment    = "department"
	FieldDateOfJoining = "dateOfJoining"
	FieldRole          = "role"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// Submission is the raw textual payload of one intake attempt.
type Submission struct {
	EmployeeID    string `json:"employeeId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Department    string `json:"department"`
	DateOfJoining string `json:"dateOfJoining"`
	Role          string `json:"role"`
}

// EmptySubmission is the reset state of the intake form.
var EmptySubmission = Submission{}

// Value returns the raw value of the named field.
func (s Submission) Value(field string) string {
	switch field {
	case FieldEmployeeID:
		return s.EmployeeID
	case FieldName:
		return s.Name
	case FieldEmail:
		return s.Email
	case FieldPhone:
		return s.Phone
	case FieldDepartment:
		return s.Department
	case FieldDateOfJoining:
		return s.DateOfJoining
	case FieldRole:
		return s.Role
	default:
		return ""
	}
}

// Set assigns the raw value of the named field. Unknown fields are ignored.
func (s *Submission) Set(field, value string) {
	switch field {
	case FieldEmployeeID:
		s.EmployeeID = value
	case FieldName:
		s.Name = value
	case FieldEmail:
		s.Email = value
	case FieldPhone:
		s.Phone = value
	case FieldDepartment:
		s.Department = value
	case FieldDateOfJoining:
		s.DateOfJoining = value
	case FieldRole:
		s.Role = value
	}
}

// EmployeeRecord is a validated, normalized employee.
type EmployeeRecord struct {
	EmployeeID    int64      `json:"employeeId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Department    Department `json:"department"`
	DateOfJoining time.Time  `json:"dateOfJoining"`
	Role          string     `json:"role"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`
}

// Submission renders the record back into its textual form.
func (r EmployeeRecord) Submission() Submission {
	return Submission{
		EmployeeID:    formatEmployeeID(r.EmployeeID),
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Department:    string(r.Department),
		DateOfJoining: r.DateOfJoining.Format(DateLayout),
		Role:          r.Role,
	}
}

// Outcome is the terminal result of a submission.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeRejected    Outcome = "rejected"
	OutcomeConflict    Outcome = "conflict"
	OutcomeWriteFailed Outcome = "write_failed"
)

// User-facing outcome messages.
const (
	MsgAccepted    = "Employee added successfully!"
	MsgRejected    = "Please correct the highlighted fields"
	MsgConflict    = "Employee ID or Email already exists"
	MsgWriteFailed = "Failed to add employee"
)

// Message returns the user-facing message for the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeAccepted:
		return MsgAccepted
	case OutcomeRejected:
		return MsgRejected
	case OutcomeConflict:
		return MsgConflict
	default:
		return MsgWriteFailed
	}
}

// State is a step in the lifecycle of one submission.
type State string

const (
	StateReceived    State = "received"
	StateValidating  State = "validating"
	StateRejected    State = "rejected"
	StateChecking    State = "checking"
	StateConflict    State = "conflict"
	StateInserting   State = "inserting"
	StateAccepted    State = "accepted"
	StateWriteFailed State = "write_failed"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateConflict, StateAccepted, StateWriteFailed:
		return true
	}
	return false
}

// Result is the single terminal result of Service.Submit.
type Result struct {
	SubmissionID string
	Outcome      Outcome
	Message      string
	Errors       ValidationErrors
	Record       *EmployeeRecord

	// Err holds the technical cause of a WriteFailed outcome. It is logged,
	// never shown to users.
	Err error
}

// Accepted reports whether the record was stored.
func (r Result) Accepted() bool {
	return r.Outcome == OutcomeAccepted
}
