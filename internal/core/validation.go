package core

// validation.go provides the authoritative server-side check of a Submission.
//
// Every rule is evaluated, so a rejected submission reports all of its field
// errors at once. Validation is deterministic given the input and the
// validator's clock, which makes repeated validation of the same rejected
// input return the same errors.

import (
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies a field-level validation failure.
type ErrorKind string

const (
	KindInvalidFormat ErrorKind = "invalid_format"
	KindOutOfRange    ErrorKind = "out_of_range"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string    `json:"field"`
	Value   string    `json:"value,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is the list of field errors for one submission.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ByField maps each failing field to its message.
func (errs ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Has reports whether field failed validation.
func (errs ValidationErrors) Has(field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Validator checks submissions against the rule table.
type Validator struct {
	rules []FieldRule
	now   func() time.Time
	loc   *time.Location
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock replaces the wall clock used for the date-of-joining check.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLocation sets the time zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) ValidatorOption {
	return func(v *Validator) {
		if loc != nil {
			v.loc = loc
		}
	}
}

// NewValidator creates a validator using the package rule table.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		rules: rules,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Today returns the current calendar day as UTC midnight.
func (v *Validator) Today() time.Time {
	return CalendarDay(v.now(), v.loc)
}

// Validate trims every field and checks it against its rule. It returns
// either a normalized record and nil, or a zero record and every error found.
func (v *Validator) Validate(sub Submission) (EmployeeRecord, ValidationErrors) {
	today := v.Today()

	var clean Submission
	var errs ValidationErrors
	for _, r := range v.rules {
		value := CleanValue(sub.Value(r.Field))
		clean.Set(r.Field, value)

		if r.Check == nil {
			continue
		}
		if ve := r.Check(value, today); ve != nil {
			ve.Field = r.Field
			ve.Value = value
			errs = append(errs, *ve)
		}
	}

	if len(errs) > 0 {
		return EmployeeRecord{}, errs
	}
	return buildRecord(clean), nil
}

// buildRecord converts a submission that passed every rule.
func buildRecord(sub Submission) EmployeeRecord {
	id, _ := ParseEmployeeID(sub.EmployeeID)
	dept, _ := CanonicalDepartment(sub.Department)
	doj, _ := ParseDate(sub.DateOfJoining)

	return EmployeeRecord{
		EmployeeID:    id,
		Name:          sub.Name,
		Email:         sub.Email,
		Phone:         sub.Phone,
		Department:    dept,
		DateOfJoining: doj,
		Role:          sub.Role,
	}
}
