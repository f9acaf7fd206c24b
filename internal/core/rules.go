package core

// rules.go defines the per-field rule table. The same table drives incremental
// edit normalization for interactive clients, the authoritative Validate check,
// the /api/rules endpoint and the rendered intake form.

import (
	"fmt"
	"strings"
	"time"
)

// FieldRule describes how one submission field is edited and checked.
type FieldRule struct {
	Field      string   `json:"field"`
	Label      string   `json:"label"`
	Required   bool     `json:"required"`
	MaxLength  int      `json:"maxLength,omitempty"`
	InputType  string   `json:"inputType"`
	InputMode  string   `json:"inputMode,omitempty"`
	Pattern    string   `json:"pattern,omitempty"`
	EnumValues []string `json:"enumValues,omitempty"`
	Hint       string   `json:"hint,omitempty"`

	// Edit normalizes an in-progress value. previous is the last accepted
	// value and is returned when the edit must be refused. Nil means pass through.
	Edit func(previous, value string) string `json:"-"`

	// Check validates a trimmed value against today's calendar date (UTC
	// midnight). Field and Value of the returned error are filled in by
	// the Validator.
	Check func(value string, today time.Time) *ValidationError `json:"-"`
}

// Validation messages.
const (
	msgEmployeeID      = "Employee ID must be a valid positive integer"
	msgNameRequired    = "Name is required"
	msgNameChars       = "Name may contain only letters and spaces"
	msgEmail           = "Please enter a valid email address (e.g., example@gmail.com)"
	msgPhone           = "Phone number must be exactly 10 digits"
	msgDateRequired    = "Date of joining is required"
	msgDateFormat      = "Date of joining must be a valid date (YYYY-MM-DD)"
	msgDateFuture      = "Date of joining cannot be in the future"
	msgRoleRequired    = "Role is required"
	maxNameLength      = 100
	maxEmailLength     = 254
	maxRoleLength      = 100
	maxEmployeeIDChars = 18
)

var rules = []FieldRule{
	{
		Field:     FieldEmployeeID,
		Label:     "Employee ID",
		Required:  true,
		MaxLength: maxEmployeeIDChars,
		InputType: "text",
		InputMode: "numeric",
		Pattern:   "[0-9]+",
		Hint:      msgEmployeeID,
		Edit: func(_, value string) string {
			return StripNonDigits(value)
		},
		Check: func(value string, _ time.Time) *ValidationError {
			if _, ok := ParseEmployeeID(value); !ok {
				return invalidFormat(msgEmployeeID)
			}
			return nil
		},
	},
	{
		Field:     FieldName,
		Label:     "Name",
		Required:  true,
		MaxLength: maxNameLength,
		InputType: "text",
		Pattern:   "[A-Za-z\\s]+",
		Hint:      msgNameChars,
		Edit: func(_, value string) string {
			return StripNonNameChars(value)
		},
		Check: func(value string, _ time.Time) *ValidationError {
			switch {
			case value == "":
				return invalidFormat(msgNameRequired)
			case !nameRegex.MatchString(value):
				return invalidFormat(msgNameChars)
			case len(value) > maxNameLength:
				return invalidFormat(tooLong("Name", maxNameLength))
			}
			return nil
		},
	},
	{
		Field:     FieldEmail,
		Label:     "Email",
		Required:  true,
		MaxLength: maxEmailLength,
		InputType: "email",
		Hint:      msgEmail,
		Check: func(value string, _ time.Time) *ValidationError {
			if !emailRegex.MatchString(value) {
				return invalidFormat(msgEmail)
			}
			if len(value) > maxEmailLength {
				return invalidFormat(tooLong("Email", maxEmailLength))
			}
			return nil
		},
	},
	{
		Field:     FieldPhone,
		Label:     "Phone",
		Required:  true,
		MaxLength: PhoneDigits,
		InputType: "tel",
		InputMode: "numeric",
		Pattern:   "[0-9]{10}",
		Hint:      msgPhone,
		Edit: func(previous, value string) string {
			digits := StripNonDigits(value)
			if len(digits) > PhoneDigits {
				return previous
			}
			return digits
		},
		Check: func(value string, _ time.Time) *ValidationError {
			if !phoneRegex.MatchString(value) {
				return invalidFormat(msgPhone)
			}
			return nil
		},
	},
	{
		Field:      FieldDepartment,
		Label:      "Department",
		Required:   true,
		InputType:  "select",
		EnumValues: departmentNames(),
		Hint:       departmentMessage(),
		Check: func(value string, _ time.Time) *ValidationError {
			if _, ok := CanonicalDepartment(value); !ok {
				return invalidFormat(departmentMessage())
			}
			return nil
		},
	},
	{
		Field:     FieldDateOfJoining,
		Label:     "Date of Joining",
		Required:  true,
		InputType: "date",
		Pattern:   "\\d{4}-\\d{2}-\\d{2}",
		Hint:      msgDateFuture,
		Check: func(value string, today time.Time) *ValidationError {
			if value == "" {
				return invalidFormat(msgDateRequired)
			}
			doj, ok := ParseDate(value)
			if !ok {
				return invalidFormat(msgDateFormat)
			}
			if doj.After(today) {
				return &ValidationError{Kind: KindOutOfRange, Message: msgDateFuture}
			}
			return nil
		},
	},
	{
		Field:     FieldRole,
		Label:     "Role",
		Required:  true,
		MaxLength: maxRoleLength,
		InputType: "text",
		Check: func(value string, _ time.Time) *ValidationError {
			if value == "" {
				return invalidFormat(msgRoleRequired)
			}
			if len(value) > maxRoleLength {
				return invalidFormat(tooLong("Role", maxRoleLength))
			}
			return nil
		},
	},
}

// Rules returns a copy of the rule table in form order.
func Rules() []FieldRule {
	out := make([]FieldRule, len(rules))
	copy(out, rules)
	return out
}

// RuleFor returns the rule for the named field.
func RuleFor(field string) (FieldRule, bool) {
	for _, r := range rules {
		if r.Field == field {
			return r, true
		}
	}
	return FieldRule{}, false
}

// ApplyEdit normalizes an in-progress edit of field. Unknown fields and
// fields without an edit rule pass value through unchanged.
func ApplyEdit(field, previous, value string) string {
	r, ok := RuleFor(field)
	if !ok || r.Edit == nil {
		return value
	}
	return r.Edit(previous, value)
}

func invalidFormat(msg string) *ValidationError {
	return &ValidationError{Kind: KindInvalidFormat, Message: msg}
}

func tooLong(label string, max int) string {
	return fmt.Sprintf("%s must be at most %d characters", label, max)
}

func departmentMessage() string {
	return "Department must be one of: " + strings.Join(departmentNames(), ", ")
}
