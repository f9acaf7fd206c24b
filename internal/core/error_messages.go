package core

// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes that
// users can quote to support staff.
//
// # Employee Errors (EMP001-EMP099)
//
//	EMP001 - Conflict: Employee ID or Email already exists
//	         Patterns: "duplicate employee id or email"
//	EMP002 - Write failed: Failed to add employee
//	         Patterns: "failed to add employee"
//	EMP003 - Rejected: One or more fields are invalid
//	         Patterns: "validation failed"
//	EMP004 - Not found: No employee with this ID
//	         Patterns: "employee not found"
//	EMP005 - Invalid ID: Employee ID is not a positive integer
//	         Patterns: "invalid employee id"
//
// # Storage Errors (DB004-DB099)
//
//	DB004 - Connection refused      Patterns: "connection refused"
//	DB005 - Connection reset        Patterns: "connection reset"
//	DB006 - Timeout                 Patterns: "timeout", "i/o timeout"
//	DB007 - Deadlock                Patterns: "deadlock"
//	DB008 - Storage unavailable     Patterns: "storage unavailable"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - System busy            Patterns: "too many concurrent submissions"
//	REQ002 - Request cancelled      Patterns: "context canceled"
//	REQ003 - Request timeout        Patterns: "context deadline exceeded"
//	REQ004 - Malformed request      Patterns: "malformed request"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests     Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Support staff should check the
// application logs (keyed by request_id and submission_id) for the cause.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgEmpConflict = UserMessage{
		Message: MsgConflict,
		Action:  "Use a different Employee ID or Email",
		Code:    "EMP001",
	}
	msgEmpWriteFailed = UserMessage{
		Message: MsgWriteFailed,
		Action:  "Please try again in a few moments",
		Code:    "EMP002",
	}
	msgEmpRejected = UserMessage{
		Message: MsgRejected,
		Action:  "Fix the fields marked in red and submit again",
		Code:    "EMP003",
	}
)

var errorPatterns = []errorPattern{
	// =========================================================================
	// Employee Errors (EMP001-EMP005)
	// =========================================================================
	{pattern: "duplicate employee id or email", msg: msgEmpConflict},
	{pattern: "failed to add employee", msg: msgEmpWriteFailed},
	{pattern: "validation failed", msg: msgEmpRejected},
	{
		pattern: "employee not found",
		msg: UserMessage{
			Message: "No employee with this ID",
			Action:  "Check the Employee ID and try again",
			Code:    "EMP004",
		},
	},
	{
		pattern: "invalid employee id",
		msg: UserMessage{
			Message: "Employee ID must be a valid positive integer",
			Action:  "Use digits only",
			Code:    "EMP005",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ004)
	// Matched before storage errors: a deadline error also reads as a timeout.
	// =========================================================================
	{
		pattern: "too many concurrent submissions",
		msg: UserMessage{
			Message: "System is busy processing other submissions",
			Action:  "Please wait a moment and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "malformed request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send a JSON object with the employee fields",
			Code:    "REQ004",
		},
	},

	// =========================================================================
	// Storage Errors (DB004-DB008)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "storage unavailable",
		msg: UserMessage{
			Message: "Employee storage is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "DB008",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
//	msg := MapError(fmt.Errorf("insert: %w", ErrDuplicate))
//	// msg.Code == "EMP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// OutcomeMessage returns the user message for a terminal outcome.
// Accepted has no code.
func OutcomeMessage(o Outcome) UserMessage {
	switch o {
	case OutcomeAccepted:
		return UserMessage{Message: MsgAccepted}
	case OutcomeRejected:
		return msgEmpRejected
	case OutcomeConflict:
		return msgEmpConflict
	default:
		return msgEmpWriteFailed
	}
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
