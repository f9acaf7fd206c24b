// Package core provides the business logic for employee record intake.
//
// The package is independent of any transport. Web handlers, the Lambda
// adapter and the CLI all drive the same [Service].
//
// # Flow
//
// A [Submission] is the raw textual payload of one intake attempt. It passes
// through two stages:
//
//  1. [Validator.Validate] trims every field and checks it against the rule
//     table returned by [Rules]. All field errors are reported together.
//  2. [Writer.Write] asks the [Store] for records sharing the employee id or
//     email, and inserts only if there are none.
//
// Each submission ends in exactly one [Outcome]: accepted, rejected,
// conflict or write_failed. Intermediate [State] transitions are logged at
// debug level, and the terminal outcome is written as an audit log line.
//
// # Rule Table
//
// The same [FieldRule] entries drive [ApplyEdit] (keystroke-level
// normalization for interactive clients), the authoritative Validate check,
// the /api/rules endpoint and the server-rendered form:
//
//	core.ApplyEdit(core.FieldPhone, "555123456", "5551234567") // "5551234567"
//	core.ApplyEdit(core.FieldPhone, "5551234567", "55512345678") // "5551234567"
//
// # Uniqueness
//
// The pre-check in Writer is not serialized with the insert. Every Store
// enforces uniqueness itself and reports a violation as [ErrDuplicate],
// which maps to the conflict outcome.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - EMP001-EMP005: Employee errors (conflict, write failed, rejected, not found)
//   - DB004-DB008: Storage connectivity
//   - REQ001-REQ004: Request errors (busy, cancelled, timeout, malformed)
package core
