// Package api defines the JSON shapes exchanged with intake clients. The
// HTTP server and the Lambda adapter both encode these types.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JonMunkholm/intake/internal/core"
)

// SubmitResponse is the result of one submission.
type SubmitResponse struct {
	Success      bool              `json:"success"`
	Outcome      core.Outcome      `json:"outcome"`
	Message      string            `json:"message"`
	Code         string            `json:"code,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
	SubmissionID string            `json:"submissionId"`
	Employee     *EmployeeResponse `json:"employee,omitempty"`
}

// EmployeeResponse is a stored employee as clients see it.
type EmployeeResponse struct {
	EmployeeID    int64      `json:"employeeId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Department    string     `json:"department"`
	DateOfJoining string     `json:"dateOfJoining"`
	Role          string     `json:"role"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// RulesResponse describes the intake form to interactive clients.
type RulesResponse struct {
	Fields      []core.FieldRule `json:"fields"`
	Departments []string         `json:"departments"`
	Today       string           `json:"today"`
}

// NormalizeRequest asks for the incremental edit rule of one field.
type NormalizeRequest struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Value    string `json:"value"`
}

// NormalizeResponse carries the normalized value.
type NormalizeResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// HealthResponse reports storage reachability and write slots.
type HealthResponse struct {
	Status  string                   `json:"status"`
	Storage string                   `json:"storage"`
	Writes  core.SubmitLimiterStatus `json:"writes"`
}

// ErrMalformed marks a request body that could not be decoded.
var ErrMalformed = errors.New("malformed request")

// NewSubmitResponse converts a service result.
func NewSubmitResponse(res core.Result) SubmitResponse {
	out := SubmitResponse{
		Success:      res.Accepted(),
		Outcome:      res.Outcome,
		Message:      res.Message,
		Code:         core.OutcomeMessage(res.Outcome).Code,
		SubmissionID: res.SubmissionID,
	}
	if len(res.Errors) > 0 {
		out.Errors = res.Errors.ByField()
	}
	if res.Record != nil {
		emp := NewEmployeeResponse(*res.Record)
		out.Employee = &emp
	}
	return out
}

// NewEmployeeResponse converts a stored record.
func NewEmployeeResponse(rec core.EmployeeRecord) EmployeeResponse {
	out := EmployeeResponse{
		EmployeeID:    rec.EmployeeID,
		Name:          rec.Name,
		Email:         rec.Email,
		Phone:         rec.Phone,
		Department:    string(rec.Department),
		DateOfJoining: rec.DateOfJoining.Format(core.DateLayout),
		Role:          rec.Role,
	}
	if !rec.CreatedAt.IsZero() {
		t := rec.CreatedAt.UTC()
		out.CreatedAt = &t
	}
	return out
}

// NewErrorResponse converts a mapped user message.
func NewErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// NewRulesResponse describes the form for the given calendar day.
func NewRulesResponse(fields []core.FieldRule, today time.Time) RulesResponse {
	depts := make([]string, len(core.Departments))
	for i, d := range core.Departments {
		depts[i] = string(d)
	}
	return RulesResponse{
		Fields:      fields,
		Departments: depts,
		Today:       today.Format(core.DateLayout),
	}
}

// StatusFor maps a submission outcome to its HTTP status.
func StatusFor(o core.Outcome) int {
	switch o {
	case core.OutcomeAccepted:
		return http.StatusCreated
	case core.OutcomeRejected:
		return http.StatusBadRequest
	case core.OutcomeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorStatus maps a lookup or decoding error to its HTTP status.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrMalformed), errors.Is(err, core.ErrInvalidEmployeeID):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeSubmission reads a JSON submission. Unknown fields are ignored;
// anything else that fails to decode wraps ErrMalformed.
func DecodeSubmission(r io.Reader) (core.Submission, error) {
	var sub core.Submission
	if err := decode(r, &sub); err != nil {
		return core.Submission{}, err
	}
	return sub, nil
}

// DecodeNormalize reads a NormalizeRequest.
func DecodeNormalize(r io.Reader) (NormalizeRequest, error) {
	var req NormalizeRequest
	if err := decode(r, &req); err != nil {
		return NormalizeRequest{}, err
	}
	if _, ok := core.RuleFor(req.Field); !ok {
		return NormalizeRequest{}, fmt.Errorf("%w: unknown field %q", ErrMalformed, req.Field)
	}
	return req, nil
}

func decode(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}
