package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JonMunkholm/intake/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionEmployeeSubmit AuditAction = "employee_submit"
	ActionEmployeeLookup AuditAction = "employee_lookup"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

type clientInfoKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// ContextWithClient records the caller's address and User-Agent for audit logging.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

// ClientFromContext returns the values stored by ContextWithClient.
func ClientFromContext(ctx context.Context) (ip, userAgent string) {
	if v, ok := ctx.Value(clientInfoKey{}).(clientInfo); ok {
		return v.ip, v.userAgent
	}
	return "", ""
}

// determineSeverity ranks outcomes: stored records and storage failures
// matter most, rejected input least.
func determineSeverity(o Outcome) AuditSeverity {
	switch o {
	case OutcomeAccepted, OutcomeWriteFailed:
		return SeverityHigh
	case OutcomeConflict:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// auditSubmission writes one structured audit line per terminal outcome.
func (s *Service) auditSubmission(ctx context.Context, sub Submission, res Result) {
	ip, ua := ClientFromContext(ctx)

	attrs := []slog.Attr{
		slog.String("action", string(ActionEmployeeSubmit)),
		slog.String("severity", string(determineSeverity(res.Outcome))),
		slog.String("outcome", string(res.Outcome)),
		slog.String("employee_id", CleanValue(sub.EmployeeID)),
		slog.String("ip_address", ip),
		slog.String("user_agent", ua),
	}
	if len(res.Errors) > 0 {
		fields := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			fields[i] = e.Field
		}
		attrs = append(attrs, slog.Any("invalid_fields", fields))
	}

	level := slog.LevelInfo
	if res.Err != nil {
		attrs = append(attrs, slog.String("error", res.Err.Error()))
		if res.Outcome == OutcomeWriteFailed {
			level = slog.LevelError
		}
	}

	logging.FromContext(ctx).LogAttrs(ctx, level, "audit", attrs...)
}

// auditLookup writes one audit line per lookup. Storage failures are logged
// at error level; misses and bad ids at info.
func (s *Service) auditLookup(ctx context.Context, employeeID string, err error) {
	ip, ua := ClientFromContext(ctx)

	attrs := []slog.Attr{
		slog.String("action", string(ActionEmployeeLookup)),
		slog.String("severity", string(SeverityLow)),
		slog.String("employee_id", CleanValue(employeeID)),
		slog.Bool("found", err == nil),
		slog.String("ip_address", ip),
		slog.String("user_agent", ua),
	}

	level := slog.LevelInfo
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidEmployeeID) {
			level = slog.LevelError
		}
	}

	logging.FromContext(ctx).LogAttrs(ctx, level, "audit", attrs...)
}
