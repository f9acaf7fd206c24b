package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/intake/internal/logging"
)

// DefaultSubmitTimeout bounds the storage round-trips of one submission.
const DefaultSubmitTimeout = 10 * time.Second

// Service provides the intake operations shared by every frontend
// (HTTP, Lambda, CLI).
type Service struct {
	store     Store
	validator *Validator
	limiter   *SubmitLimiter
	writer    *Writer
	timeout   time.Duration
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithValidator replaces the default validator (wall clock, local time zone).
func WithValidator(v *Validator) ServiceOption {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithSubmitLimits bounds concurrent writes and how long a submission waits
// for a write slot.
func WithSubmitLimits(maxConcurrent int, maxWait time.Duration) ServiceOption {
	return func(s *Service) {
		s.limiter = NewSubmitLimiter(maxConcurrent, maxWait)
	}
}

// WithSubmitTimeout bounds the storage work of one submission.
func WithSubmitTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithNow replaces the clock used for CreatedAt timestamps.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service over store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		validator: NewValidator(),
		limiter:   NewSubmitLimiter(DefaultMaxConcurrentSubmissions, DefaultMaxWaitTime),
		timeout:   DefaultSubmitTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = NewWriter(store, s.limiter)
	return s
}

// Submit validates sub and, if valid, stores it exactly once.
// It always returns exactly one terminal Result.
func (s *Service) Submit(ctx context.Context, sub Submission) Result {
	id := uuid.NewString()
	ctx = logging.ContextWithSubmissionID(ctx, id)

	res := s.submit(ctx, sub, newTracker())
	res.SubmissionID = id
	res.Message = res.Outcome.Message()

	s.auditSubmission(ctx, sub, res)
	return res
}

func (s *Service) submit(ctx context.Context, sub Submission, tr *tracker) Result {
	tr.advance(ctx, StateValidating)

	rec, errs := s.validator.Validate(sub)
	if len(errs) > 0 {
		tr.advance(ctx, StateRejected)
		return Result{Outcome: OutcomeRejected, Errors: errs}
	}
	rec.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome, err := s.writer.Write(writeCtx, rec, tr)
	res := Result{Outcome: outcome, Err: err}
	if outcome == OutcomeAccepted {
		res.Record = &rec
	}
	return res
}

// Lookup returns the stored record with the given id.
// A malformed id yields ErrInvalidEmployeeID, a missing one ErrNotFound.
func (s *Service) Lookup(ctx context.Context, employeeID string) (EmployeeRecord, error) {
	rec, err := s.lookup(ctx, employeeID)
	s.auditLookup(ctx, employeeID, err)
	return rec, err
}

func (s *Service) lookup(ctx context.Context, employeeID string) (EmployeeRecord, error) {
	id, ok := ParseEmployeeID(CleanValue(employeeID))
	if !ok {
		return EmployeeRecord{}, fmt.Errorf("%w: %q", ErrInvalidEmployeeID, employeeID)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := s.store.Get(lookupCtx, id)
	if err != nil {
		return EmployeeRecord{}, fmt.Errorf("lookup employee %d: %w", id, err)
	}
	return rec, nil
}

// Normalize applies the incremental edit rule for field.
func (s *Service) Normalize(field, previous, value string) string {
	return ApplyEdit(field, previous, value)
}

// Rules returns the field rule table.
func (s *Service) Rules() []FieldRule {
	return Rules()
}

// Today returns the calendar day the validator treats as today.
func (s *Service) Today() time.Time {
	return s.validator.Today()
}

// Ping checks the storage collaborator.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// LimiterStatus reports in-flight writes.
func (s *Service) LimiterStatus() SubmitLimiterStatus {
	return s.limiter.Status()
}

// WaitForSubmissions blocks until in-flight writes finish or ctx is done.
// Used during graceful shutdown.
func (s *Service) WaitForSubmissions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
