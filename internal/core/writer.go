package core

// writer.go implements the uniqueness-gated write of a validated record.
//
// The pre-check and the insert are not serialized: two submissions with the
// same employee id or email can both pass the pre-check. The store's own
// uniqueness constraint is the source of truth, and its violation
// (ErrDuplicate) is reported as a conflict like a pre-check hit.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/intake/internal/logging"
)

// Writer performs the check-then-insert protocol against a Store.
type Writer struct {
	store   Store
	limiter *SubmitLimiter
}

// NewWriter creates a writer for store. A nil limiter leaves writes unbounded.
func NewWriter(store Store, limiter *SubmitLimiter) *Writer {
	return &Writer{store: store, limiter: limiter}
}

// Write stores rec if no record shares its employee id or email.
// The returned error carries the technical cause of a WriteFailed or
// Conflict outcome and is nil on Accepted.
func (w *Writer) Write(ctx context.Context, rec EmployeeRecord, tr *tracker) (Outcome, error) {
	tr.advance(ctx, StateChecking)
	log := logging.WithFields(ctx, "employee_id", rec.EmployeeID)

	if w.limiter != nil {
		if err := w.limiter.Acquire(ctx); err != nil {
			tr.advance(ctx, StateWriteFailed)
			return OutcomeWriteFailed, fmt.Errorf("acquire write slot: %w", err)
		}
		defer w.limiter.Release()
	}

	existing, err := w.store.FindConflicting(ctx, rec.EmployeeID, rec.Email)
	if err != nil {
		tr.advance(ctx, StateWriteFailed)
		return OutcomeWriteFailed, fmt.Errorf("find conflicting: %w", err)
	}
	if len(existing) > 0 {
		log.Debug("conflicting records found", "count", len(existing))
		tr.advance(ctx, StateConflict)
		return OutcomeConflict, fmt.Errorf("%w: %s", ErrDuplicate, describeConflict(rec, existing))
	}

	tr.advance(ctx, StateInserting)
	if err := w.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			log.Info("insert lost uniqueness race", "error", err)
			tr.advance(ctx, StateConflict)
			return OutcomeConflict, err
		}
		tr.advance(ctx, StateWriteFailed)
		return OutcomeWriteFailed, fmt.Errorf("insert: %w", err)
	}

	tr.advance(ctx, StateAccepted)
	return OutcomeAccepted, nil
}

func describeConflict(rec EmployeeRecord, existing []EmployeeRecord) string {
	idTaken, emailTaken := false, false
	for _, e := range existing {
		if e.EmployeeID == rec.EmployeeID {
			idTaken = true
		}
		if NormalizeEmail(e.Email) == NormalizeEmail(rec.Email) {
			emailTaken = true
		}
	}
	switch {
	case idTaken && emailTaken:
		return "employee id and email taken"
	case idTaken:
		return "employee id taken"
	default:
		return "email taken"
	}
}

// tracker follows one submission through its states and logs every
// transition at debug level. A nil tracker is valid and records nothing.
type tracker struct {
	state   State
	history []State
}

func newTracker() *tracker {
	return &tracker{state: StateReceived, history: []State{StateReceived}}
}

func (t *tracker) advance(ctx context.Context, next State) {
	if t == nil {
		return
	}
	logging.FromContext(ctx).LogAttrs(ctx, slog.LevelDebug, "submission state",
		slog.String("from", string(t.state)),
		slog.String("to", string(next)),
	)
	t.state = next
	t.history = append(t.history, next)
}

// State returns the current state.
func (t *tracker) State() State {
	if t == nil {
		return ""
	}
	return t.state
}
