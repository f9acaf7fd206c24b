// Package memory is an in-process Store for development and tests.
// Uniqueness of employee id and email is enforced under a single mutex.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/intake/internal/core"
)

// Store keeps records in maps keyed by id and by email.
type Store struct {
	mu      sync.RWMutex
	byID    map[int64]core.EmployeeRecord
	byEmail map[string]int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:    make(map[int64]core.EmployeeRecord),
		byEmail: make(map[string]int64),
	}
}

// FindConflicting returns the records holding id or email, ordered by id.
func (s *Store) FindConflicting(_ context.Context, employeeID int64, email string) ([]core.EmployeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.EmployeeRecord
	if rec, ok := s.byID[employeeID]; ok {
		out = append(out, rec)
	}
	if id, ok := s.byEmail[core.NormalizeEmail(email)]; ok && id != employeeID {
		out = append(out, s.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// Insert stores rec unless its id or email is already held.
func (s *Store) Insert(_ context.Context, rec core.EmployeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := core.NormalizeEmail(rec.Email)
	if _, ok := s.byID[rec.EmployeeID]; ok {
		return fmt.Errorf("%w: employee_id %d", core.ErrDuplicate, rec.EmployeeID)
	}
	if _, ok := s.byEmail[email]; ok {
		return fmt.Errorf("%w: email %s", core.ErrDuplicate, rec.Email)
	}

	s.byID[rec.EmployeeID] = rec
	s.byEmail[email] = rec.EmployeeID
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(_ context.Context, employeeID int64) (core.EmployeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[employeeID]
	if !ok {
		return core.EmployeeRecord{}, core.ErrNotFound
	}
	return rec, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Migrate is a no-op.
func (s *Store) Migrate(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
