package core

import (
	"context"
	"sync"
)

// fakeStore is a map-backed Store with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	records map[int64]EmployeeRecord

	findErr   error
	insertErr error
	pingErr   error

	// hideOnFind makes FindConflicting return nothing, simulating a
	// concurrent insert that lands between the check and the write.
	hideOnFind bool

	finds   int
	inserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[int64]EmployeeRecord)}
}

func (f *fakeStore) FindConflicting(_ context.Context, id int64, email string) ([]EmployeeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++

	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.hideOnFind {
		return nil, nil
	}
	var out []EmployeeRecord
	for _, r := range f.records {
		if r.EmployeeID == id || NormalizeEmail(r.Email) == NormalizeEmail(email) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, rec EmployeeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++

	if f.insertErr != nil {
		return f.insertErr
	}
	for _, r := range f.records {
		if r.EmployeeID == rec.EmployeeID || NormalizeEmail(r.Email) == NormalizeEmail(rec.Email) {
			return ErrDuplicate
		}
	}
	f.records[rec.EmployeeID] = rec
	return nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (EmployeeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.records[id]
	if !ok {
		return EmployeeRecord{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}
