package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hrcore/internal/apperrors"
)

type fakeStore struct {
	mu            sync.Mutex
	entries       []Entry
	accountCodes  map[string]bool
	accountEmails map[string]bool
	nextID        int
	failInsertFor string
}

func newFakeStore() *fakeStore {
	return &fakeStore{accountCodes: map[string]bool{}, accountEmails: map[string]bool{}}
}

func (f *fakeStore) seed(e Entry) Entry {
	f.nextID++
	e.ID = fmt.Sprintf("entry-%d", f.nextID)
	e.CreatedAt = time.Now()
	f.entries = append(f.entries, e)
	return e
}

func (f *fakeStore) InTx(_ context.Context, fn func(StoreAPI) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeStore) FindMatches(_ context.Context, code, email string) ([]Entry, error) {
	var out []Entry
	for _, e := range f.entries {
		if e.EmployeeCode == code || strings.EqualFold(e.WorkEmail, email) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) AccountHolds(_ context.Context, code, email string) (bool, error) {
	return f.accountCodes[code] || f.accountEmails[strings.ToLower(email)], nil
}

func (f *fakeStore) Insert(_ context.Context, in EntryInput) (Entry, error) {
	if f.failInsertFor != "" && in.EmployeeCode == f.failInsertFor {
		return Entry{}, errors.New("connection reset")
	}
	return f.seed(entryFromInput(in)), nil
}

func (f *fakeStore) Update(_ context.Context, id string, in EntryInput) (Entry, error) {
	for i, e := range f.entries {
		if e.ID == id {
			updated := entryFromInput(in)
			updated.ID = e.ID
			updated.CreatedAt = e.CreatedAt
			updated.UpdatedAt = time.Now()
			f.entries[i] = updated
			return updated, nil
		}
	}
	return Entry{}, apperrors.ErrNotFound
}

func (f *fakeStore) Get(ctx context.Context, id string) (Entry, error) {
	return f.GetForUpdate(ctx, id)
}

func (f *fakeStore) GetForUpdate(_ context.Context, id string) (Entry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, id)
}

func (f *fakeStore) List(_ context.Context, filter Filter, limit, offset int) ([]Entry, int, error) {
	var matched []Entry
	for _, e := range f.entries {
		if filter.Registered != nil && e.Registered != *filter.Registered {
			continue
		}
		if filter.Role != "" && e.Role != filter.Role {
			continue
		}
		matched = append(matched, e)
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (f *fakeStore) byCode(code string) (Entry, bool) {
	for _, e := range f.entries {
		if e.EmployeeCode == code {
			return e, true
		}
	}
	return Entry{}, false
}

func entryFromInput(in EntryInput) Entry {
	return Entry{
		EmployeeCode: in.EmployeeCode,
		WorkEmail:    in.WorkEmail,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		HireDate:     in.HireDate,
		HireYear:     in.HireYear,
		HireSerial:   in.HireSerial,
		Role:         in.Role,
	}
}
