package leave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hrcore/internal/apperrors"
)

type fakeStore struct {
	mu       sync.Mutex
	requests []Request
	nextID   int
	inserts  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) InTx(_ context.Context, fn func(StoreAPI) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeStore) Insert(_ context.Context, accountID string, in SubmitInput) (Request, error) {
	f.inserts++
	f.nextID++
	req := Request{
		ID:        fmt.Sprintf("leave-%d", f.nextID),
		AccountID: accountID,
		Category:  in.Category,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Days:      inclusiveDays(in.StartDate, in.EndDate),
		Reason:    in.Reason,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	f.requests = append(f.requests, req)
	return req, nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (Request, error) {
	return f.GetForUpdate(ctx, id)
}

func (f *fakeStore) GetForUpdate(_ context.Context, id string) (Request, error) {
	for _, r := range f.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return Request{}, fmt.Errorf("%w: leave request %s", apperrors.ErrNotFound, id)
}

func (f *fakeStore) Decide(_ context.Context, id string, d Decision) (Request, bool, error) {
	for i, r := range f.requests {
		if r.ID == id && r.Status == StatusPending {
			now := time.Now()
			reviewer, loginID := d.ReviewerID, d.ReviewerLoginID
			r.Status = d.Status
			r.ReviewerID = &reviewer
			r.ReviewerLoginID = &loginID
			r.AdminNote = d.Note
			r.ReviewedAt = &now
			f.requests[i] = r
			return r, true, nil
		}
	}
	return Request{}, false, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	for i, r := range f.requests {
		if r.ID == id {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStore) List(_ context.Context, filter Filter, limit, offset int) ([]Request, int, error) {
	var matched []Request
	for i := len(f.requests) - 1; i >= 0; i-- {
		r := f.requests[i]
		if filter.AccountID != "" && r.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		matched = append(matched, r)
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	return matched[offset:min(offset+limit, total)], total, nil
}
