package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hrcore/internal/apperrors"
)

type fakeStore struct {
	mu      sync.Mutex
	records []Record
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) InTx(_ context.Context, fn func(StoreAPI) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeStore) GetDayForUpdate(ctx context.Context, accountID string, day time.Time) (Record, error) {
	return f.GetDay(ctx, accountID, day)
}

func (f *fakeStore) GetDay(_ context.Context, accountID string, day time.Time) (Record, error) {
	for _, r := range f.records {
		if r.AccountID == accountID && r.WorkDate.Equal(day) {
			return r, nil
		}
	}
	return Record{}, apperrors.ErrNotFound
}

func (f *fakeStore) Get(ctx context.Context, id string) (Record, error) {
	return f.GetForUpdate(ctx, id)
}

func (f *fakeStore) GetForUpdate(_ context.Context, id string) (Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: attendance record %s", apperrors.ErrNotFound, id)
}

func (f *fakeStore) Insert(ctx context.Context, in RecordInput) (Record, error) {
	if _, err := f.GetDay(ctx, in.AccountID, in.WorkDate); err == nil {
		return Record{}, apperrors.ErrConflict
	}
	f.nextID++
	rec := Record{
		ID:        fmt.Sprintf("att-%d", f.nextID),
		AccountID: in.AccountID,
		WorkDate:  in.WorkDate,
		CheckIn:   in.CheckIn,
		CheckOut:  in.CheckOut,
		Status:    in.Status,
		Note:      in.Note,
		CreatedAt: time.Now(),
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeStore) Save(_ context.Context, rec Record) (Record, error) {
	for i, r := range f.records {
		if r.ID == rec.ID {
			rec.UpdatedAt = time.Now()
			f.records[i] = rec
			return rec, nil
		}
	}
	return Record{}, apperrors.ErrNotFound
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStore) matching(filter Filter) []Record {
	var out []Record
	for _, r := range f.records {
		if filter.AccountID != "" && r.AccountID != filter.AccountID {
			continue
		}
		if filter.From != nil && r.WorkDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && r.WorkDate.After(*filter.To) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeStore) List(_ context.Context, filter Filter, limit, offset int) ([]Record, int, error) {
	matched := f.matching(filter)
	total := len(matched)
	if offset > total {
		offset = total
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (f *fakeStore) Counts(_ context.Context, filter Filter) (Counts, error) {
	var c Counts
	for _, r := range f.matching(filter) {
		c.Total++
		switch r.Status {
		case StatusPresent:
			c.Present++
		case StatusAbsent:
			c.Absent++
		case StatusLate:
			c.Late++
		case StatusHalfDay:
			c.HalfDay++
		}
	}
	return c, nil
}
