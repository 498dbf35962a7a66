package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hrcore/internal/apperrors"
)

type fakeStore struct {
	mu       sync.Mutex
	records  []Record
	accounts map[string]PayslipData
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: map[string]PayslipData{}}
}

func (f *fakeStore) InTx(_ context.Context, fn func(StoreAPI) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeStore) periodTaken(r Record) bool {
	for _, existing := range f.records {
		if existing.ID != r.ID && existing.AccountID == r.AccountID && existing.Month == r.Month && existing.Year == r.Year {
			return true
		}
	}
	return false
}

func (f *fakeStore) Insert(_ context.Context, r Record) (Record, bool, error) {
	if f.periodTaken(r) {
		return Record{}, false, nil
	}
	f.nextID++
	r.ID = fmt.Sprintf("pay-%d", f.nextID)
	r.CreatedAt = time.Now()
	f.records = append(f.records, r)
	return r, true, nil
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
	return Record{}, fmt.Errorf("%w: payroll record %s", apperrors.ErrNotFound, id)
}

func (f *fakeStore) Save(_ context.Context, r Record) (Record, error) {
	if f.periodTaken(r) {
		return Record{}, apperrors.ErrDuplicatePeriod
	}
	for i, existing := range f.records {
		if existing.ID == r.ID {
			f.records[i] = r
			return r, nil
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

func (f *fakeStore) List(_ context.Context, filter Filter, limit, offset int) ([]Record, int, error) {
	var matched []Record
	for _, r := range f.records {
		if filter.AccountID != "" && r.AccountID != filter.AccountID {
			continue
		}
		if filter.Month != 0 && r.Month != filter.Month {
			continue
		}
		if filter.Year != 0 && r.Year != filter.Year {
			continue
		}
		matched = append(matched, r)
	}
	sortNewestFirst(matched)
	total := len(matched)
	if offset > total {
		offset = total
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (f *fakeStore) Latest(ctx context.Context, accountID string) (Record, error) {
	items, _, _ := f.List(ctx, Filter{AccountID: accountID}, 1, 0)
	if len(items) == 0 {
		return Record{}, apperrors.ErrNotFound
	}
	return items[0], nil
}

func (f *fakeStore) PayslipData(ctx context.Context, id string) (PayslipData, error) {
	rec, err := f.Get(ctx, id)
	if err != nil {
		return PayslipData{}, err
	}
	d := f.accounts[rec.AccountID]
	d.Record = rec
	return d, nil
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year > records[j].Year
		}
		return records[i].Month > records[j].Month
	})
}
