package account

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"hrcore/internal/apperrors"
)

type fakeLedger struct {
	ref    LedgerRef
	serial int
	year   int
}

type fakeStore struct {
	mu       sync.Mutex
	accounts []Account
	hashes   map[string]string
	ledger   []fakeLedger
	nextID   int
	locked   []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: map[string]string{}}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) seedLedger(ref LedgerRef) LedgerRef {
	ref.ID = f.id("entry")
	f.ledger = append(f.ledger, fakeLedger{ref: ref})
	return ref
}

func (f *fakeStore) InTx(_ context.Context, fn func(StoreAPI) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeStore) LockHireYear(_ context.Context, year int) error {
	f.locked = append(f.locked, year)
	return nil
}

func (f *fakeStore) MaxSerial(_ context.Context, year int) (int, error) {
	max := 0
	for _, a := range f.accounts {
		if a.HireYear != nil && *a.HireYear == year && a.HireSerial != nil && *a.HireSerial > max {
			max = *a.HireSerial
		}
	}
	for _, l := range f.ledger {
		if l.ref.Registered && l.year == year && l.serial > max {
			max = l.serial
		}
	}
	return max, nil
}

func (f *fakeStore) LedgerCodeHeld(_ context.Context, code, email string) (bool, error) {
	for _, l := range f.ledger {
		if l.ref.EmployeeCode == code && !strings.EqualFold(l.ref.WorkEmail, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) AccountConflict(_ context.Context, loginID, email string) (bool, error) {
	for _, a := range f.accounts {
		if a.LoginID == loginID || strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) LedgerMatches(_ context.Context, code, email string) ([]LedgerRef, error) {
	var out []LedgerRef
	for _, l := range f.ledger {
		if l.ref.EmployeeCode == code || strings.EqualFold(l.ref.WorkEmail, email) {
			out = append(out, l.ref)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLedgerEntry(_ context.Context, id string) (LedgerRef, error) {
	for _, l := range f.ledger {
		if l.ref.ID == id {
			return l.ref, nil
		}
	}
	return LedgerRef{}, fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, id)
}

func (f *fakeStore) InsertLedgerEntry(_ context.Context, acc NewAccount) (string, error) {
	ref := LedgerRef{
		ID:           f.id("entry"),
		EmployeeCode: acc.LoginID,
		WorkEmail:    acc.Email,
		FirstName:    acc.FirstName,
		LastName:     acc.LastName,
		Role:         acc.Role,
		Registered:   true,
	}
	f.ledger = append(f.ledger, fakeLedger{ref: ref, serial: acc.HireSerial, year: acc.HireYear})
	return ref.ID, nil
}

func (f *fakeStore) SupersedeLedgerEntry(_ context.Context, id string, acc NewAccount) error {
	for i, l := range f.ledger {
		if l.ref.ID == id && !l.ref.Registered {
			f.ledger[i].ref.EmployeeCode = acc.LoginID
			f.ledger[i].ref.WorkEmail = acc.Email
			f.ledger[i].ref.Registered = true
			f.ledger[i].serial = acc.HireSerial
			f.ledger[i].year = acc.HireYear
			return nil
		}
	}
	return apperrors.ErrLedgerRegistered
}

func (f *fakeStore) InsertAccount(_ context.Context, acc NewAccount) (Account, error) {
	for _, a := range f.accounts {
		if a.LoginID == acc.LoginID || strings.EqualFold(a.Email, acc.Email) {
			return Account{}, apperrors.ErrDuplicateIdentity
		}
	}
	hireDate, year, serial := acc.HireDate, acc.HireYear, acc.HireSerial
	created := Account{
		ID:                   f.id("acct"),
		LedgerEntryID:        acc.LedgerEntryID,
		LoginID:              acc.LoginID,
		Email:                acc.Email,
		FirstName:            acc.FirstName,
		LastName:             acc.LastName,
		HireDate:             &hireDate,
		HireYear:             &year,
		HireSerial:           &serial,
		Role:                 acc.Role,
		Department:           acc.Department,
		Position:             acc.Position,
		MustChangeCredential: acc.MustChangeCredential,
		Active:               true,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	f.accounts = append(f.accounts, created)
	f.hashes[created.ID] = acc.PasswordHash
	return created, nil
}

func (f *fakeStore) index(id string) int {
	for i, a := range f.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeStore) Get(_ context.Context, id string) (Account, error) {
	if i := f.index(id); i >= 0 {
		return f.accounts[i], nil
	}
	return Account{}, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
}

func (f *fakeStore) CredentialHash(_ context.Context, id string) (string, error) {
	hash, ok := f.hashes[id]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return hash, nil
}

func (f *fakeStore) FindForLogin(_ context.Context, identifier string) (Account, string, error) {
	for _, a := range f.accounts {
		if a.LoginID == identifier || strings.EqualFold(a.Email, identifier) {
			return a, f.hashes[a.ID], nil
		}
	}
	return Account{}, "", apperrors.ErrNotFound
}

func (f *fakeStore) UpdateCredential(_ context.Context, id, hash string, mustChange bool) (Account, error) {
	i := f.index(id)
	if i < 0 {
		return Account{}, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
	}
	f.hashes[id] = hash
	f.accounts[i].MustChangeCredential = mustChange
	return f.accounts[i], nil
}

func (f *fakeStore) SetActive(_ context.Context, id string, active bool) (Account, error) {
	i := f.index(id)
	if i < 0 {
		return Account{}, apperrors.ErrNotFound
	}
	f.accounts[i].Active = active
	return f.accounts[i], nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	i := f.index(id)
	if i < 0 {
		return apperrors.ErrNotFound
	}
	f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
	delete(f.hashes, id)
	return nil
}

func (f *fakeStore) EmailInUse(_ context.Context, email string) (bool, error) {
	for _, a := range f.accounts {
		if strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	for _, l := range f.ledger {
		if strings.EqualFold(l.ref.WorkEmail, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) List(_ context.Context, filter Filter, limit, offset int) ([]Account, int, error) {
	var matched []Account
	for _, a := range f.accounts {
		if filter.Role != "" && a.Role != filter.Role {
			continue
		}
		if filter.Active != nil && a.Active != *filter.Active {
			continue
		}
		if filter.Department != "" && !strings.EqualFold(a.Department, filter.Department) {
			continue
		}
		matched = append(matched, a)
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	return matched[offset:min(offset+limit, total)], total, nil
}
