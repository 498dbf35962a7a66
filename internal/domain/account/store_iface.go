package account

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error
	// LockHireYear serialises serial allocation for one hire year until the
	// surrounding transaction ends.
	LockHireYear(ctx context.Context, year int) error
	// MaxSerial covers accounts and registered ledger entries, so serials of
	// deleted accounts are never reissued.
	MaxSerial(ctx context.Context, year int) (int, error)
	// LedgerCodeHeld reports whether a ledger entry for another email already
	// uses code as its employee code.
	LedgerCodeHeld(ctx context.Context, code, email string) (bool, error)
	AccountConflict(ctx context.Context, loginID, email string) (bool, error)
	LedgerMatches(ctx context.Context, code, email string) ([]LedgerRef, error)
	GetLedgerEntry(ctx context.Context, id string) (LedgerRef, error)
	InsertLedgerEntry(ctx context.Context, acc NewAccount) (string, error)
	SupersedeLedgerEntry(ctx context.Context, id string, acc NewAccount) error
	InsertAccount(ctx context.Context, acc NewAccount) (Account, error)
	Get(ctx context.Context, id string) (Account, error)
	CredentialHash(ctx context.Context, id string) (string, error)
	FindForLogin(ctx context.Context, identifier string) (Account, string, error)
	UpdateCredential(ctx context.Context, id, hash string, mustChange bool) (Account, error)
	SetActive(ctx context.Context, id string, active bool) (Account, error)
	Delete(ctx context.Context, id string) error
	EmailInUse(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Account, int, error)
}
