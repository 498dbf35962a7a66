package ledger

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error
	// FindMatches returns entries holding code or email, locked for update.
	FindMatches(ctx context.Context, code, email string) ([]Entry, error)
	AccountHolds(ctx context.Context, code, email string) (bool, error)
	Insert(ctx context.Context, in EntryInput) (Entry, error)
	Update(ctx context.Context, id string, in EntryInput) (Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	GetForUpdate(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error)
}
