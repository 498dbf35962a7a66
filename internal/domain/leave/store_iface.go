package leave

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error
	Insert(ctx context.Context, accountID string, in SubmitInput) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	GetForUpdate(ctx context.Context, id string) (Request, error)
	// Decide applies d only while the request is pending and reports whether
	// a row changed.
	Decide(ctx context.Context, id string, d Decision) (Request, bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]Request, int, error)
}
