package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error
	// GetDayForUpdate locks the account's record for day; ErrNotFound when absent.
	GetDayForUpdate(ctx context.Context, accountID string, day time.Time) (Record, error)
	GetDay(ctx context.Context, accountID string, day time.Time) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	GetForUpdate(ctx context.Context, id string) (Record, error)
	Insert(ctx context.Context, in RecordInput) (Record, error)
	Save(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]Record, int, error)
	Counts(ctx context.Context, filter Filter) (Counts, error)
}
