package payroll

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error
	// Insert reports false when the (account, month, year) period is taken.
	Insert(ctx context.Context, r Record) (Record, bool, error)
	Get(ctx context.Context, id string) (Record, error)
	GetForUpdate(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]Record, int, error)
	Latest(ctx context.Context, accountID string) (Record, error)
	PayslipData(ctx context.Context, id string) (PayslipData, error)
}
