package notifications

import "context"

type StoreAPI interface {
	Insert(ctx context.Context, n Notice) (Notification, error)
	List(ctx context.Context, accountID string, unreadOnly bool, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, accountID string) (int, error)
	// MarkRead reports whether a notification owned by accountID was found.
	MarkRead(ctx context.Context, accountID, id string) (bool, error)
	MarkAllRead(ctx context.Context, accountID string) (int64, error)
}
