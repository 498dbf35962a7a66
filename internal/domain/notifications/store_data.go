package notifications

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrcore/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const notificationColumns = `id, account_id, type, title, body, entity_id, read_at, created_at`

func (s *Store) Insert(ctx context.Context, n Notice) (Notification, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO notifications (account_id, type, title, body, entity_id)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+notificationColumns, n.AccountID, n.Type, n.Title, n.Body, n.EntityID)
	out, err := scanNotification(row)
	if err != nil {
		return Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return out, nil
}

func (s *Store) List(ctx context.Context, accountID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	where := " WHERE account_id = $1"
	if unreadOnly {
		where += " AND read_at IS NULL"
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications"+where, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := s.DB.Query(ctx, "SELECT "+notificationColumns+" FROM notifications"+where+
		" ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3", accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, accountID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications WHERE account_id = $1 AND read_at IS NULL
  `, accountID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, accountID, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE account_id = $1 AND id = $2
  `, accountID, id)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkAllRead(ctx context.Context, accountID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE account_id = $1 AND read_at IS NULL
  `, accountID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.AccountID, &n.Type, &n.Title, &n.Body, &n.EntityID, &n.ReadAt, &n.CreatedAt)
	return n, err
}
