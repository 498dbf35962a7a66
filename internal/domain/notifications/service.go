package notifications

import (
	"context"
	"fmt"
	"strings"

	"hrcore/internal/apperrors"
)

type Service struct {
	store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

// Notify stores one in-app notification for the target account.
func (s *Service) Notify(ctx context.Context, n Notice) error {
	n.Title = strings.TrimSpace(n.Title)
	if n.AccountID == "" || n.Type == "" || n.Title == "" {
		return fmt.Errorf("%w: notification needs an account, type and title", apperrors.ErrValidation)
	}
	_, err := s.store.Insert(ctx, n)
	return err
}

func (s *Service) List(ctx context.Context, accountID string, unreadOnly bool, limit, offset int) (ListResult, error) {
	items, total, err := s.store.List(ctx, accountID, unreadOnly, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	unread, err := s.store.CountUnread(ctx, accountID)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Notification{}
	}
	return ListResult{Items: items, Total: total, Unread: unread}, nil
}

// MarkRead is idempotent; another account's notification reads as not found.
func (s *Service) MarkRead(ctx context.Context, accountID, id string) error {
	found, err := s.store.MarkRead(ctx, accountID, id)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, accountID string) (int64, error) {
	return s.store.MarkAllRead(ctx, accountID)
}
