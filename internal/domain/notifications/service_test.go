package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/apperrors"
)

type fakeStore struct {
	mu    sync.Mutex
	items []Notification
}

func (f *fakeStore) Insert(_ context.Context, n Notice) (Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := Notification{
		ID:        fmt.Sprintf("n-%d", len(f.items)+1),
		AccountID: n.AccountID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		EntityID:  n.EntityID,
		CreatedAt: time.Now(),
	}
	f.items = append(f.items, out)
	return out, nil
}

func (f *fakeStore) List(_ context.Context, accountID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	var matched []Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if n.AccountID != accountID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		matched = append(matched, n)
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (f *fakeStore) CountUnread(_ context.Context, accountID string) (int, error) {
	count := 0
	for _, n := range f.items {
		if n.AccountID == accountID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkRead(_ context.Context, accountID, id string) (bool, error) {
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].AccountID == accountID {
			if f.items[i].ReadAt == nil {
				now := time.Now()
				f.items[i].ReadAt = &now
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) MarkAllRead(_ context.Context, accountID string) (int64, error) {
	var changed int64
	for i := range f.items {
		if f.items[i].AccountID == accountID && f.items[i].ReadAt == nil {
			now := time.Now()
			f.items[i].ReadAt = &now
			changed++
		}
	}
	return changed, nil
}

func TestNotifyValidates(t *testing.T) {
	svc := New(&fakeStore{})
	err := svc.Notify(context.Background(), Notice{AccountID: "a1", Type: TypeLeaveApproved, Title: "  "})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	svc := New(store)

	require.NoError(t, svc.Notify(ctx, Notice{AccountID: "a1", Type: TypeLeaveApproved, Title: "Leave approved"}))
	require.NoError(t, svc.Notify(ctx, Notice{AccountID: "a1", Type: TypePayslipPublished, Title: "Payslip ready"}))
	require.NoError(t, svc.Notify(ctx, Notice{AccountID: "a2", Type: TypeLeaveRejected, Title: "Leave rejected"}))

	result, err := svc.List(ctx, "a1", false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Unread)
	assert.Equal(t, "Payslip ready", result.Items[0].Title)

	require.NoError(t, svc.MarkRead(ctx, "a1", "n-1"))
	require.NoError(t, svc.MarkRead(ctx, "a1", "n-1"))
	assert.ErrorIs(t, svc.MarkRead(ctx, "a1", "n-3"), apperrors.ErrNotFound)

	result, err = svc.List(ctx, "a1", true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Unread)

	changed, err := svc.MarkAllRead(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	result, err = svc.List(ctx, "a2", false, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.NotNil(t, result.Items)
	assert.Equal(t, 1, result.Unread)
}
