package leave

import (
	"context"
	"fmt"
	"strings"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// Submit files a pending request for the caller. Ranges are validated
// before anything is written.
func (s *Service) Submit(ctx context.Context, actor auth.UserContext, in SubmitInput) (Request, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validateSubmit(in); err != nil {
		return Request{}, err
	}
	in.StartDate = dateOnly(in.StartDate)
	in.EndDate = dateOnly(in.EndDate)
	return s.store.Insert(ctx, actor.AccountID, in)
}

func (s *Service) Approve(ctx context.Context, reviewer auth.UserContext, id, note string) (Request, error) {
	return s.decide(ctx, id, Decision{Status: StatusApproved, ReviewerID: reviewer.AccountID, ReviewerLoginID: reviewer.LoginID, Note: strings.TrimSpace(note)})
}

func (s *Service) Reject(ctx context.Context, reviewer auth.UserContext, id, note string) (Request, error) {
	return s.decide(ctx, id, Decision{Status: StatusRejected, ReviewerID: reviewer.AccountID, ReviewerLoginID: reviewer.LoginID, Note: strings.TrimSpace(note)})
}

func (s *Service) decide(ctx context.Context, id string, d Decision) (Request, error) {
	if !canDecide(StatusPending, d.Status) {
		return Request{}, fmt.Errorf("%w: cannot move a request to %s", apperrors.ErrInvalidStateTransition, d.Status)
	}
	req, applied, err := s.store.Decide(ctx, id, d)
	if err != nil {
		return Request{}, err
	}
	if applied {
		return req, nil
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	return Request{}, fmt.Errorf("%w: leave request is already %s", apperrors.ErrInvalidStateTransition, current.Status)
}

func (s *Service) Delete(ctx context.Context, actor auth.UserContext, id string) (Request, error) {
	var deleted Request
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		req, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := canDelete(actor, req); err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		deleted = req
		return nil
	})
	return deleted, err
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !actor.CanAccess(req.AccountID) {
		return Request{}, apperrors.ErrForbidden
	}
	return req, nil
}

func (s *Service) ListMine(ctx context.Context, actor auth.UserContext, status Status, limit, offset int) (ListResult, error) {
	return s.List(ctx, Filter{AccountID: actor.AccountID, Status: status}, limit, offset)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) (ListResult, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return ListResult{}, fmt.Errorf("%w: unknown leave status %q", apperrors.ErrValidation, filter.Status)
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return ListResult{}, fmt.Errorf("%w: unknown leave category %q", apperrors.ErrValidation, filter.Category)
	}
	items, total, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Request{}
	}
	return ListResult{Items: items, Total: total}, nil
}
