package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/auth"
)

type Service struct {
	store StoreAPI
	loc   *time.Location
	now   func() time.Time
}

// NewService builds the attendance service; "today" is the calendar date in loc.
func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

func (s *Service) clock() (time.Time, time.Time) {
	now := s.now().UTC().Truncate(time.Microsecond)
	return now, calendarDay(now, s.loc)
}

// CheckIn records the first arrival of the day. A record pre-created by an
// admin without a check-in is filled in rather than duplicated.
func (s *Service) CheckIn(ctx context.Context, accountID, note string) (Record, error) {
	now, day := s.clock()
	note = strings.TrimSpace(note)

	var out Record
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		existing, err := tx.GetDayForUpdate(ctx, accountID, day)
		if errors.Is(err, apperrors.ErrNotFound) {
			out, err = tx.Insert(ctx, RecordInput{
				AccountID: accountID,
				WorkDate:  day,
				CheckIn:   &now,
				Status:    StatusPresent,
				Note:      note,
			})
			if errors.Is(err, apperrors.ErrConflict) {
				return apperrors.ErrAlreadyCheckedIn
			}
			return err
		}
		if err != nil {
			return err
		}
		if err := applyCheckIn(&existing, now); err != nil {
			return err
		}
		if note != "" {
			existing.Note = note
		}
		out, err = tx.Save(ctx, existing)
		return err
	})
	return out, err
}

func (s *Service) CheckOut(ctx context.Context, accountID string) (Record, error) {
	now, day := s.clock()

	var out Record
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		existing, err := tx.GetDayForUpdate(ctx, accountID, day)
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotCheckedIn
		}
		if err != nil {
			return err
		}
		if err := applyCheckOut(&existing, now); err != nil {
			return err
		}
		out, err = tx.Save(ctx, existing)
		return err
	})
	return out, err
}

// Today returns the caller's record for the current day, or nil.
func (s *Service) Today(ctx context.Context, accountID string) (*Record, error) {
	_, day := s.clock()
	rec, err := s.store.GetDay(ctx, accountID, day)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create lets an admin pre-create or backfill a day, bypassing the state machine.
func (s *Service) Create(ctx context.Context, in RecordInput) (Record, error) {
	in.Note = strings.TrimSpace(in.Note)
	if in.AccountID == "" {
		return Record{}, fmt.Errorf("%w: account id is required", apperrors.ErrValidation)
	}
	if in.WorkDate.IsZero() {
		return Record{}, fmt.Errorf("%w: work date is required", apperrors.ErrValidation)
	}
	in.WorkDate = time.Date(in.WorkDate.Year(), in.WorkDate.Month(), in.WorkDate.Day(), 0, 0, 0, 0, time.UTC)
	if in.Status == "" {
		in.Status = StatusPresent
	}
	if !in.Status.Valid() {
		return Record{}, fmt.Errorf("%w: unknown attendance status %q", apperrors.ErrValidation, in.Status)
	}
	if err := checkOrder(in.CheckIn, in.CheckOut); err != nil {
		return Record{}, err
	}
	return s.store.Insert(ctx, in)
}

// Update applies an admin override. The merged record must still keep
// check-out at or after check-in.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (before, after Record, err error) {
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		merged, err := applyPatch(current, patch)
		if err != nil {
			return err
		}
		saved, err := tx.Save(ctx, merged)
		if err != nil {
			return err
		}
		before, after = current, saved
		return nil
	})
	return before, after, err
}

func (s *Service) Delete(ctx context.Context, id string) (Record, error) {
	var deleted Record
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		rec, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		deleted = rec
		return nil
	})
	return deleted, err
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !actor.CanAccess(rec.AccountID) {
		return Record{}, apperrors.ErrForbidden
	}
	return rec, nil
}

func (s *Service) ListMine(ctx context.Context, actor auth.UserContext, filter Filter, limit, offset int) (ListResult, error) {
	filter.AccountID = actor.AccountID
	return s.List(ctx, filter, limit, offset)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) (ListResult, error) {
	if err := validateFilter(filter); err != nil {
		return ListResult{}, err
	}
	items, total, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Record{}
	}
	return ListResult{Items: items, Total: total}, nil
}

// Stats aggregates one account's records in the optional date window.
func (s *Service) Stats(ctx context.Context, actor auth.UserContext, accountID string, from, to *time.Time) (Stats, error) {
	if accountID == "" {
		accountID = actor.AccountID
	}
	if !actor.CanAccess(accountID) {
		return Stats{}, apperrors.ErrForbidden
	}
	filter := Filter{AccountID: accountID, From: from, To: to}
	if err := validateFilter(filter); err != nil {
		return Stats{}, err
	}
	counts, err := s.store.Counts(ctx, filter)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(counts), nil
}

func validateFilter(filter Filter) error {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return fmt.Errorf("%w: to must not be before from", apperrors.ErrValidation)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return fmt.Errorf("%w: unknown attendance status %q", apperrors.ErrValidation, filter.Status)
	}
	return nil
}
