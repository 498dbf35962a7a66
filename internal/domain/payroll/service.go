package payroll

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

// Create writes one record per (account, month, year). The period key is
// enforced by the insert itself, so concurrent duplicates lose cleanly.
func (s *Service) Create(ctx context.Context, in RecordInput) (Result, error) {
	rec := recordFromInput(in)
	rec.PaymentMethod = strings.TrimSpace(rec.PaymentMethod)
	if err := validateRecord(rec); err != nil {
		return Result{}, err
	}
	created, inserted, err := s.store.Insert(ctx, rec)
	if err != nil {
		return Result{}, err
	}
	if !inserted {
		return Result{}, fmt.Errorf("%w: %02d/%d already has a record for this account", apperrors.ErrDuplicatePeriod, rec.Month, rec.Year)
	}
	return Evaluate(created), nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (before, after Result, err error) {
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		merged := applyPatch(current, patch)
		if err := validateRecord(merged); err != nil {
			return err
		}
		saved, err := tx.Save(ctx, merged)
		if err != nil {
			return err
		}
		before, after = Evaluate(current), Evaluate(saved)
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

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Result, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !actor.CanAccess(rec.AccountID) {
		return Result{}, apperrors.ErrForbidden
	}
	return Evaluate(rec), nil
}

func (s *Service) ListMine(ctx context.Context, actor auth.UserContext, year, limit, offset int) (ListResult, error) {
	return s.List(ctx, Filter{AccountID: actor.AccountID, Year: year}, limit, offset)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) (ListResult, error) {
	if filter.Month != 0 && (filter.Month < 1 || filter.Month > 12) {
		return ListResult{}, fmt.Errorf("%w: month must be between 1 and 12", apperrors.ErrValidation)
	}
	records, total, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	items := make([]Result, 0, len(records))
	for _, rec := range records {
		items = append(items, Evaluate(rec))
	}
	return ListResult{Items: items, Total: total}, nil
}

// Latest returns the account's most recent period by (year, month).
func (s *Service) Latest(ctx context.Context, actor auth.UserContext, accountID string) (Result, error) {
	if accountID == "" {
		accountID = actor.AccountID
	}
	if !actor.CanAccess(accountID) {
		return Result{}, apperrors.ErrForbidden
	}
	rec, err := s.store.Latest(ctx, accountID)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(rec), nil
}

// Payslip renders the PDF for one record and returns it with the record.
func (s *Service) Payslip(ctx context.Context, actor auth.UserContext, id string) ([]byte, Record, error) {
	data, err := s.store.PayslipData(ctx, id)
	if err != nil {
		return nil, Record{}, err
	}
	if !actor.CanAccess(data.AccountID) {
		return nil, Record{}, apperrors.ErrForbidden
	}
	pdf, err := RenderPayslip(data)
	if err != nil {
		return nil, Record{}, err
	}
	return pdf, data.Record, nil
}
