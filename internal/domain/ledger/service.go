package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
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

// Normalize trims fields, lower-cases the email, defaults the role and
// derives the hire year from the hire date when absent.
func Normalize(in EntryInput) EntryInput {
	in.EmployeeCode = strings.TrimSpace(in.EmployeeCode)
	in.WorkEmail = strings.ToLower(strings.TrimSpace(in.WorkEmail))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Role == "" {
		in.Role = auth.RoleEmployee
	}
	if in.HireYear == nil && in.HireDate != nil {
		year := in.HireDate.Year()
		in.HireYear = &year
	}
	return in
}

func Validate(in EntryInput) error {
	if in.EmployeeCode == "" {
		return fmt.Errorf("%w: employee code is required", apperrors.ErrValidation)
	}
	if in.WorkEmail == "" {
		return fmt.Errorf("%w: work email is required", apperrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(in.WorkEmail); err != nil {
		return fmt.Errorf("%w: work email %q is invalid", apperrors.ErrValidation, in.WorkEmail)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, in.Role)
	}
	if in.HireYear != nil && (*in.HireYear < 1900 || *in.HireYear > 9999) {
		return fmt.Errorf("%w: hire year %d out of range", apperrors.ErrValidation, *in.HireYear)
	}
	if in.HireSerial != nil && *in.HireSerial < 1 {
		return fmt.Errorf("%w: hire serial must be positive", apperrors.ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in EntryInput) (Entry, error) {
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return Entry{}, err
	}

	var created Entry
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		if err := ensureIdentityFree(ctx, tx, in, ""); err != nil {
			return err
		}
		entry, err := tx.Insert(ctx, in)
		if err != nil {
			return err
		}
		created = entry
		return nil
	})
	return created, err
}

// Update rewrites an entry that has not been registered yet.
func (s *Service) Update(ctx context.Context, id string, in EntryInput) (Entry, Entry, error) {
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return Entry{}, Entry{}, err
	}

	var before, after Entry
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Registered {
			return fmt.Errorf("%w: %s", apperrors.ErrLedgerRegistered, current.EmployeeCode)
		}
		if err := ensureIdentityFree(ctx, tx, in, id); err != nil {
			return err
		}
		updated, err := tx.Update(ctx, id, in)
		if err != nil {
			return err
		}
		before, after = current, updated
		return nil
	})
	return before, after, err
}

func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) (ListResult, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	items, total, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Entry{}
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Service) BulkImport(ctx context.Context, rows []EntryInput) (ImportResult, error) {
	parsed := make([]ImportRow, len(rows))
	for i, row := range rows {
		parsed[i] = ImportRow{Input: row}
	}
	return s.ImportRows(ctx, parsed)
}

// ImportRows processes rows in order, each in its own transaction. A failing
// row is reported as "row N: cause" and never stops the batch. N is the
// source line when known, otherwise the 1-based position in rows.
func (s *Service) ImportRows(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	result := ImportResult{Errors: []string{}}
	for idx, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line := row.Line
		if line == 0 {
			line = idx + 1
		}
		if row.Err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", line, rowCause(row.Err)))
			continue
		}
		outcome, err := s.importRow(ctx, row.Input)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", line, rowCause(err)))
			continue
		}
		switch outcome {
		case outcomeInserted:
			result.Inserted++
		case outcomeUpdated:
			result.Updated++
		case outcomeSkipped:
			result.Skipped++
		}
	}
	return result, nil
}

type importOutcome int

const (
	outcomeInserted importOutcome = iota + 1
	outcomeUpdated
	outcomeSkipped
)

func (s *Service) importRow(ctx context.Context, row EntryInput) (importOutcome, error) {
	row = Normalize(row)
	if err := Validate(row); err != nil {
		return 0, err
	}

	var outcome importOutcome
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		matches, err := tx.FindMatches(ctx, row.EmployeeCode, row.WorkEmail)
		if err != nil {
			return err
		}
		switch len(matches) {
		case 0:
			held, err := tx.AccountHolds(ctx, row.EmployeeCode, row.WorkEmail)
			if err != nil {
				return err
			}
			if held {
				return fmt.Errorf("%w: an account already uses this code or email", apperrors.ErrDuplicateIdentity)
			}
			if _, err := tx.Insert(ctx, row); err != nil {
				return err
			}
			outcome = outcomeInserted
		case 1:
			existing := matches[0]
			if existing.Registered {
				outcome = outcomeSkipped
				return nil
			}
			held, err := tx.AccountHolds(ctx, row.EmployeeCode, row.WorkEmail)
			if err != nil {
				return err
			}
			if held {
				return fmt.Errorf("%w: an account already uses this code or email", apperrors.ErrDuplicateIdentity)
			}
			if _, err := tx.Update(ctx, existing.ID, row); err != nil {
				return err
			}
			outcome = outcomeUpdated
		default:
			return errMultipleMatches
		}
		return nil
	})
	return outcome, err
}

func ensureIdentityFree(ctx context.Context, tx StoreAPI, in EntryInput, selfID string) error {
	matches, err := tx.FindMatches(ctx, in.EmployeeCode, in.WorkEmail)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if match.ID != selfID {
			return fmt.Errorf("%w: ledger entry %s already uses this code or email", apperrors.ErrDuplicateIdentity, match.EmployeeCode)
		}
	}
	held, err := tx.AccountHolds(ctx, in.EmployeeCode, in.WorkEmail)
	if err != nil {
		return err
	}
	if held {
		return fmt.Errorf("%w: an account already uses this code or email", apperrors.ErrDuplicateIdentity)
	}
	return nil
}

func rowCause(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrDuplicateIdentity),
		errors.Is(err, errMultipleMatches):
		return err.Error()
	default:
		return "could not be saved: " + err.Error()
	}
}
