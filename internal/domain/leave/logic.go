package leave

import (
	"errors"
	"fmt"
	"time"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/auth"
)

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// inclusiveDays counts calendar days, ignoring any time-of-day component.
func inclusiveDays(start, end time.Time) int {
	days, err := CalculateDays(dateOnly(start), dateOnly(end))
	if err != nil {
		return 0
	}
	return int(days)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// canDecide reports whether a request in from may move to to.
func canDecide(from, to Status) bool {
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}

// canDelete applies the deletion policy: owners remove their own pending
// requests, admins remove anything.
func canDelete(actor auth.UserContext, req Request) error {
	if actor.IsAdmin() {
		return nil
	}
	if req.AccountID != actor.AccountID {
		return fmt.Errorf("%w: leave request belongs to another account", apperrors.ErrForbidden)
	}
	if req.Status != StatusPending {
		return fmt.Errorf("%w: only pending requests can be withdrawn", apperrors.ErrForbidden)
	}
	return nil
}

func validateSubmit(in SubmitInput) error {
	if !in.Category.Valid() {
		return fmt.Errorf("%w: unknown leave category %q", apperrors.ErrValidation, in.Category)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", apperrors.ErrValidation)
	}
	if dateOnly(in.EndDate).Before(dateOnly(in.StartDate)) {
		return fmt.Errorf("%w: end date must not be before start date", apperrors.ErrValidation)
	}
	return nil
}
