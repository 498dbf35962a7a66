package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hrcore/internal/apperrors"
)

type DayState string

const (
	StateNoRecord   DayState = "no_record"
	StateCheckedIn  DayState = "checked_in"
	StateCheckedOut DayState = "checked_out"
)

// StateOf places a day record in the check-in state machine. A pre-created
// record without a check-in counts as no record.
func StateOf(rec *Record) DayState {
	switch {
	case rec == nil || rec.CheckIn == nil:
		return StateNoRecord
	case rec.CheckOut == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

func applyCheckIn(rec *Record, now time.Time) error {
	if StateOf(rec) != StateNoRecord {
		return apperrors.ErrAlreadyCheckedIn
	}
	rec.CheckIn = &now
	rec.Status = StatusPresent
	return nil
}

func applyCheckOut(rec *Record, now time.Time) error {
	switch StateOf(rec) {
	case StateNoRecord:
		return apperrors.ErrNotCheckedIn
	case StateCheckedOut:
		return apperrors.ErrAlreadyCheckedOut
	}
	if now.Before(*rec.CheckIn) {
		now = *rec.CheckIn
	}
	rec.CheckOut = &now
	return nil
}

func applyPatch(rec Record, patch Patch) (Record, error) {
	if patch.CheckIn != nil {
		rec.CheckIn = patch.CheckIn
	}
	if patch.CheckOut != nil {
		rec.CheckOut = patch.CheckOut
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return Record{}, fmt.Errorf("%w: unknown attendance status %q", apperrors.ErrValidation, *patch.Status)
		}
		rec.Status = *patch.Status
	}
	if patch.Note != nil {
		rec.Note = *patch.Note
	}
	return rec, checkOrder(rec.CheckIn, rec.CheckOut)
}

func checkOrder(checkIn, checkOut *time.Time) error {
	if checkOut == nil {
		return nil
	}
	if checkIn == nil {
		return fmt.Errorf("%w: check-out requires a check-in", apperrors.ErrValidation)
	}
	if checkOut.Before(*checkIn) {
		return fmt.Errorf("%w: check-out must not be before check-in", apperrors.ErrValidation)
	}
	return nil
}

// ComputeStats derives the attendance rate as present/total*100 rounded to
// two places, zero when there are no records.
func ComputeStats(c Counts) Stats {
	rate := decimal.Zero
	if c.Total > 0 {
		rate = decimal.NewFromInt(int64(c.Present)).
			Div(decimal.NewFromInt(int64(c.Total))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return Stats{
		TotalDays:      c.Total,
		PresentDays:    c.Present,
		AbsentDays:     c.Absent,
		LateDays:       c.Late,
		HalfDays:       c.HalfDay,
		AttendanceRate: rate,
	}
}

// calendarDay returns the date of t in loc as a UTC midnight.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
