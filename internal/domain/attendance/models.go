package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrcore/internal/apperrors"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown attendance status %q", apperrors.ErrValidation, raw)
	}
	return status, nil
}

type Record struct {
	ID        string     `json:"id"`
	AccountID string     `json:"accountId"`
	WorkDate  time.Time  `json:"workDate"`
	CheckIn   *time.Time `json:"checkIn"`
	CheckOut  *time.Time `json:"checkOut"`
	Status    Status     `json:"status"`
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// RecordInput is an admin-created day record.
type RecordInput struct {
	AccountID string     `json:"accountId"`
	WorkDate  time.Time  `json:"workDate"`
	CheckIn   *time.Time `json:"checkIn"`
	CheckOut  *time.Time `json:"checkOut"`
	Status    Status     `json:"status"`
	Note      string     `json:"note"`
}

// Patch holds the fields an admin override may change; nil leaves a field as is.
type Patch struct {
	CheckIn  *time.Time `json:"checkIn"`
	CheckOut *time.Time `json:"checkOut"`
	Status   *Status    `json:"status"`
	Note     *string    `json:"note"`
}

type Filter struct {
	AccountID string
	From      *time.Time
	To        *time.Time
	Status    Status
}

type ListResult struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

type Counts struct {
	Total   int
	Present int
	Absent  int
	Late    int
	HalfDay int
}

type Stats struct {
	TotalDays      int             `json:"totalDays"`
	PresentDays    int             `json:"presentDays"`
	AbsentDays     int             `json:"absentDays"`
	LateDays       int             `json:"lateDays"`
	HalfDays       int             `json:"halfDays"`
	AttendanceRate decimal.Decimal `json:"attendanceRate"`
}
