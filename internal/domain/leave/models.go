package leave

import (
	"fmt"
	"strings"
	"time"

	"hrcore/internal/apperrors"
)

type Category string

const (
	CategorySick   Category = "sick"
	CategoryCasual Category = "casual"
	CategoryAnnual Category = "annual"
	CategoryUnpaid Category = "unpaid"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySick, CategoryCasual, CategoryAnnual, CategoryUnpaid:
		return true
	}
	return false
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown leave category %q", apperrors.ErrValidation, raw)
	}
	return c, nil
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown leave status %q", apperrors.ErrValidation, raw)
	}
	return s, nil
}

type Request struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"accountId"`
	Category   Category   `json:"category"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Days       int        `json:"days"`
	Reason     string     `json:"reason"`
	Status     Status     `json:"status"`
	ReviewerID *string    `json:"reviewerId"`
	// ReviewerLoginID outlives the reviewer account; ReviewerID is cleared
	// when that account is deleted.
	ReviewerLoginID *string    `json:"reviewerLoginId"`
	AdminNote       string     `json:"adminNote"`
	ReviewedAt      *time.Time `json:"reviewedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type SubmitInput struct {
	Category  Category  `json:"category"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason"`
}

// Decision moves a pending request to a terminal status.
type Decision struct {
	Status          Status
	ReviewerID      string
	ReviewerLoginID string
	Note            string
}

type Filter struct {
	AccountID string
	Status    Status
	Category  Category
}

type ListResult struct {
	Items []Request `json:"items"`
	Total int       `json:"total"`
}
