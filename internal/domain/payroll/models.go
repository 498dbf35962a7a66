package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Record struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	BaseSalary    decimal.Decimal `json:"baseSalary"`
	Allowances    decimal.Decimal `json:"allowances"`
	Deductions    decimal.Decimal `json:"deductions"`
	Bonus         decimal.Decimal `json:"bonus"`
	Tax           decimal.Decimal `json:"tax"`
	NetSalary     decimal.Decimal `json:"netSalary"`
	PaymentDate   *time.Time      `json:"paymentDate"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type RecordInput struct {
	AccountID     string          `json:"accountId"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	BaseSalary    decimal.Decimal `json:"baseSalary"`
	Allowances    decimal.Decimal `json:"allowances"`
	Deductions    decimal.Decimal `json:"deductions"`
	Bonus         decimal.Decimal `json:"bonus"`
	Tax           decimal.Decimal `json:"tax"`
	NetSalary     decimal.Decimal `json:"netSalary"`
	PaymentDate   *time.Time      `json:"paymentDate"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
}

// Patch changes the fields that are set.
type Patch struct {
	Month         *int             `json:"month"`
	Year          *int             `json:"year"`
	BaseSalary    *decimal.Decimal `json:"baseSalary"`
	Allowances    *decimal.Decimal `json:"allowances"`
	Deductions    *decimal.Decimal `json:"deductions"`
	Bonus         *decimal.Decimal `json:"bonus"`
	Tax           *decimal.Decimal `json:"tax"`
	NetSalary     *decimal.Decimal `json:"netSalary"`
	PaymentDate   *time.Time       `json:"paymentDate"`
	PaymentMethod *string          `json:"paymentMethod"`
	Notes         *string          `json:"notes"`
}

// Result is a record with its advisory net-salary checks.
type Result struct {
	Record
	ExpectedNet decimal.Decimal `json:"expectedNet"`
	Warnings    []string        `json:"warnings"`
}

type Filter struct {
	AccountID string
	Month     int
	Year      int
}

type ListResult struct {
	Items []Result `json:"items"`
	Total int      `json:"total"`
}

// PayslipData is a record joined with the account it was paid to.
type PayslipData struct {
	Record
	LoginID   string
	FirstName string
	LastName  string
	Email     string
}
