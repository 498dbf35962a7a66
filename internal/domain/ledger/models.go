package ledger

import (
	"time"

	"hrcore/internal/domain/auth"
)

type Entry struct {
	ID           string     `json:"id"`
	EmployeeCode string     `json:"employeeCode"`
	WorkEmail    string     `json:"workEmail"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	HireDate     *time.Time `json:"hireDate,omitempty"`
	HireYear     *int       `json:"hireYear,omitempty"`
	HireSerial   *int       `json:"hireSerial,omitempty"`
	Role         auth.Role  `json:"role"`
	Registered   bool       `json:"registered"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// EntryInput carries the mutable fields of a ledger entry.
type EntryInput struct {
	EmployeeCode string     `json:"employeeCode"`
	WorkEmail    string     `json:"workEmail"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	HireDate     *time.Time `json:"hireDate,omitempty"`
	HireYear     *int       `json:"hireYear,omitempty"`
	HireSerial   *int       `json:"hireSerial,omitempty"`
	Role         auth.Role  `json:"role"`
}

type Filter struct {
	Registered *bool
	Role       auth.Role
	Search     string
}

type ListResult struct {
	Items []Entry `json:"items"`
	Total int     `json:"total"`
}

type ImportResult struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}
