package account

import (
	"strings"
	"time"

	"hrcore/internal/domain/auth"
)

type Account struct {
	ID                   string     `json:"id"`
	LedgerEntryID        *string    `json:"ledgerEntryId,omitempty"`
	LoginID              string     `json:"loginId"`
	Email                string     `json:"email"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	HireDate             *time.Time `json:"hireDate,omitempty"`
	HireYear             *int       `json:"hireYear,omitempty"`
	HireSerial           *int       `json:"hireSerial,omitempty"`
	Role                 auth.Role  `json:"role"`
	Department           string     `json:"department"`
	Position             string     `json:"position"`
	MustChangeCredential bool       `json:"mustChangeCredential"`
	Active               bool       `json:"active"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type ActivationInput struct {
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	HireDate   time.Time `json:"hireDate"`
	Role       auth.Role `json:"role"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	// LedgerEntryID names the unregistered entry this activation supersedes.
	LedgerEntryID string `json:"-"`
}

// Activation is returned once; TemporaryCredential is never stored.
type Activation struct {
	Account             Account `json:"account"`
	TemporaryCredential string  `json:"temporaryCredential"`
}

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Account     Account   `json:"account"`
}

type Filter struct {
	Role       auth.Role
	Department string
	Active     *bool
	Search     string
}

type ListResult struct {
	Items []Account `json:"items"`
	Total int       `json:"total"`
}

type BootstrapInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LedgerRef is the slice of a ledger entry activation needs to see.
type LedgerRef struct {
	ID           string
	EmployeeCode string
	WorkEmail    string
	FirstName    string
	LastName     string
	HireDate     *time.Time
	Role         auth.Role
	Registered   bool
}

// NewAccount is the row written at activation or bootstrap.
type NewAccount struct {
	LedgerEntryID        *string
	LoginID              string
	Email                string
	PasswordHash         string
	FirstName            string
	LastName             string
	HireDate             time.Time
	HireYear             int
	HireSerial           int
	Role                 auth.Role
	Department           string
	Position             string
	MustChangeCredential bool
}
