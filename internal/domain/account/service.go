package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/ledger"
)

type Settings struct {
	OrgPrefix            string
	TempCredentialLength int
}

type Service struct {
	store            StoreAPI
	issuer           ledger.Issuer
	tokens           *auth.TokenIssuer
	credentialLength int
	now              func() time.Time
}

func NewService(store StoreAPI, settings Settings, tokens *auth.TokenIssuer) *Service {
	length := settings.TempCredentialLength
	if length == 0 {
		length = 12
	}
	return &Service{
		store:            store,
		issuer:           ledger.NewIssuer(settings.OrgPrefix),
		tokens:           tokens,
		credentialLength: length,
		now:              time.Now,
	}
}

// dummyHash keeps login timing similar for unknown identifiers.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("unknown-identifier")
	return hash
})

func normalizeActivation(in ActivationInput) ActivationInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Department = strings.TrimSpace(in.Department)
	in.Position = strings.TrimSpace(in.Position)
	if in.Role == "" {
		in.Role = auth.RoleEmployee
	}
	return in
}

func validateActivation(in ActivationInput) error {
	if in.FirstName == "" || in.LastName == "" {
		return fmt.Errorf("%w: first and last name are required", apperrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		return fmt.Errorf("%w: email %q is invalid", apperrors.ErrValidation, in.Email)
	}
	if in.HireDate.IsZero() {
		return fmt.Errorf("%w: hire date is required", apperrors.ErrValidation)
	}
	if year := in.HireDate.Year(); year < 1900 || year > 9999 {
		return fmt.Errorf("%w: hire year %d out of range", apperrors.ErrValidation, year)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, in.Role)
	}
	return nil
}

// Activate issues a login id, creates the registered ledger entry and the
// account in one transaction, and returns the plaintext temporary credential.
func (s *Service) Activate(ctx context.Context, in ActivationInput) (Activation, error) {
	in = normalizeActivation(in)
	if err := validateActivation(in); err != nil {
		return Activation{}, err
	}

	credential, err := auth.GenerateTemporaryCredential(s.credentialLength)
	if err != nil {
		return Activation{}, fmt.Errorf("generate temporary credential: %w", err)
	}
	hash, err := auth.HashPassword(credential)
	if err != nil {
		return Activation{}, fmt.Errorf("hash temporary credential: %w", err)
	}

	hireYear := in.HireDate.Year()
	var created Account
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		if err := tx.LockHireYear(ctx, hireYear); err != nil {
			return err
		}
		loginID, serial, err := s.nextLoginID(ctx, tx, in, hireYear)
		if err != nil {
			return err
		}

		conflict, err := tx.AccountConflict(ctx, loginID, in.Email)
		if err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("%w: an account with login id %s or this email already exists", apperrors.ErrDuplicateIdentity, loginID)
		}

		supersede, err := resolveLedger(ctx, tx, loginID, in)
		if err != nil {
			return err
		}

		record := NewAccount{
			LoginID:              loginID,
			Email:                in.Email,
			PasswordHash:         hash,
			FirstName:            in.FirstName,
			LastName:             in.LastName,
			HireDate:             in.HireDate,
			HireYear:             hireYear,
			HireSerial:           serial,
			Role:                 in.Role,
			Department:           in.Department,
			Position:             in.Position,
			MustChangeCredential: true,
		}

		ledgerID := supersede
		if ledgerID != "" {
			if err := tx.SupersedeLedgerEntry(ctx, ledgerID, record); err != nil {
				return err
			}
		} else {
			ledgerID, err = tx.InsertLedgerEntry(ctx, record)
			if err != nil {
				return err
			}
		}
		record.LedgerEntryID = &ledgerID

		account, err := tx.InsertAccount(ctx, record)
		if err != nil {
			return err
		}
		created = account
		return nil
	})
	if err != nil {
		return Activation{}, err
	}
	return Activation{Account: created, TemporaryCredential: credential}, nil
}

// maxSerialSkips bounds how far allocation walks past serials whose login id
// is already taken by a ledger entry for someone else.
const maxSerialSkips = 1000

// nextLoginID allocates the next free serial of hireYear. A serial whose
// composed login id is held by another person's ledger entry is skipped
// rather than reused.
func (s *Service) nextLoginID(ctx context.Context, tx StoreAPI, in ActivationInput, hireYear int) (string, int, error) {
	current, err := tx.MaxSerial(ctx, hireYear)
	if err != nil {
		return "", 0, err
	}
	for range maxSerialSkips {
		loginID, serial := s.issuer.Issue(in.FirstName, in.LastName, hireYear, current)
		held, err := tx.LedgerCodeHeld(ctx, loginID, in.Email)
		if err != nil {
			return "", 0, err
		}
		if !held {
			return loginID, serial, nil
		}
		current = serial
	}
	return "", 0, fmt.Errorf("%w: no free login id serial for %d", apperrors.ErrConflict, hireYear)
}

// ActivateFromLedger activates the person described by an unregistered
// ledger entry. Department and position are not kept on the ledger.
func (s *Service) ActivateFromLedger(ctx context.Context, entryID, department, position string) (Activation, error) {
	entry, err := s.store.GetLedgerEntry(ctx, entryID)
	if err != nil {
		return Activation{}, err
	}
	if entry.Registered {
		return Activation{}, fmt.Errorf("%w: %s", apperrors.ErrLedgerRegistered, entry.EmployeeCode)
	}
	if entry.HireDate == nil {
		return Activation{}, fmt.Errorf("%w: ledger entry has no hire date", apperrors.ErrValidation)
	}
	return s.Activate(ctx, ActivationInput{
		FirstName:     entry.FirstName,
		LastName:      entry.LastName,
		Email:         entry.WorkEmail,
		HireDate:      *entry.HireDate,
		Role:          entry.Role,
		Department:    department,
		Position:      position,
		LedgerEntryID: entry.ID,
	})
}

// resolveLedger returns the id of the unregistered ledger entry this
// activation supersedes, or "" when a new entry must be written.
func resolveLedger(ctx context.Context, tx StoreAPI, loginID string, in ActivationInput) (string, error) {
	refs, err := tx.LedgerMatches(ctx, loginID, in.Email)
	if err != nil {
		return "", err
	}
	supersede := ""
	for _, ref := range refs {
		switch {
		case ref.Registered:
			return "", fmt.Errorf("%w: ledger entry %s is already registered", apperrors.ErrDuplicateIdentity, ref.EmployeeCode)
		case !strings.EqualFold(ref.WorkEmail, in.Email):
			return "", fmt.Errorf("%w: ledger entry %s already uses login id %s", apperrors.ErrDuplicateIdentity, ref.EmployeeCode, loginID)
		case in.LedgerEntryID != "" && ref.ID != in.LedgerEntryID:
			return "", fmt.Errorf("%w: email belongs to ledger entry %s", apperrors.ErrDuplicateIdentity, ref.EmployeeCode)
		default:
			supersede = ref.ID
		}
	}
	if in.LedgerEntryID != "" && supersede == "" {
		return "", fmt.Errorf("%w: ledger entry %s changed during activation", apperrors.ErrConflict, in.LedgerEntryID)
	}
	return supersede, nil
}

// ResetCredential replaces the stored hash with a fresh temporary credential.
func (s *Service) ResetCredential(ctx context.Context, accountID string) (Activation, error) {
	credential, err := auth.GenerateTemporaryCredential(s.credentialLength)
	if err != nil {
		return Activation{}, fmt.Errorf("generate temporary credential: %w", err)
	}
	hash, err := auth.HashPassword(credential)
	if err != nil {
		return Activation{}, fmt.Errorf("hash temporary credential: %w", err)
	}
	account, err := s.store.UpdateCredential(ctx, accountID, hash, true)
	if err != nil {
		return Activation{}, err
	}
	return Activation{Account: account, TemporaryCredential: credential}, nil
}

// ChangeCredential verifies current, stores next and clears the
// must-change flag.
func (s *Service) ChangeCredential(ctx context.Context, accountID, current, next string) (Account, error) {
	hash, err := s.store.CredentialHash(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if err := auth.CheckPassword(hash, current); err != nil {
		return Account{}, fmt.Errorf("%w: current credential does not match", apperrors.ErrInvalidCredential)
	}
	if err := auth.ValidateNewCredential(current, next); err != nil {
		return Account{}, err
	}
	newHash, err := auth.HashPassword(next)
	if err != nil {
		return Account{}, fmt.Errorf("hash credential: %w", err)
	}
	return s.store.UpdateCredential(ctx, accountID, newHash, false)
}

// Login accepts a login id or an email as identifier.
func (s *Service) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return LoginResult{}, apperrors.ErrInvalidCredential
	}

	account, hash, err := s.store.FindForLogin(ctx, identifier)
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = auth.CheckPassword(dummyHash(), password)
		return LoginResult{}, apperrors.ErrInvalidCredential
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		return LoginResult{}, apperrors.ErrInvalidCredential
	}
	if !account.Active {
		return LoginResult{}, fmt.Errorf("%w: account is inactive", apperrors.ErrInvalidCredential)
	}

	token, expires, err := s.tokens.Issue(account.ID, account.LoginID, account.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{AccessToken: token, TokenType: "bearer", ExpiresAt: expires, Account: account}, nil
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Account, error) {
	if !actor.CanAccess(id) {
		return Account{}, apperrors.ErrForbidden
	}
	return s.store.Get(ctx, id)
}

// IsActive reports whether id names an existing, active account.
func (s *Service) IsActive(ctx context.Context, id string) (bool, error) {
	acc, err := s.store.Get(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return acc.Active, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) (ListResult, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Department = strings.TrimSpace(filter.Department)
	items, total, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Account{}
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Service) SetActive(ctx context.Context, actor auth.UserContext, id string, active bool) (Account, error) {
	if !active && actor.AccountID == id {
		return Account{}, fmt.Errorf("%w: cannot deactivate your own account", apperrors.ErrForbidden)
	}
	return s.store.SetActive(ctx, id, active)
}

// Delete removes the account; attendance, leave and payroll rows cascade.
func (s *Service) Delete(ctx context.Context, actor auth.UserContext, id string) (Account, error) {
	if actor.AccountID == id {
		return Account{}, fmt.Errorf("%w: cannot delete your own account", apperrors.ErrForbidden)
	}
	var deleted Account
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		account, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		deleted = account
		return nil
	})
	return deleted, err
}

// Bootstrap creates the first admin account when its email is unused. The
// account has no ledger ancestor and keeps the configured password.
func (s *Service) Bootstrap(ctx context.Context, in BootstrapInput) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return false, nil
	}
	inUse, err := s.store.EmailInUse(ctx, email)
	if err != nil || inUse {
		return false, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return false, fmt.Errorf("hash seed password: %w", err)
	}
	now := s.now().UTC()
	hireDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		if err := tx.LockHireYear(ctx, hireDate.Year()); err != nil {
			return err
		}
		loginID, serial, err := s.nextLoginID(ctx, tx, ActivationInput{FirstName: in.FirstName, LastName: in.LastName, Email: email}, hireDate.Year())
		if err != nil {
			return err
		}
		_, err = tx.InsertAccount(ctx, NewAccount{
			LoginID:      loginID,
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			HireDate:     hireDate,
			HireYear:     hireDate.Year(),
			HireSerial:   serial,
			Role:         auth.RoleAdmin,
		})
		return err
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
