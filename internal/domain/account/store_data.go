package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hrcore/internal/apperrors"
	"hrcore/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const accountColumns = `id, ledger_entry_id, login_id, email, first_name, last_name, hire_date, hire_year, hire_serial,
    role, department, position, must_change_credential, active, created_at, updated_at`

// hireYearLockSpace namespaces advisory locks taken for serial allocation.
const hireYearLockSpace = 7301

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.WithTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(&Store{DB: q})
	})
}

func (s *Store) LockHireYear(ctx context.Context, year int) error {
	if _, err := s.DB.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, hireYearLockSpace, year); err != nil {
		return fmt.Errorf("lock hire year %d: %w", year, err)
	}
	return nil
}

func (s *Store) MaxSerial(ctx context.Context, year int) (int, error) {
	var max int
	err := s.DB.QueryRow(ctx, `
    SELECT GREATEST(
      (SELECT COALESCE(MAX(hire_serial), 0) FROM accounts WHERE hire_year = $1),
      (SELECT COALESCE(MAX(hire_serial), 0) FROM ledger_entries WHERE hire_year = $1 AND registered)
    )
  `, year).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max serial for %d: %w", year, err)
	}
	return max, nil
}

func (s *Store) LedgerCodeHeld(ctx context.Context, code, email string) (bool, error) {
	var held bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM ledger_entries WHERE employee_code = $1 AND lower(work_email) <> lower($2)
    )
  `, code, email).Scan(&held)
	if err != nil {
		return false, fmt.Errorf("check ledger code %s: %w", code, err)
	}
	return held, nil
}

func (s *Store) AccountConflict(ctx context.Context, loginID, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM accounts WHERE login_id = $1 OR lower(email) = lower($2)
    )
  `, loginID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account conflict: %w", err)
	}
	return exists, nil
}

func (s *Store) LedgerMatches(ctx context.Context, code, email string) ([]LedgerRef, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_code, work_email, first_name, last_name, hire_date, role, registered
    FROM ledger_entries
    WHERE employee_code = $1 OR lower(work_email) = lower($2)
    FOR UPDATE
  `, code, email)
	if err != nil {
		return nil, fmt.Errorf("match ledger entries: %w", err)
	}
	defer rows.Close()

	var refs []LedgerRef
	for rows.Next() {
		ref, err := scanLedgerRef(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) GetLedgerEntry(ctx context.Context, id string) (LedgerRef, error) {
	ref, err := scanLedgerRef(s.DB.QueryRow(ctx, `
    SELECT id, employee_code, work_email, first_name, last_name, hire_date, role, registered
    FROM ledger_entries
    WHERE id = $1
  `, id))
	if querier.IsNoRows(err) {
		return LedgerRef{}, fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return LedgerRef{}, fmt.Errorf("get ledger entry: %w", err)
	}
	return ref, nil
}

func (s *Store) InsertLedgerEntry(ctx context.Context, acc NewAccount) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO ledger_entries (employee_code, work_email, first_name, last_name, hire_date, hire_year, hire_serial, role, registered)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE)
    RETURNING id
  `, acc.LoginID, acc.Email, acc.FirstName, acc.LastName, acc.HireDate, acc.HireYear, acc.HireSerial, acc.Role).Scan(&id)
	if err != nil {
		return "", translateWriteErr(err)
	}
	return id, nil
}

func (s *Store) SupersedeLedgerEntry(ctx context.Context, id string, acc NewAccount) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE ledger_entries
    SET employee_code = $2, work_email = $3, first_name = $4, last_name = $5,
        hire_date = $6, hire_year = $7, hire_serial = $8, role = $9,
        registered = TRUE, updated_at = now()
    WHERE id = $1 AND registered = FALSE
  `, id, acc.LoginID, acc.Email, acc.FirstName, acc.LastName, acc.HireDate, acc.HireYear, acc.HireSerial, acc.Role)
	if err != nil {
		return translateWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger entry %s", apperrors.ErrLedgerRegistered, id)
	}
	return nil
}

func (s *Store) InsertAccount(ctx context.Context, acc NewAccount) (Account, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO accounts (ledger_entry_id, login_id, email, password_hash, first_name, last_name,
                          hire_date, hire_year, hire_serial, role, department, position, must_change_credential)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING `+accountColumns,
		acc.LedgerEntryID, acc.LoginID, acc.Email, acc.PasswordHash, acc.FirstName, acc.LastName,
		acc.HireDate, acc.HireYear, acc.HireSerial, acc.Role, acc.Department, acc.Position, acc.MustChangeCredential)
	account, err := scanAccount(row)
	if err != nil {
		return Account{}, translateWriteErr(err)
	}
	return account, nil
}

func (s *Store) Get(ctx context.Context, id string) (Account, error) {
	account, err := scanAccount(s.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if querier.IsNoRows(err) {
		return Account{}, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (s *Store) CredentialHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.DB.QueryRow(ctx, `SELECT password_hash FROM accounts WHERE id = $1`, id).Scan(&hash)
	if querier.IsNoRows(err) {
		return "", fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return hash, nil
}

func (s *Store) FindForLogin(ctx context.Context, identifier string) (Account, string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+accountColumns+`, password_hash
    FROM accounts
    WHERE login_id = $1 OR lower(email) = lower($1)
    ORDER BY (login_id = $1) DESC
    LIMIT 1
  `, identifier)
	if err != nil {
		return Account{}, "", fmt.Errorf("find login: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Account{}, "", fmt.Errorf("find login: %w", err)
		}
		return Account{}, "", apperrors.ErrNotFound
	}
	var a Account
	var hash string
	if err := rows.Scan(accountDest(&a, &hash)...); err != nil {
		return Account{}, "", fmt.Errorf("scan login: %w", err)
	}
	return a, hash, nil
}

func (s *Store) UpdateCredential(ctx context.Context, id, hash string, mustChange bool) (Account, error) {
	account, err := scanAccount(s.DB.QueryRow(ctx, `
    UPDATE accounts
    SET password_hash = $2, must_change_credential = $3, updated_at = now()
    WHERE id = $1
    RETURNING `+accountColumns, id, hash, mustChange))
	if querier.IsNoRows(err) {
		return Account{}, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Account{}, fmt.Errorf("update credential: %w", err)
	}
	return account, nil
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) (Account, error) {
	account, err := scanAccount(s.DB.QueryRow(ctx, `
    UPDATE accounts SET active = $2, updated_at = now()
    WHERE id = $1
    RETURNING `+accountColumns, id, active))
	if querier.IsNoRows(err) {
		return Account{}, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Account{}, fmt.Errorf("set account active: %w", err)
	}
	return account, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (s *Store) EmailInUse(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM accounts WHERE lower(email) = lower($1))
        OR EXISTS (SELECT 1 FROM ledger_entries WHERE lower(work_email) = lower($1))
  `, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Account, int, error) {
	var clauses []string
	var args []any
	if filter.Role != "" {
		args = append(args, filter.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		clauses = append(clauses, fmt.Sprintf("lower(department) = lower($%d)", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		pos := len(args)
		clauses = append(clauses, fmt.Sprintf("(login_id ILIKE $%d OR email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", pos, pos, pos, pos))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM accounts"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	query := "SELECT " + accountColumns + " FROM accounts" + where +
		fmt.Sprintf(" ORDER BY hire_year DESC NULLS LAST, hire_serial DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, account)
	}
	return out, total, rows.Err()
}

func accountDest(a *Account, extra ...any) []any {
	dest := []any{&a.ID, &a.LedgerEntryID, &a.LoginID, &a.Email, &a.FirstName, &a.LastName, &a.HireDate,
		&a.HireYear, &a.HireSerial, &a.Role, &a.Department, &a.Position, &a.MustChangeCredential, &a.Active,
		&a.CreatedAt, &a.UpdatedAt}
	return append(dest, extra...)
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(accountDest(&a)...)
	return a, err
}

func scanLedgerRef(row pgx.Row) (LedgerRef, error) {
	var ref LedgerRef
	err := row.Scan(&ref.ID, &ref.EmployeeCode, &ref.WorkEmail, &ref.FirstName, &ref.LastName, &ref.HireDate, &ref.Role, &ref.Registered)
	return ref, err
}

func translateWriteErr(err error) error {
	if querier.IsUniqueViolation(err, "") {
		return fmt.Errorf("%w: login id, email or serial already allocated", apperrors.ErrDuplicateIdentity)
	}
	return fmt.Errorf("write account: %w", err)
}
