package ledger

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

const entryColumns = `id, employee_code, work_email, first_name, last_name, hire_date, hire_year, hire_serial, role, registered, created_at, updated_at`

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.WithTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(&Store{DB: q})
	})
}

func (s *Store) FindMatches(ctx context.Context, code, email string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+`
    FROM ledger_entries
    WHERE employee_code = $1 OR lower(work_email) = lower($2)
    ORDER BY created_at
    FOR UPDATE
  `, code, email)
	if err != nil {
		return nil, fmt.Errorf("find ledger matches: %w", err)
	}
	return collectEntries(rows)
}

func (s *Store) AccountHolds(ctx context.Context, code, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM accounts WHERE login_id = $1 OR lower(email) = lower($2)
    )
  `, code, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account identity: %w", err)
	}
	return exists, nil
}

func (s *Store) Insert(ctx context.Context, in EntryInput) (Entry, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO ledger_entries (employee_code, work_email, first_name, last_name, hire_date, hire_year, hire_serial, role)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+entryColumns,
		in.EmployeeCode, in.WorkEmail, in.FirstName, in.LastName, in.HireDate, in.HireYear, in.HireSerial, in.Role)
	entry, err := scanEntry(row)
	if err != nil {
		return Entry{}, translateWriteErr(err)
	}
	return entry, nil
}

func (s *Store) Update(ctx context.Context, id string, in EntryInput) (Entry, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE ledger_entries
    SET employee_code = $2, work_email = $3, first_name = $4, last_name = $5,
        hire_date = $6, hire_year = $7, hire_serial = $8, role = $9, updated_at = now()
    WHERE id = $1 AND registered = FALSE
    RETURNING `+entryColumns,
		id, in.EmployeeCode, in.WorkEmail, in.FirstName, in.LastName, in.HireDate, in.HireYear, in.HireSerial, in.Role)
	entry, err := scanEntry(row)
	if querier.IsNoRows(err) {
		return Entry{}, fmt.Errorf("%w: ledger entry %s is missing or registered", apperrors.ErrLedgerRegistered, id)
	}
	if err != nil {
		return Entry{}, translateWriteErr(err)
	}
	return entry, nil
}

func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	return s.get(ctx, id, "")
}

func (s *Store) GetForUpdate(ctx context.Context, id string) (Entry, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

func (s *Store) get(ctx context.Context, id, lock string) (Entry, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`+lock, id)
	entry, err := scanEntry(row)
	if querier.IsNoRows(err) {
		return Entry{}, fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get ledger entry: %w", err)
	}
	return entry, nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ledger_entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	query := "SELECT " + entryColumns + " FROM ledger_entries" + where +
		fmt.Sprintf(" ORDER BY created_at DESC, employee_code LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func buildFilter(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Registered != nil {
		args = append(args, *filter.Registered)
		clauses = append(clauses, fmt.Sprintf("registered = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		pos := len(args)
		clauses = append(clauses, fmt.Sprintf("(employee_code ILIKE $%d OR work_email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", pos, pos, pos, pos))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.EmployeeCode, &e.WorkEmail, &e.FirstName, &e.LastName, &e.HireDate,
		&e.HireYear, &e.HireSerial, &e.Role, &e.Registered, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func translateWriteErr(err error) error {
	if querier.IsUniqueViolation(err, "") {
		return fmt.Errorf("%w: ledger entry code or email already in use", apperrors.ErrDuplicateIdentity)
	}
	return fmt.Errorf("write ledger entry: %w", err)
}
