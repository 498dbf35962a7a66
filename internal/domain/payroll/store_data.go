package payroll

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

const (
	recordColumns = `id, account_id, month, year, base_salary, allowances, deductions, bonus, tax, net_salary,
    payment_date, payment_method, notes, created_at, updated_at`
	periodConstraint = "payroll_records_period_key"
)

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.WithTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(&Store{DB: q})
	})
}

func (s *Store) Insert(ctx context.Context, r Record) (Record, bool, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (account_id, month, year, base_salary, allowances, deductions, bonus, tax, net_salary,
                                 payment_date, payment_method, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    ON CONFLICT ON CONSTRAINT `+periodConstraint+` DO NOTHING
    RETURNING `+recordColumns,
		r.AccountID, r.Month, r.Year, r.BaseSalary, r.Allowances, r.Deductions, r.Bonus, r.Tax, r.NetSalary,
		r.PaymentDate, r.PaymentMethod, r.Notes))
	switch {
	case querier.IsNoRows(err):
		return Record{}, false, nil
	case querier.IsForeignKeyViolation(err):
		return Record{}, false, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, r.AccountID)
	case err != nil:
		return Record{}, false, fmt.Errorf("insert payroll record: %w", err)
	}
	return rec, true, nil
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return s.get(ctx, id, "")
}

func (s *Store) GetForUpdate(ctx context.Context, id string) (Record, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

func (s *Store) get(ctx context.Context, id, lock string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM payroll_records WHERE id = $1`+lock, id))
	if querier.IsNoRows(err) {
		return Record{}, fmt.Errorf("%w: payroll record %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get payroll record: %w", err)
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, r Record) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE payroll_records
    SET month = $2, year = $3, base_salary = $4, allowances = $5, deductions = $6, bonus = $7, tax = $8,
        net_salary = $9, payment_date = $10, payment_method = $11, notes = $12, updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns,
		r.ID, r.Month, r.Year, r.BaseSalary, r.Allowances, r.Deductions, r.Bonus, r.Tax, r.NetSalary,
		r.PaymentDate, r.PaymentMethod, r.Notes))
	switch {
	case querier.IsUniqueViolation(err, periodConstraint):
		return Record{}, fmt.Errorf("%w: %02d/%d already has a record", apperrors.ErrDuplicatePeriod, r.Month, r.Year)
	case querier.IsNoRows(err):
		return Record{}, fmt.Errorf("%w: payroll record %s", apperrors.ErrNotFound, r.ID)
	case err != nil:
		return Record{}, fmt.Errorf("save payroll record: %w", err)
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM payroll_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payroll record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payroll record %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Record, int, error) {
	var clauses []string
	var args []any
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		clauses = append(clauses, fmt.Sprintf("month = $%d", len(args)))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		clauses = append(clauses, fmt.Sprintf("year = $%d", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payroll records: %w", err)
	}

	query := "SELECT " + recordColumns + " FROM payroll_records" + where +
		fmt.Sprintf(" ORDER BY year DESC, month DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payroll records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payroll record: %w", err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (s *Store) Latest(ctx context.Context, accountID string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE account_id = $1
    ORDER BY year DESC, month DESC
    LIMIT 1
  `, accountID))
	if querier.IsNoRows(err) {
		return Record{}, fmt.Errorf("%w: no payroll records for account %s", apperrors.ErrNotFound, accountID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("latest payroll record: %w", err)
	}
	return rec, nil
}

func (s *Store) PayslipData(ctx context.Context, id string) (PayslipData, error) {
	var d PayslipData
	r := &d.Record
	err := s.DB.QueryRow(ctx, `
    SELECT p.id, p.account_id, p.month, p.year, p.base_salary, p.allowances, p.deductions, p.bonus, p.tax, p.net_salary,
           p.payment_date, p.payment_method, p.notes, p.created_at, p.updated_at,
           a.login_id, a.first_name, a.last_name, a.email
    FROM payroll_records p
    JOIN accounts a ON a.id = p.account_id
    WHERE p.id = $1
  `, id).Scan(&r.ID, &r.AccountID, &r.Month, &r.Year, &r.BaseSalary, &r.Allowances, &r.Deductions, &r.Bonus, &r.Tax,
		&r.NetSalary, &r.PaymentDate, &r.PaymentMethod, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
		&d.LoginID, &d.FirstName, &d.LastName, &d.Email)
	if querier.IsNoRows(err) {
		return PayslipData{}, fmt.Errorf("%w: payroll record %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return PayslipData{}, fmt.Errorf("load payslip data: %w", err)
	}
	return d, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.AccountID, &r.Month, &r.Year, &r.BaseSalary, &r.Allowances, &r.Deductions, &r.Bonus,
		&r.Tax, &r.NetSalary, &r.PaymentDate, &r.PaymentMethod, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
