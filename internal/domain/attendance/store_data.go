package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

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

const recordColumns = `id, account_id, work_date, check_in, check_out, status, note, created_at, updated_at`

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.WithTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(&Store{DB: q})
	})
}

func (s *Store) GetDayForUpdate(ctx context.Context, accountID string, day time.Time) (Record, error) {
	return s.getDay(ctx, accountID, day, " FOR UPDATE")
}

func (s *Store) GetDay(ctx context.Context, accountID string, day time.Time) (Record, error) {
	return s.getDay(ctx, accountID, day, "")
}

func (s *Store) getDay(ctx context.Context, accountID string, day time.Time, lock string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE account_id = $1 AND work_date = $2`+lock, accountID, day))
	if querier.IsNoRows(err) {
		return Record{}, apperrors.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get attendance day: %w", err)
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return s.get(ctx, id, "")
}

func (s *Store) GetForUpdate(ctx context.Context, id string) (Record, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

func (s *Store) get(ctx context.Context, id, lock string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`+lock, id))
	if querier.IsNoRows(err) {
		return Record{}, fmt.Errorf("%w: attendance record %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get attendance record: %w", err)
	}
	return rec, nil
}

func (s *Store) Insert(ctx context.Context, in RecordInput) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (account_id, work_date, check_in, check_out, status, note)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+recordColumns,
		in.AccountID, in.WorkDate, in.CheckIn, in.CheckOut, in.Status, in.Note))
	switch {
	case querier.IsUniqueViolation(err, "attendance_records_day_key"):
		return Record{}, fmt.Errorf("%w: attendance already recorded for %s", apperrors.ErrConflict, in.WorkDate.Format("2006-01-02"))
	case querier.IsForeignKeyViolation(err):
		return Record{}, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, in.AccountID)
	case err != nil:
		return Record{}, fmt.Errorf("insert attendance record: %w", err)
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	saved, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE attendance_records
    SET check_in = $2, check_out = $3, status = $4, note = $5, updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns,
		rec.ID, rec.CheckIn, rec.CheckOut, rec.Status, rec.Note))
	if querier.IsNoRows(err) {
		return Record{}, fmt.Errorf("%w: attendance record %s", apperrors.ErrNotFound, rec.ID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("save attendance record: %w", err)
	}
	return saved, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: attendance record %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Record, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM attendance_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}

	query := "SELECT " + recordColumns + " FROM attendance_records" + where +
		fmt.Sprintf(" ORDER BY work_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan attendance record: %w", err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (s *Store) Counts(ctx context.Context, filter Filter) (Counts, error) {
	where, args := buildFilter(filter)
	var c Counts
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COUNT(1) FILTER (WHERE status = 'present'),
           COUNT(1) FILTER (WHERE status = 'absent'),
           COUNT(1) FILTER (WHERE status = 'late'),
           COUNT(1) FILTER (WHERE status = 'half-day')
    FROM attendance_records`+where, args...).Scan(&c.Total, &c.Present, &c.Absent, &c.Late, &c.HalfDay)
	if err != nil {
		return Counts{}, fmt.Errorf("count attendance: %w", err)
	}
	return c, nil
}

func buildFilter(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("work_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("work_date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.AccountID, &r.WorkDate, &r.CheckIn, &r.CheckOut, &r.Status, &r.Note, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
