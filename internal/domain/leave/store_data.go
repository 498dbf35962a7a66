package leave

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

const requestColumns = `id, account_id, category, start_date, end_date, reason, status, reviewer_id, reviewer_login_id, admin_note, reviewed_at, created_at, updated_at`

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.WithTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(&Store{DB: q})
	})
}

func (s *Store) Insert(ctx context.Context, accountID string, in SubmitInput) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (account_id, category, start_date, end_date, reason)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+requestColumns,
		accountID, in.Category, in.StartDate, in.EndDate, in.Reason))
	if querier.IsForeignKeyViolation(err) {
		return Request{}, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	if err != nil {
		return Request{}, fmt.Errorf("insert leave request: %w", err)
	}
	return req, nil
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	return s.get(ctx, id, "")
}

func (s *Store) GetForUpdate(ctx context.Context, id string) (Request, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

func (s *Store) get(ctx context.Context, id, lock string) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = $1`+lock, id))
	if querier.IsNoRows(err) {
		return Request{}, fmt.Errorf("%w: leave request %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Request{}, fmt.Errorf("get leave request: %w", err)
	}
	return req, nil
}

func (s *Store) Decide(ctx context.Context, id string, d Decision) (Request, bool, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $2, reviewer_id = $3, admin_note = $4, reviewed_at = now(), updated_at = now(),
        reviewer_login_id = COALESCE(NULLIF($5, ''), (SELECT login_id FROM accounts WHERE id = $3))
    WHERE id = $1 AND status = 'pending'
    RETURNING `+requestColumns, id, d.Status, d.ReviewerID, d.Note, d.ReviewerLoginID))
	if querier.IsNoRows(err) {
		return Request{}, false, nil
	}
	if err != nil {
		return Request{}, false, fmt.Errorf("decide leave request: %w", err)
	}
	return req, true, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: leave request %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Request, int, error) {
	var clauses []string
	var args []any
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	query := "SELECT " + requestColumns + " FROM leave_requests" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan leave request: %w", err)
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.AccountID, &r.Category, &r.StartDate, &r.EndDate, &r.Reason, &r.Status,
		&r.ReviewerID, &r.ReviewerLoginID, &r.AdminNote, &r.ReviewedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Request{}, err
	}
	r.Days = inclusiveDays(r.StartDate, r.EndDate)
	return r, nil
}
