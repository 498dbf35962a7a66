package payrollhandler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/notifications"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type PayrollService interface {
	Create(ctx context.Context, in payroll.RecordInput) (payroll.Result, error)
	Update(ctx context.Context, id string, patch payroll.Patch) (payroll.Result, payroll.Result, error)
	Delete(ctx context.Context, id string) (payroll.Record, error)
	Get(ctx context.Context, actor auth.UserContext, id string) (payroll.Result, error)
	ListMine(ctx context.Context, actor auth.UserContext, year, limit, offset int) (payroll.ListResult, error)
	List(ctx context.Context, filter payroll.Filter, limit, offset int) (payroll.ListResult, error)
	Latest(ctx context.Context, actor auth.UserContext, accountID string) (payroll.Result, error)
	Payslip(ctx context.Context, actor auth.UserContext, id string) ([]byte, payroll.Record, error)
}

type Handler struct {
	Service     PayrollService
	Audit       shared.AuditRecorder
	Idempotency middleware.IdempotencyBackend
	Notifier    shared.Notifier
}

func NewHandler(service PayrollService, auditSvc shared.AuditRecorder, idem middleware.IdempotencyBackend, notifier shared.Notifier) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Idempotency: idem, Notifier: notifier}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollSelf)).Get("/me", h.handleListMine)
		r.With(middleware.RequirePermission(auth.PermPayrollSelf)).Get("/me/latest", h.handleLatestMine)
		r.With(middleware.RequirePermission(auth.PermPayrollManage)).Get("/accounts/{accountID}/latest", h.handleLatestFor)
		r.With(middleware.RequirePermission(auth.PermPayrollManage)).Get("/", h.handleList)
		r.With(
			middleware.RequirePermission(auth.PermPayrollManage),
			middleware.Idempotent(h.Idempotency, "payroll.create"),
		).Post("/", h.handleCreate)
		r.With(middleware.RequireAuth).Get("/{recordID}", h.handleGet)
		r.With(middleware.RequireAuth).Get("/{recordID}/payslip", h.handlePayslip)
		r.With(middleware.RequirePermission(auth.PermPayrollManage)).Put("/{recordID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermPayrollManage)).Delete("/{recordID}", h.handleDelete)
	})
}

type createRequest struct {
	AccountID     string           `json:"accountId" validate:"required,uuid"`
	Month         int              `json:"month" validate:"required,min=1,max=12"`
	Year          int              `json:"year" validate:"required,min=1900,max=9999"`
	BaseSalary    *decimal.Decimal `json:"baseSalary" validate:"required"`
	Allowances    decimal.Decimal  `json:"allowances"`
	Deductions    decimal.Decimal  `json:"deductions"`
	Bonus         decimal.Decimal  `json:"bonus"`
	Tax           decimal.Decimal  `json:"tax"`
	NetSalary     *decimal.Decimal `json:"netSalary" validate:"required"`
	PaymentDate   string           `json:"paymentDate"`
	PaymentMethod string           `json:"paymentMethod" validate:"max=50"`
	Notes         string           `json:"notes" validate:"max=1000"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload createRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	paymentDate := v.OptionalDate("paymentDate", payload.PaymentDate)
	checkAmounts(v, map[string]*decimal.Decimal{
		"baseSalary": payload.BaseSalary,
		"allowances": &payload.Allowances,
		"deductions": &payload.Deductions,
		"bonus":      &payload.Bonus,
		"tax":        &payload.Tax,
	})
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.Create(r.Context(), payroll.RecordInput{
		AccountID:     payload.AccountID,
		Month:         payload.Month,
		Year:          payload.Year,
		BaseSalary:    *payload.BaseSalary,
		Allowances:    payload.Allowances,
		Deductions:    payload.Deductions,
		Bonus:         payload.Bonus,
		Tax:           payload.Tax,
		NetSalary:     *payload.NetSalary,
		PaymentDate:   paymentDate,
		PaymentMethod: payload.PaymentMethod,
		Notes:         payload.Notes,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollCreate, audit.EntityPayrollRecord, result.ID, nil, result.Record)
	shared.Notify(r, h.Notifier, notifications.Notice{
		AccountID: result.AccountID,
		Type:      notifications.TypePayslipPublished,
		Title:     fmt.Sprintf("Payslip for %02d/%d is available", result.Month, result.Year),
		Body:      "Net salary " + result.NetSalary.StringFixed(2),
		EntityID:  result.ID,
	})
	api.Created(w, result, requestID)
}

// checkAmounts rejects negative components; net salary may go negative.
func checkAmounts(v *shared.Validator, amounts map[string]*decimal.Decimal) {
	for field, amount := range amounts {
		if amount != nil && amount.IsNegative() {
			v.Add(field, "must not be negative")
		}
	}
}

type updateRequest struct {
	Month         *int             `json:"month" validate:"omitempty,min=1,max=12"`
	Year          *int             `json:"year" validate:"omitempty,min=1900,max=9999"`
	BaseSalary    *decimal.Decimal `json:"baseSalary"`
	Allowances    *decimal.Decimal `json:"allowances"`
	Deductions    *decimal.Decimal `json:"deductions"`
	Bonus         *decimal.Decimal `json:"bonus"`
	Tax           *decimal.Decimal `json:"tax"`
	NetSalary     *decimal.Decimal `json:"netSalary"`
	PaymentDate   *string          `json:"paymentDate"`
	PaymentMethod *string          `json:"paymentMethod" validate:"omitempty,max=50"`
	Notes         *string          `json:"notes" validate:"omitempty,max=1000"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	recordID, ok := shared.PathID(w, r, "recordID", requestID)
	if !ok {
		return
	}
	var payload updateRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	checkAmounts(v, map[string]*decimal.Decimal{
		"baseSalary": payload.BaseSalary,
		"allowances": payload.Allowances,
		"deductions": payload.Deductions,
		"bonus":      payload.Bonus,
		"tax":        payload.Tax,
	})
	var paymentDate *time.Time
	if payload.PaymentDate != nil {
		paymentDate = v.OptionalDate("paymentDate", *payload.PaymentDate)
	}
	if v.Reject(w, requestID) {
		return
	}

	before, after, err := h.Service.Update(r.Context(), recordID, payroll.Patch{
		Month:         payload.Month,
		Year:          payload.Year,
		BaseSalary:    payload.BaseSalary,
		Allowances:    payload.Allowances,
		Deductions:    payload.Deductions,
		Bonus:         payload.Bonus,
		Tax:           payload.Tax,
		NetSalary:     payload.NetSalary,
		PaymentDate:   paymentDate,
		PaymentMethod: payload.PaymentMethod,
		Notes:         payload.Notes,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollUpdate, audit.EntityPayrollRecord, recordID, before.Record, after.Record)
	api.Success(w, after, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	recordID, ok := shared.PathID(w, r, "recordID", requestID)
	if !ok {
		return
	}
	deleted, err := h.Service.Delete(r.Context(), recordID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollDelete, audit.EntityPayrollRecord, recordID, deleted, nil)
	api.Success(w, map[string]string{"id": recordID}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	recordID, ok := shared.PathID(w, r, "recordID", requestID)
	if !ok {
		return
	}
	result, err := h.Service.Get(r.Context(), user, recordID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	recordID, ok := shared.PathID(w, r, "recordID", requestID)
	if !ok {
		return
	}
	pdf, rec, err := h.Service.Payslip(r.Context(), user, recordID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%d-%02d.pdf", rec.Year, rec.Month))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// parseInt reads an optional integer query parameter within [lo, hi].
func parseInt(v *shared.Validator, r *http.Request, name string, lo, hi int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		v.Add(name, fmt.Sprintf("must be between %d and %d", lo, hi))
		return 0
	}
	return n
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	v := shared.NewValidator()
	year := parseInt(v, r, "year", payroll.MinYear, payroll.MaxYear)
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	result, err := h.Service.ListMine(r.Context(), user, year, page.Limit, page.Offset)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, shared.NewPage(result.Items, result.Total, page), requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := payroll.Filter{
		AccountID: v.QueryID(r, "accountId"),
		Month:     parseInt(v, r, "month", 1, 12),
		Year:      parseInt(v, r, "year", payroll.MinYear, payroll.MaxYear),
	}
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	result, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, shared.NewPage(result.Items, result.Total, page), requestID)
}

func (h *Handler) handleLatestMine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	h.respondLatest(w, r, user, user.AccountID, requestID)
}

func (h *Handler) handleLatestFor(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	accountID, ok := shared.PathID(w, r, "accountID", requestID)
	if !ok {
		return
	}
	h.respondLatest(w, r, user, accountID, requestID)
}

func (h *Handler) respondLatest(w http.ResponseWriter, r *http.Request, user auth.UserContext, accountID, requestID string) {
	result, err := h.Service.Latest(r.Context(), user, accountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}
