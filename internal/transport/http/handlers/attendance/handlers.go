package attendancehandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/attendance"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type AttendanceService interface {
	CheckIn(ctx context.Context, accountID, note string) (attendance.Record, error)
	CheckOut(ctx context.Context, accountID string) (attendance.Record, error)
	Today(ctx context.Context, accountID string) (*attendance.Record, error)
	Create(ctx context.Context, in attendance.RecordInput) (attendance.Record, error)
	Update(ctx context.Context, id string, patch attendance.Patch) (attendance.Record, attendance.Record, error)
	Delete(ctx context.Context, id string) (attendance.Record, error)
	Get(ctx context.Context, actor auth.UserContext, id string) (attendance.Record, error)
	ListMine(ctx context.Context, actor auth.UserContext, filter attendance.Filter, limit, offset int) (attendance.ListResult, error)
	List(ctx context.Context, filter attendance.Filter, limit, offset int) (attendance.ListResult, error)
	Stats(ctx context.Context, actor auth.UserContext, accountID string, from, to *time.Time) (attendance.Stats, error)
}

type Handler struct {
	Service AttendanceService
	Audit   shared.AuditRecorder
}

func NewHandler(service AttendanceService, auditSvc shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceSelf)).Post("/check-in", h.handleCheckIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceSelf)).Post("/check-out", h.handleCheckOut)
		r.With(middleware.RequirePermission(auth.PermAttendanceSelf)).Get("/today", h.handleToday)
		r.With(middleware.RequirePermission(auth.PermAttendanceSelf)).Get("/me", h.handleListMine)
		r.With(middleware.RequireAuth).Get("/stats", h.handleStats)
		r.With(middleware.RequireAuth).Get("/{recordID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage)).Put("/{recordID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage)).Delete("/{recordID}", h.handleDelete)
	})
}

type checkInRequest struct {
	Note string `json:"note" validate:"max=500"`
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload checkInRequest
	if !shared.DecodeOptionalJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}
	rec, err := h.Service.CheckIn(r.Context(), user.AccountID, payload.Note)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Created(w, rec, requestID)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	rec, err := h.Service.CheckOut(r.Context(), user.AccountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

// handleToday answers with data null when the day has no record yet.
func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	rec, err := h.Service.Today(r.Context(), user.AccountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

// parseFilter reads from, to and status. accountId is honoured only when
// allowAccount is set.
func parseFilter(r *http.Request, v *shared.Validator, allowAccount bool) attendance.Filter {
	query := r.URL.Query()
	filter := attendance.Filter{
		From: v.OptionalDate("from", query.Get("from")),
		To:   v.OptionalDate("to", query.Get("to")),
	}
	if filter.From != nil && filter.To != nil {
		v.DateOrder("from", *filter.From, "to", *filter.To)
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := attendance.ParseStatus(raw)
		if err != nil {
			v.Add("status", "must be one of: present absent late half-day")
		}
		filter.Status = status
	}
	if allowAccount {
		filter.AccountID = v.QueryID(r, "accountId")
	}
	return filter
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	v := shared.NewValidator()
	filter := parseFilter(r, v, false)
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	result, err := h.Service.ListMine(r.Context(), user, filter, page.Limit, page.Offset)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, shared.NewPage(result.Items, result.Total, page), requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := parseFilter(r, v, true)
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

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	v := shared.NewValidator()
	filter := parseFilter(r, v, true)
	if v.Reject(w, requestID) {
		return
	}
	stats, err := h.Service.Stats(r.Context(), user, filter.AccountID, filter.From, filter.To)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, stats, requestID)
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
	rec, err := h.Service.Get(r.Context(), user, recordID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, rec, requestID)
}

type createRequest struct {
	AccountID string     `json:"accountId" validate:"required,uuid"`
	WorkDate  string     `json:"workDate" validate:"required"`
	CheckIn   *time.Time `json:"checkIn"`
	CheckOut  *time.Time `json:"checkOut"`
	Status    string     `json:"status" validate:"omitempty,oneof=present absent late half-day"`
	Note      string     `json:"note" validate:"max=500"`
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
	workDate, _ := v.Date("workDate", payload.WorkDate)
	if v.Reject(w, requestID) {
		return
	}

	rec, err := h.Service.Create(r.Context(), attendance.RecordInput{
		AccountID: payload.AccountID,
		WorkDate:  workDate,
		CheckIn:   payload.CheckIn,
		CheckOut:  payload.CheckOut,
		Status:    attendance.Status(payload.Status),
		Note:      payload.Note,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAttendanceCreate, audit.EntityAttendanceRecord, rec.ID, nil, rec)
	api.Created(w, rec, requestID)
}

type updateRequest struct {
	CheckIn  *time.Time `json:"checkIn"`
	CheckOut *time.Time `json:"checkOut"`
	Status   *string    `json:"status" validate:"omitempty,oneof=present absent late half-day"`
	Note     *string    `json:"note" validate:"omitempty,max=500"`
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
	if v.Reject(w, requestID) {
		return
	}

	patch := attendance.Patch{CheckIn: payload.CheckIn, CheckOut: payload.CheckOut, Note: payload.Note}
	if payload.Status != nil {
		status := attendance.Status(*payload.Status)
		patch.Status = &status
	}
	before, after, err := h.Service.Update(r.Context(), recordID, patch)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAttendanceUpdate, audit.EntityAttendanceRecord, recordID, before, after)
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
	shared.RecordAudit(r, h.Audit, user, audit.ActionAttendanceDelete, audit.EntityAttendanceRecord, recordID, deleted, nil)
	api.Success(w, map[string]string{"id": recordID}, requestID)
}
