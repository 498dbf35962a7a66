package leavehandler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/leave"
	"hrcore/internal/domain/notifications"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type LeaveService interface {
	Submit(ctx context.Context, actor auth.UserContext, in leave.SubmitInput) (leave.Request, error)
	Approve(ctx context.Context, reviewer auth.UserContext, id, note string) (leave.Request, error)
	Reject(ctx context.Context, reviewer auth.UserContext, id, note string) (leave.Request, error)
	Delete(ctx context.Context, actor auth.UserContext, id string) (leave.Request, error)
	Get(ctx context.Context, actor auth.UserContext, id string) (leave.Request, error)
	ListMine(ctx context.Context, actor auth.UserContext, status leave.Status, limit, offset int) (leave.ListResult, error)
	List(ctx context.Context, filter leave.Filter, limit, offset int) (leave.ListResult, error)
}

type Handler struct {
	Service     LeaveService
	Audit       shared.AuditRecorder
	Idempotency middleware.IdempotencyBackend
	Notifier    shared.Notifier
}

func NewHandler(service LeaveService, auditSvc shared.AuditRecorder, idem middleware.IdempotencyBackend, notifier shared.Notifier) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Idempotency: idem, Notifier: notifier}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave/requests", func(r chi.Router) {
		r.With(
			middleware.RequirePermission(auth.PermLeaveSelf),
			middleware.Idempotent(h.Idempotency, "leave.submit"),
		).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeaveSelf)).Get("/me", h.handleListMine)
		r.With(middleware.RequirePermission(auth.PermLeaveReview)).Get("/", h.handleList)
		r.With(middleware.RequireAuth).Get("/{requestID}", h.handleGet)
		r.With(middleware.RequireAuth).Delete("/{requestID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermLeaveReview)).Post("/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLeaveReview)).Post("/{requestID}/reject", h.handleReject)
	})
}

type submitRequest struct {
	Category  string `json:"category" validate:"required,oneof=sick casual annual unpaid"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Reason    string `json:"reason" validate:"max=1000"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload submitRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Service.Submit(r.Context(), user, leave.SubmitInput{
		Category:  leave.Category(strings.ToLower(payload.Category)),
		StartDate: start,
		EndDate:   end,
		Reason:    payload.Reason,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Created(w, req, requestID)
}

func parseStatus(v *shared.Validator, raw string) leave.Status {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	status, err := leave.ParseStatus(raw)
	if err != nil {
		v.Add("status", "must be one of: pending approved rejected")
	}
	return status
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	v := shared.NewValidator()
	status := parseStatus(v, r.URL.Query().Get("status"))
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	result, err := h.Service.ListMine(r.Context(), user, status, page.Limit, page.Offset)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, shared.NewPage(result.Items, result.Total, page), requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	v := shared.NewValidator()
	filter := leave.Filter{
		AccountID: v.QueryID(r, "accountId"),
		Status:    parseStatus(v, query.Get("status")),
	}
	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		category, err := leave.ParseCategory(raw)
		if err != nil {
			v.Add("category", "must be one of: sick casual annual unpaid")
		}
		filter.Category = category
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

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	id, ok := shared.PathID(w, r, "requestID", requestID)
	if !ok {
		return
	}
	req, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, req, requestID)
}

// handleDelete lets owners withdraw pending requests; admins may remove any.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	id, ok := shared.PathID(w, r, "requestID", requestID)
	if !ok {
		return
	}
	deleted, err := h.Service.Delete(r.Context(), user, id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionLeaveDelete, audit.EntityLeaveRequest, id, deleted, nil)
	api.Success(w, map[string]string{"id": id}, requestID)
}

type decisionRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, audit.ActionLeaveApprove, h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, audit.ActionLeaveReject, h.Service.Reject)
}

type decideFunc func(ctx context.Context, reviewer auth.UserContext, id, note string) (leave.Request, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, fn decideFunc) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	id, ok := shared.PathID(w, r, "requestID", requestID)
	if !ok {
		return
	}
	var payload decisionRequest
	if !shared.DecodeOptionalJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	req, err := fn(r.Context(), user, id, payload.Note)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, action, audit.EntityLeaveRequest, id,
		map[string]leave.Status{"status": leave.StatusPending}, req)
	shared.Notify(r, h.Notifier, decisionNotice(req))
	api.Success(w, req, requestID)
}

func decisionNotice(req leave.Request) notifications.Notice {
	notice := notifications.Notice{
		AccountID: req.AccountID,
		Type:      notifications.TypeLeaveApproved,
		Title:     "Leave request approved",
		EntityID:  req.ID,
	}
	if req.Status == leave.StatusRejected {
		notice.Type = notifications.TypeLeaveRejected
		notice.Title = "Leave request rejected"
	}
	notice.Body = fmt.Sprintf("%s leave from %s to %s (%d days)", req.Category,
		req.StartDate.Format(shared.DateLayout), req.EndDate.Format(shared.DateLayout), req.Days)
	if req.AdminNote != "" {
		notice.Body += ": " + req.AdminNote
	}
	return notice
}
