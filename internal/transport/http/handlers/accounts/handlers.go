package accounthandler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/account"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type AccountService interface {
	Activate(ctx context.Context, in account.ActivationInput) (account.Activation, error)
	ResetCredential(ctx context.Context, accountID string) (account.Activation, error)
	Get(ctx context.Context, actor auth.UserContext, id string) (account.Account, error)
	List(ctx context.Context, filter account.Filter, limit, offset int) (account.ListResult, error)
	SetActive(ctx context.Context, actor auth.UserContext, id string, active bool) (account.Account, error)
	Delete(ctx context.Context, actor auth.UserContext, id string) (account.Account, error)
}

type Handler struct {
	Service AccountService
	Audit   shared.AuditRecorder
}

func NewHandler(service AccountService, auditSvc shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAccountsManage)).Post("/", h.handleActivate)
		r.With(middleware.RequirePermission(auth.PermAccountsRead)).Get("/", h.handleList)
		r.With(middleware.RequireAuth).Get("/{accountID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAccountsManage)).Post("/{accountID}/reset-credential", h.handleResetCredential)
		r.With(middleware.RequirePermission(auth.PermAccountsManage)).Post("/{accountID}/activate", h.handleSetActive(true))
		r.With(middleware.RequirePermission(auth.PermAccountsManage)).Post("/{accountID}/deactivate", h.handleSetActive(false))
		r.With(middleware.RequirePermission(auth.PermAccountsManage)).Delete("/{accountID}", h.handleDelete)
	})
}

type activationRequest struct {
	FirstName  string `json:"firstName" validate:"required,max=100"`
	LastName   string `json:"lastName" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	HireDate   string `json:"hireDate" validate:"required"`
	Role       string `json:"role" validate:"omitempty,oneof=admin employee"`
	Department string `json:"department" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload activationRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	hireDate, _ := v.Date("hireDate", payload.HireDate)
	if v.Reject(w, requestID) {
		return
	}
	role := auth.RoleEmployee
	if payload.Role != "" {
		role = auth.Role(payload.Role)
	}

	activation, err := h.Service.Activate(r.Context(), account.ActivationInput{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		HireDate:   hireDate,
		Role:       role,
		Department: payload.Department,
		Position:   payload.Position,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAccountActivate, audit.EntityAccount, activation.Account.ID, nil, activation.Account)
	api.Created(w, activation, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	filter := account.Filter{
		Department: strings.TrimSpace(query.Get("department")),
		Search:     strings.TrimSpace(query.Get("search")),
	}
	v := shared.NewValidator()
	if raw := query.Get("role"); raw != "" {
		role, err := auth.ParseRole(raw)
		if err != nil {
			v.Add("role", "must be one of: admin employee")
		}
		filter.Role = role
	}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("active", "must be true or false")
		}
		filter.Active = &active
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
	accountID, ok := shared.PathID(w, r, "accountID", requestID)
	if !ok {
		return
	}
	acc, err := h.Service.Get(r.Context(), user, accountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, acc, requestID)
}

func (h *Handler) handleResetCredential(w http.ResponseWriter, r *http.Request) {
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
	reset, err := h.Service.ResetCredential(r.Context(), accountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAccountReset, audit.EntityAccount, accountID, nil, nil)
	api.Success(w, reset, requestID)
}

func (h *Handler) handleSetActive(active bool) http.HandlerFunc {
	action := audit.ActionAccountDisable
	if active {
		action = audit.ActionAccountEnable
	}
	return func(w http.ResponseWriter, r *http.Request) {
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
		updated, err := h.Service.SetActive(r.Context(), user, accountID, active)
		if err != nil {
			api.FailErr(w, err, requestID)
			return
		}
		shared.RecordAudit(r, h.Audit, user, action, audit.EntityAccount, updated.ID, nil, map[string]bool{"active": updated.Active})
		api.Success(w, updated, requestID)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
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
	deleted, err := h.Service.Delete(r.Context(), user, accountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAccountDelete, audit.EntityAccount, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, requestID)
}
