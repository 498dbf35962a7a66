package authhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/account"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type AccountService interface {
	Login(ctx context.Context, identifier, password string) (account.LoginResult, error)
	ChangeCredential(ctx context.Context, accountID, current, next string) (account.Account, error)
	Get(ctx context.Context, actor auth.UserContext, id string) (account.Account, error)
}

type Handler struct {
	Accounts AccountService
	Audit    shared.AuditRecorder
}

func NewHandler(accounts AccountService, auditSvc shared.AuditRecorder) *Handler {
	return &Handler{Accounts: accounts, Audit: auditSvc}
}

// RegisterRoutes mounts /auth. loginLimit wraps only the login route.
func (h *Handler) RegisterRoutes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		if loginLimit != nil {
			r.With(loginLimit).Post("/login", h.HandleLogin)
		} else {
			r.Post("/login", h.HandleLogin)
		}
		r.With(middleware.RequireAuth).Post("/change-credential", h.handleChangeCredential)
		r.With(middleware.RequireAuth).Get("/me", h.handleMe)
	})
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type changeCredentialRequest struct {
	CurrentCredential string `json:"currentCredential" validate:"required"`
	NewCredential     string `json:"newCredential" validate:"required"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Accounts.Login(r.Context(), payload.Identifier, payload.Password)
	if errors.Is(err, apperrors.ErrInvalidCredential) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleChangeCredential(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload changeCredentialRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	updated, err := h.Accounts.ChangeCredential(r.Context(), user.AccountID, payload.CurrentCredential, payload.NewCredential)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionCredentialChange, audit.EntityAccount, user.AccountID, nil, nil)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	me, err := h.Accounts.Get(r.Context(), user, user.AccountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, me, requestID)
}
