package notificationshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/notifications"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type NotificationService interface {
	List(ctx context.Context, accountID string, unreadOnly bool, limit, offset int) (notifications.ListResult, error)
	MarkRead(ctx context.Context, accountID, id string) error
	MarkAllRead(ctx context.Context, accountID string) (int64, error)
}

type Handler struct {
	Service NotificationService
}

func NewHandler(service NotificationService) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	unreadOnly := r.URL.Query().Get("unread") == "true"
	result, err := h.Service.List(r.Context(), user.AccountID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{
		"items":  result.Items,
		"total":  result.Total,
		"unread": result.Unread,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, requestID)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	id, ok := shared.PathID(w, r, "notificationID", requestID)
	if !ok {
		return
	}
	if err := h.Service.MarkRead(r.Context(), user.AccountID, id); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, requestID)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	changed, err := h.Service.MarkAllRead(r.Context(), user.AccountID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, map[string]int64{"updated": changed}, requestID)
}
