package shared

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"hrcore/internal/domain/notifications"
	"hrcore/internal/requestctx"
)

type Notifier interface {
	Notify(ctx context.Context, n notifications.Notice) error
}

// Notify delivers an in-app notification on a best-effort basis.
func Notify(r *http.Request, notifier Notifier, n notifications.Notice) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(r.Context(), n); err != nil {
		log.Warn().Err(err).Str("type", n.Type).Str("requestId", requestctx.GetRequestID(r.Context())).Msg("notification failed")
	}
}
