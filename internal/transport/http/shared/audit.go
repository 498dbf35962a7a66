package shared

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"hrcore/internal/domain/auth"
	"hrcore/internal/requestctx"
)

// AuditRecorder is the write side of the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// RecordAudit writes one audit event for an admin mutation. A failed write is
// logged and does not fail the request.
func RecordAudit(r *http.Request, recorder AuditRecorder, actor auth.UserContext, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	requestID := requestctx.GetRequestID(r.Context())
	if err := recorder.Record(r.Context(), actor.AccountID, action, entityType, entityID, requestID, ClientIP(r), before, after); err != nil {
		log.Warn().Err(err).Str("action", action).Str("entityId", entityID).Str("requestId", requestID).Msg("audit record failed")
	}
}
