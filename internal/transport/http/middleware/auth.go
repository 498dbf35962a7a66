package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"hrcore/internal/domain/auth"
	"hrcore/internal/transport/http/api"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// AccountStatus reports whether an account may still act. Unknown accounts
// are inactive.
type AccountStatus interface {
	IsActive(ctx context.Context, accountID string) (bool, error)
}

// Auth attaches the caller to the context when a valid bearer token is
// present. Requests without one pass through; RequireAuth rejects them.
// With a non-nil status, tokens of deactivated or deleted accounts are
// ignored as if absent.
func Auth(tokens *auth.TokenIssuer, status AccountStatus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Parse(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if status != nil {
				active, err := status.IsActive(r.Context(), claims.Subject)
				if err != nil {
					log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("account status lookup failed")
					api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", GetRequestID(r.Context()))
					return
				}
				if !active {
					next.ServeHTTP(w, r)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), auth.UserContext{
				AccountID: claims.Subject,
				LoginID:   claims.LoginID,
				Role:      claims.Role,
			})))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok && user.AccountID != ""
}
