package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"hrcore/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

// RateLimiter enforces one limiter.Rate per key using an in-process store.
type RateLimiter struct {
	limiter *limiter.Limiter
	keyFn   RateLimitKeyFunc
}

func NewRateLimiter(prefix string, rate limiter.Rate, keyFn RateLimitKeyFunc) *RateLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})
	return &RateLimiter{limiter: limiter.New(store, rate), keyFn: keyFn}
}

// RateLimit builds a limiter from a "<limit>-<S|M|H|D>" rate string.
func RateLimit(formatted string, keyFn RateLimitKeyFunc) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	rl := NewRateLimiter("global", rate, keyFn)
	return rl.Middleware, nil
}

// LoginRateLimit throttles credential guessing twice: per client IP and per
// submitted identifier.
func LoginRateLimit(formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	byIP := NewRateLimiter("login-ip", rate, clientIPKey)
	byIdentifier := NewRateLimiter("login-id", rate, IdentifierOrIPKey("identifier"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !byIP.enforce(w, r) || !byIdentifier.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enforce(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	state, err := rl.limiter.Get(r.Context(), key)
	if err != nil {
		// Fail open.
		log.Warn().Err(err).Str("key", key).Msg("rate limit lookup failed")
		return true
	}

	resetIn := max(state.Reset-time.Now().Unix(), 0)
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetIn, 10))

	if state.Reached {
		w.Header().Set("Retry-After", strconv.FormatInt(max(resetIn, 1), 10))
		log.Warn().
			Str("key", key).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Int64("limit", state.Limit).
			Msg("rate limit exceeded")
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

// IdentifierOrIPKey keys on a JSON body field, falling back to the client IP.
func IdentifierOrIPKey(field string) RateLimitKeyFunc {
	normalizedField := strings.TrimSpace(field)
	if normalizedField == "" {
		normalizedField = "identifier"
	}
	return func(r *http.Request) string {
		value := extractJSONField(r, normalizedField)
		if value == "" {
			return clientIPKey(r)
		}
		return "id:" + strings.ToLower(value)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok {
		return "account:" + user.AccountID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + clientAddr(r)
}

func clientAddr(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	contentType := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if !strings.Contains(contentType, "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}
