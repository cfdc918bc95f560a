package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/platform/httpx"
	"github.com/newsdesk/newsdesk/internal/shared"
)

// SessionIdentity resolves the session's account and stores it in the
// request context. Requests without a usable session continue as
// anonymous; the editorial gateway decides what anonymous may do.
func SessionIdentity(logger *slog.Logger, service *identity.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(sess.User(), 10, 64)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := service.Lookup(r.Context(), id)
			if err != nil || !user.IsActive {
				if err != nil {
					logger.Warn("resolve session identity", slog.Int64("user_id", id), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerIdentity resolves an Authorization bearer token for the JSON
// API. A present but invalid token is rejected outright; an absent
// token continues as anonymous.
func BearerIdentity(logger *slog.Logger, service *identity.Service, tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "malformed authorization header")
				return
			}
			id, err := tokens.Verify(strings.TrimSpace(raw))
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}
			user, err := service.Lookup(r.Context(), id)
			if err != nil || !user.IsActive {
				if err != nil {
					logger.Warn("resolve bearer identity", slog.Int64("user_id", id), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "account unavailable")
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
