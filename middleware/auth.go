package middleware

import (
	"context"
	"net/http"
	"notevault/internal/session"
	"notevault/pkg/apperror"
	"notevault/pkg/logger"
	"notevault/pkg/response"
	"strings"
)

type contextKey string

const IdentityKey contextKey = "identity"

type TokenValidator interface {
	Validate(token string) (session.Identity, error)
}

// IdentityFrom returns the identity the auth middleware attached to ctx.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(session.Identity)
	return id, ok && id.UserID != ""
}

// WithIdentity is what the middleware does to the request context; exposed
// for handler tests.
func WithIdentity(ctx context.Context, id session.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// Auth rejects the request with 401 unless it carries a valid bearer token.
// The wrapped handler is never called on failure.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return auth(tokens, false)
}

// AuthWS is Auth for websocket upgrades: browsers cannot set headers on a
// websocket handshake, so the token may also come from ?token=.
func AuthWS(tokens TokenValidator) func(http.Handler) http.Handler {
	return auth(tokens, true)
}

func auth(tokens TokenValidator, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" && allowQuery {
				tokenString = r.URL.Query().Get("token")
			}

			if tokenString == "" {
				response.Error(w, apperror.New(apperror.Unauthenticated, "Missing authorization token"))
				return
			}

			identity, err := tokens.Validate(tokenString)
			if err != nil {
				logger.Sugar.Infof("Invalid token: %v", err)
				response.Error(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
