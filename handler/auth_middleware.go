package handler

import (
	"context"
	"jwt-auth-api/common"
	"jwt-auth-api/model"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves the identity behind a bearer access token.
type Authenticator interface {
	Authenticate(accessToken string) (model.Identity, bool)
}

// Authenticate runs on every request. It attaches an identity when the bearer
// token is a valid access token and otherwise passes the request on untouched.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, ok := auth.Authenticate(token)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAuth rejects requests that reached it without an identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			common.NewAppError(http.StatusUnauthorized, "unauthorized", nil).Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests without an identity (401) or with a different
// role (403).
func RequireRole(role model.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			common.NewAppError(http.StatusUnauthorized, "unauthorized", nil).Send(w)
			return
		}
		if !identity.HasRole(role) {
			common.NewAppError(http.StatusForbidden, "forbidden", nil).Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	headerParts := strings.Fields(authHeader)
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
		return ""
	}
	return headerParts[1]
}
