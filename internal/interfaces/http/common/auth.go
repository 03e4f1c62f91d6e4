package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal stores the authenticated caller into context.
func ContextWithPrincipal(ctx context.Context, p accountapp.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the authenticated caller from context.
func PrincipalFromContext(ctx context.Context) (accountapp.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(accountapp.Principal)
	return p, ok
}

// Authenticator verifies bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (accountapp.Principal, string, error)
}

var (
	errMissingToken = apperr.Authentication("No token provided")
	errBadScheme    = apperr.Authentication("Authorization header must use the Bearer scheme")
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errBadScheme
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// principal in the request context. A replacement token issued near expiry is
// returned in the X-Refreshed-Token header.
func RequireAuth(auth Authenticator, logger zerolog.Logger, hideInternal bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				WriteError(logger, w, r, err, hideInternal)
				return
			}
			principal, refreshed, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(logger, w, r, err, hideInternal)
				return
			}
			if refreshed != "" {
				w.Header().Set(RefreshedTokenHeader, refreshed)
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			l := logging.Ctx(ctx, logger).With().Str("user_id", principal.UserID).Logger()
			ctx = logging.ContextWithLogger(ctx, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorizer answers role checks.
type Authorizer interface {
	Allowed(role, resource, action string) (bool, error)
}

var errForbidden = apperr.Forbidden("You do not have permission to perform this action")

// RequirePermission must run after RequireAuth.
func RequirePermission(authz Authorizer, resource, action string, logger zerolog.Logger, hideInternal bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteError(logger, w, r, errMissingToken, hideInternal)
				return
			}
			allowed, err := authz.Allowed(string(principal.Role), resource, action)
			if err != nil {
				WriteError(logger, w, r, err, hideInternal)
				return
			}
			if !allowed {
				WriteError(logger, w, r, errForbidden, hideInternal)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
