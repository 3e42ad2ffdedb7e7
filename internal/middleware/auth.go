package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/devotee-memorial/backend/internal/models"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// TokenParser verifies a bearer token.
type TokenParser interface {
	ParseToken(token string) (*models.Principal, error)
}

// Authorizer decides whether a role holds a capability.
type Authorizer interface {
	Allows(role models.Role, capability models.Capability) bool
}

// Authenticate validates the bearer token and stores the principal in the
// request context. Requests without a valid token get 401.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}

			principal, err := parser.ParseToken(strings.TrimSpace(parts[1]))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability lets the request through only when the authenticated
// principal's role grants capability. It must run after Authenticate.
func RequireCapability(policy Authorizer, capability models.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
				return
			}
			if !policy.Allows(principal.Role, capability) {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated caller from context.
func GetPrincipal(ctx context.Context) *models.Principal {
	p, ok := ctx.Value(PrincipalKey).(*models.Principal)
	if !ok {
		return nil
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
