package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/resp"
)

// Context key for the authenticated principal, preventing collisions with
// other packages.
type contextKey string

const (
	// ContextPrincipalKey is the key under which the authenticated
	// identity.Principal is stored in the request context.
	ContextPrincipalKey contextKey = "auth_principal"
)

// RequireAuth returns middleware that authenticates the Bearer token on the
// Authorization header through the identity gate and injects the resolved
// Principal into the request context. Requests without a valid token are
// rejected with the gate's coded error.
func RequireAuth(gate *identity.Gate) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			authHeader := r.Header.Get("Authorization")
			if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}

			principal, authErr := gate.Authenticate(token)
			if authErr != nil {
				resp.RespondError(w, r, authErr)
				return
			}

			ctx := context.WithValue(r.Context(), ContextPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext extracts the authenticated Principal from the request
// context. The boolean is false when the request went through no auth
// middleware, which is a programming error on the route table.
func PrincipalFromContext(r *http.Request) (identity.Principal, bool) {
	principal, ok := r.Context().Value(ContextPrincipalKey).(identity.Principal)
	return principal, ok
}
