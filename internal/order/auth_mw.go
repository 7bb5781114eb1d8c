package order

import (
	"context"
	"net/http"
	"slices"

	"Storefront/internal/auth"
	"Storefront/pkg/kit"
)

type ctxKey string

const userKey ctxKey = "user"

type User struct {
	ID   string
	Role string
}

func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// AuthJWT accepts a valid bearer token whose role is one of roles. With no
// roles given any authenticated user passes.
func AuthJWT(jwt *auth.TokenMaker, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := jwt.Parse(tok)
			if err != nil || claims.UserID == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				kit.WriteError(w, r, http.StatusForbidden, "role not allowed", map[string]any{"role": claims.Role})
				return
			}

			ctx := context.WithValue(r.Context(), userKey, User{ID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
