package middleware

import (
	"net/http"

	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/constants"
)

// RequireRole only lets callers with one of roles through
func RequireRole(roles ...constants.StaffRole) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r.String()] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserClaims(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized: missing claims", http.StatusUnauthorized)
				return
			}

			if !allowed[claims.Role()] {
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IsAdminMiddleware restricts a route to admins
func IsAdminMiddleware(next http.Handler) http.Handler {
	return RequireRole(constants.RoleAdmin)(next)
}
