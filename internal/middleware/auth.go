package middleware

import (
	"net/http"
	"strings"

	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/logging"
)

// AuthMiddleware validates the staff bearer token and stores its claims in
// the request context. When disabled every caller gets local admin claims.
func AuthMiddleware(tokens *auth.TokenService, disabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var claims auth.UserClaims

			authHeader := r.Header.Get("Authorization")

			switch {
			case disabled:
				claims = &auth.LocalClaims{Name: "local"}

			case strings.HasPrefix(authHeader, "Bearer "):
				staff, err := tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					logging.Debug("Rejected staff token", "error", err.Error())
					http.Error(w, "Unauthorized. Invalid token", http.StatusUnauthorized)
					return
				}
				claims = staff

			default:
				http.Error(w, "Unauthorized. Missing bearer token", http.StatusUnauthorized)
				return
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
