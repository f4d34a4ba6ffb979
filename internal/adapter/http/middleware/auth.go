package middleware

import (
	"net/http"
	"strings"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/infrastructure/auth"
)

// AuthMiddleware verifies the bearer token and attaches the caller to the
// request context.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			user := &domain.User{
				ID:    claims.AccountID,
				Email: claims.Email,
				Role:  claims.Role,
			}

			next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), user)))
		})
	}
}

// RequireRole gates a route on a minimum role. Admin passes everything;
// courier routes also admit admins.
func RequireRole(minRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := domain.UserFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			switch minRole {
			case domain.RoleAdmin:
				if user.Role != domain.RoleAdmin {
					http.Error(w, "insufficient permissions", http.StatusForbidden)
					return
				}
			case domain.RoleCourier:
				if user.Role != domain.RoleAdmin && user.Role != domain.RoleCourier {
					http.Error(w, "insufficient permissions", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
