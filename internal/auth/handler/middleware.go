package handler

import (
	"net/http"
	"strings"

	"github.com/rxreturn/rxreturn-backend/internal/auth/jwt"
	"github.com/rxreturn/rxreturn-backend/internal/auth/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
)

// Authenticate validates the bearer token and attaches the caller's
// pharmacy ID, email and role to the request context.
func Authenticate(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.Error(w, errors.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := manager.ValidateAccessToken(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := httputil.WithAuthContext(r.Context(), claims.PharmacyID, claims.Email, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActiveAccount rejects callers whose pharmacy account has been
// suspended or blacklisted since their token was issued. Must run after
// Authenticate.
func RequireActiveAccount(pharmacies *repository.PharmacyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pharmacy, err := pharmacies.GetByID(r.Context(), httputil.GetPharmacyID(r.Context()))
			if err != nil {
				httputil.Error(w, errors.Unauthorized("account not found"))
				return
			}
			if pharmacy.Status != repository.PharmacyStatusActive {
				httputil.Error(w, errors.Forbidden("account is "+pharmacy.Status))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// Must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !httputil.IsAdmin(r.Context()) {
			httputil.Error(w, errors.Forbidden("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
