package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/common/security"
	"sheet_analytics/internal/domain/model"
	"sheet_analytics/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const identityCtxKey contextKey = "identity"

// Auth resolves bearer tokens to full user identities. The store lookup
// rejects tokens whose user has since been deleted.
type Auth struct {
	userRepo repository.UserRepository
}

func NewAuth(userRepo repository.UserRepository) *Auth {
	return &Auth{userRepo: userRepo}
}

func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			}
			return
		}
		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		user, err := a.userRepo.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Not authorized, user not found")
			} else {
				common.RespondWithDomainError(w, err)
			}
			return
		}
		user.HashedPassword = ""

		ctx := context.WithValue(r.Context(), identityCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin admits admins and superadmins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok || (identity.Role != model.RoleAdmin && identity.Role != model.RoleSuperadmin) {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperadmin admits superadmins only.
func RequireSuperadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok || identity.Role != model.RoleSuperadmin {
			common.RespondWithError(w, http.StatusForbidden, "Superadmin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentityFromContext returns the authenticated user set by Authenticate.
func GetIdentityFromContext(ctx context.Context) (*model.User, bool) {
	identity, ok := ctx.Value(identityCtxKey).(*model.User)
	return identity, ok
}
