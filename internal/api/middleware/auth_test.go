package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/common/security"
	"sheet_analytics/internal/domain/model"
	"sheet_analytics/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.Load()
	security.InitJWT()
	os.Exit(m.Run())
}

// fakeUserRepo serves FindByID from a fixed map; the other methods are
// unreachable from the middleware.
type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) Create(context.Context, *model.User) error { return nil }

func (f *fakeUserRepo) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) List(context.Context) ([]model.User, error) { return nil, nil }

func (f *fakeUserRepo) UpdateRole(context.Context, *sql.Tx, string, string) error { return nil }

func (f *fakeUserRepo) Delete(context.Context, string) error { return nil }

func (f *fakeUserRepo) Count(context.Context) (int, error) { return 0, nil }

func newAuthRouter(repo *fakeUserRepo) chi.Router {
	authMW := NewAuth(repo)

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(authMW.Authenticate)
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok {
			common.RespondWithError(w, http.StatusInternalServerError, "identity missing")
			return
		}
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"id": identity.ID, "role": identity.Role})
	})

	admin := r.With(RequireAdmin)
	admin.Get("/admin-only", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	super := r.With(RequireSuperadmin)
	super.Get("/super-only", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	return r
}

func doRequest(t *testing.T, router chi.Router, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateResolvesIdentity(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*model.User{
		"u1": {ID: "u1", Role: model.RoleUser, HashedPassword: "secret-hash"},
	}}
	router := newAuthRouter(repo)

	token, err := security.GenerateToken("u1", model.RoleUser)
	require.NoError(t, err)

	rec := doRequest(t, router, "/whoami", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u1"`)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestAuthenticateMissingToken(t *testing.T) {
	router := newAuthRouter(&fakeUserRepo{})

	rec := doRequest(t, router, "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization token required")
}

func TestAuthenticateMalformedToken(t *testing.T) {
	router := newAuthRouter(&fakeUserRepo{})

	rec := doRequest(t, router, "/whoami", "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	router := newAuthRouter(&fakeUserRepo{})

	orig := config.AppConfig.JWTExp
	config.AppConfig.JWTExp = -time.Minute
	token, err := security.GenerateToken("u1", model.RoleUser)
	config.AppConfig.JWTExp = orig
	require.NoError(t, err)

	rec := doRequest(t, router, "/whoami", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestAuthenticateDeletedUser(t *testing.T) {
	router := newAuthRouter(&fakeUserRepo{})

	token, err := security.GenerateToken("gone", model.RoleAdmin)
	require.NoError(t, err)

	rec := doRequest(t, router, "/whoami", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}

func TestRoleGates(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*model.User{
		"u1": {ID: "u1", Role: model.RoleUser},
		"a1": {ID: "a1", Role: model.RoleAdmin},
		"s1": {ID: "s1", Role: model.RoleSuperadmin},
	}}
	router := newAuthRouter(repo)

	tests := []struct {
		name   string
		userID string
		role   string
		path   string
		want   int
	}{
		{"user denied admin route", "u1", model.RoleUser, "/admin-only", http.StatusForbidden},
		{"admin allowed admin route", "a1", model.RoleAdmin, "/admin-only", http.StatusOK},
		{"superadmin allowed admin route", "s1", model.RoleSuperadmin, "/admin-only", http.StatusOK},
		{"admin denied superadmin route", "a1", model.RoleAdmin, "/super-only", http.StatusForbidden},
		{"superadmin allowed superadmin route", "s1", model.RoleSuperadmin, "/super-only", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, err := security.GenerateToken(tc.userID, tc.role)
			require.NoError(t, err)
			rec := doRequest(t, router, tc.path, token)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
