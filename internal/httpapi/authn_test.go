package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithClaims(claims *auth.Claims) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	if claims != nil {
		req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
	}
	return req
}

func TestRequireAccessAllowsMatchingRole(t *testing.T) {
	handler := RequireAccess(auth.RequireAnyRole(auth.RoleAdmin))(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(&auth.Claims{
		Role:             auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAccessRejectsMissingRole(t *testing.T) {
	handler := RequireAccess(auth.RequireAnyRole(auth.RoleAdmin))(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(&auth.Claims{
		Role:             auth.RoleEmployee,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, rr.Header().Get("WWW-Authenticate"))
}

func TestRequireAccessRejectsMissingClaims(t *testing.T) {
	handler := RequireAccess(auth.RequireAuthenticated())(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
}

func TestRequireAccessPermission(t *testing.T) {
	handler := RequireAccess(auth.RequirePermission(auth.PermDeleteUser))(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(&auth.Claims{
		Role:        auth.RoleManager,
		Permissions: []string{auth.PermViewUsers},
	}))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithClaims(&auth.Claims{
		Permissions: []string{auth.PermDeleteUser},
	}))
	assert.Equal(t, http.StatusOK, rr.Code, "permission grants access without a role match")
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		err    error
	}{
		{header: "Bearer abc", token: "abc"},
		{header: "bearer   abc  ", token: "abc"},
		{header: "", err: errMissingToken},
		{header: "Bearer ", err: errMissingToken},
		{header: "Basic dXNlcjpwYXNz", err: errInvalidScheme},
		{header: "Bear", err: errInvalidScheme},
	}
	for _, tc := range cases {
		token, err := extractBearerToken(tc.header)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.header)
			continue
		}
		assert.NoError(t, err, tc.header)
		assert.Equal(t, tc.token, token)
	}
}
