package auth_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("test-secret", auth.WithIssuer("test-issuer"), auth.WithTTL(30*time.Minute))
	require.NoError(t, err)

	user := auth.User{
		ID:           "user-42",
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$secret",
		Role: &auth.Role{Name: "Manager", Permissions: []auth.Permission{
			{Name: "VIEW_USERS"}, {Name: "CREATE_USER"}, {Name: "VIEW_USERS"},
		}},
	}
	tok, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.True(t, tok.ExpiresAt.After(time.Now()))
	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(tok.AccessToken, ".")[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "$2a$")
	assert.NotContains(t, string(payload), "password")

	claims, err := issuer.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "Manager", claims.Role)
	assert.Equal(t, []string{"CREATE_USER", "VIEW_USERS"}, claims.Permissions)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenForRolelessUser(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("test-secret")
	require.NoError(t, err)

	tok, err := issuer.Issue(auth.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	claims, err := issuer.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
	assert.Empty(t, claims.Permissions)
	assert.Equal(t, auth.DecisionForbidden, auth.Decide(claims, auth.RequireAnyRole("Employee")))
}

func TestTokenVerifyRejects(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := auth.NewTokenIssuer("test-secret", auth.WithClock(fixedClock(issued)), auth.WithTTL(time.Minute))
	require.NoError(t, err)
	tok, err := issuer.Issue(auth.User{ID: "u1"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later, err := auth.NewTokenIssuer("test-secret", auth.WithClock(fixedClock(issued.Add(2*time.Minute))))
		require.NoError(t, err)
		_, err = later.Verify(tok.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
	t.Run("wrong secret", func(t *testing.T) {
		other, err := auth.NewTokenIssuer("other-secret", auth.WithClock(fixedClock(issued)))
		require.NoError(t, err)
		_, err = other.Verify(tok.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		other, err := auth.NewTokenIssuer("test-secret", auth.WithIssuer("elsewhere"), auth.WithClock(fixedClock(issued)))
		require.NoError(t, err)
		_, err = other.Verify(tok.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(tok.AccessToken, ".")
		require.Len(t, parts, 3)
		_, err := issuer.Verify(parts[0] + "." + parts[1] + ".AAAA")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
			Role: "Admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				Issuer:    "ems-api",
				ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Verify(unsigned)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := issuer.Verify("  ")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := auth.NewTokenIssuer(" ")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, auth.VerifyPassword(hash, "correct horse"))
	assert.False(t, auth.VerifyPassword(hash, "Correct horse"))
	assert.False(t, auth.VerifyPassword("", "correct horse"))

	_, err = auth.HashPassword("")
	assert.Error(t, err)
}
