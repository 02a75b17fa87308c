package audit

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
)

func TestLogEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := obs.SetLogger(zap.New(core))
	defer restore()

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = auth.ContextWithClaims(ctx, &auth.Claims{
		Role:             "Admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
	})

	require.NoError(t, LogEvent(ctx, "rbac.role.create", map[string]any{"name": "Auditor"}))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "audit", fields["type"])
	assert.Equal(t, "rbac.role.create", fields["event"])
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "user-42", fields["user_id"])
	assert.Equal(t, "Admin", fields["role"])
	assert.Equal(t, map[string]any{"name": "Auditor"}, fields["fields"])
}

func TestLogEventAnonymous(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := obs.SetLogger(zap.New(core))
	defer restore()

	require.NoError(t, LogEvent(context.Background(), "auth.login.failed", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.NotContains(t, fields, "user_id")
	assert.NotContains(t, fields, "role")
	assert.NotContains(t, fields, "request_id")
}

func TestLogEventRequiresName(t *testing.T) {
	assert.Error(t, LogEvent(context.Background(), "  ", nil))
}
