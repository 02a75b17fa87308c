package audit

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with the request id and the acting user.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	zfields := []zap.Field{
		zap.String("type", "audit"),
		zap.String("event", event),
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		zfields = append(zfields, zap.String("request_id", rid))
	}
	if uid, ok := auth.UserIDFromContext(ctx); ok {
		zfields = append(zfields, zap.String("user_id", uid))
	}
	if claims := auth.ClaimsFromContext(ctx); claims != nil && claims.Role != "" {
		zfields = append(zfields, zap.String("role", claims.Role))
	}
	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		copyFields[k] = v
	}
	zfields = append(zfields, zap.Any("fields", copyFields))

	obs.Logger().Info("audit", zfields...)
	return nil
}
