package auth

import "context"

type claimsContextKey struct{}

// ContextWithClaims attaches verified token claims to the context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts verified claims; nil when the caller is anonymous.
func ClaimsFromContext(ctx context.Context) *Claims {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return v
}

// UserIDFromContext returns the subject of the attached claims.
func UserIDFromContext(ctx context.Context) (string, bool) {
	c := ClaimsFromContext(ctx)
	if c == nil || c.Subject == "" {
		return "", false
	}
	return c.Subject, true
}
