package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var (
	errMissingToken  = errors.New("missing bearer token")
	errInvalidScheme = errors.New("invalid authorization scheme")
)

// authenticate attaches verified claims when a bearer token is present.
// Anonymous requests pass through; require decides what they may reach.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(authHeader)
		if strings.TrimSpace(raw) == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, err := extractBearerToken(raw)
		if err != nil {
			obs.ObserveDecision("http", auth.DecisionUnauthenticated.String())
			writeUnauthenticated(w, r, err.Error())
			return
		}
		claims, err := a.svc.Auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				obs.ObserveDecision("http", auth.DecisionUnauthenticated.String())
				writeUnauthenticated(w, r, "invalid token")
				return
			}
			obs.Logger().Error("authentication error",
				zap.String("request_id", RequestIDFromContext(r)),
				zap.Error(err),
			)
			writeError(w, r, http.StatusInternalServerError, "internal", "authentication error")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
	})
}

// require evaluates req against the request's claims.
func (a *API) require(req auth.Requirement) func(http.Handler) http.Handler {
	return RequireAccess(req)
}

// RequireAccess is the route guard: 401 without valid claims, 403 when the
// claims do not satisfy req.
func RequireAccess(req auth.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := auth.Decide(auth.ClaimsFromContext(r.Context()), req)
			obs.ObserveDecision("http", decision.String())
			switch decision {
			case auth.DecisionAuthorized:
				next.ServeHTTP(w, r)
			case auth.DecisionUnauthenticated:
				writeUnauthenticated(w, r, "authentication required")
			default:
				writeError(w, r, http.StatusForbidden, "forbidden", "insufficient privileges: requires "+req.String())
			}
		})
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, strings.TrimSpace(bearer)) {
		return "", errMissingToken
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errInvalidScheme
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}
