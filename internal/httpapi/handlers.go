package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Ishan662/Employee-Management-System-backend/internal/audit"
	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
)

const serviceName = "ems-api"

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// ReadyProbe aggregates the readiness checks of the backing stores.
type ReadyProbe struct {
	Checks []ReadinessChecker
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	for _, c := range rp.Checks {
		if c == nil {
			continue
		}
		if err := c.Check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Services bundles the domain services served over HTTP.
type Services struct {
	Auth      *auth.Service
	Users     *auth.UserService
	RBAC      *auth.RBACService
	Employees *auth.EmployeeService
}

// API is the HTTP layer.
type API struct {
	svc        Services
	readyProbe ReadyProbe
	version    string
	validate   *validator.Validate

	production   bool
	trustProxy   bool
	maxBodyBytes int64
	rateBurst    int
	ratePerSec   float64
}

// Option configures API behavior.
type Option func(*API)

// WithRateLimit sets the per-IP token bucket applied to login and signup.
func WithRateLimit(burst int, perSecond float64) Option {
	return func(a *API) {
		a.rateBurst = burst
		a.ratePerSec = perSecond
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// WithTrustProxy keys the login limiter on the X-Forwarded-For entry added by
// a reverse proxy instead of the peer address.
func WithTrustProxy(on bool) Option {
	return func(a *API) { a.trustProxy = on }
}

// WithProduction enables HTTPS redirects.
func WithProduction(on bool) Option {
	return func(a *API) { a.production = on }
}

func New(svc Services, rp ReadyProbe, version string, opts ...Option) (*API, error) {
	if svc.Auth == nil || svc.Users == nil || svc.RBAC == nil || svc.Employees == nil {
		return nil, errors.New("httpapi: all services are required")
	}
	a := &API{
		svc:          svc,
		readyProbe:   rp,
		version:      version,
		validate:     newValidator(),
		maxBodyBytes: 1 << 20,
		rateBurst:    10,
		ratePerSec:   5,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Handler returns the root handler with metrics instrumentation.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.Router())
}

// Router builds the chi route tree. Every protected route declares its Requirement.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID, LoggingJSON, SecurityHeaders(a.production), CORS, MaxBodyBytes(a.maxBodyBytes))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Handle("/metrics", obs.Handler())

	limiter := newRateLimiter(a.rateBurst, a.ratePerSec, a.trustProxy)
	adminOnly := a.require(auth.RequireAnyRole(auth.RoleAdmin))
	staff := a.require(auth.RequireAnyRole(auth.RoleAdmin, auth.RoleManager))

	r.Route("/auth", func(r chi.Router) {
		r.With(limiter.middleware).Post("/login", a.handleLogin)
		r.With(limiter.middleware).Post("/signup", a.handleSignup)
		r.Group(func(r chi.Router) {
			r.Use(a.authenticate, a.require(auth.RequireAuthenticated()))
			r.Post("/logout", a.handleLogout)
			r.Get("/me", a.handleMe)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.With(a.require(auth.RequirePermission(auth.PermViewOwnProfile))).Get("/profile", a.handleProfile)

		r.Route("/users", func(r chi.Router) {
			r.With(adminOnly).Post("/", a.handleCreateUser)
			r.With(adminOnly).Post("/by-role", a.handleCreateUserByRole)
			r.With(staff).Get("/", a.handleListUsers)
			r.With(adminOnly).Get("/admin/stats", a.handleUserStats)
			r.With(staff).Get("/{id}", a.handleGetUser)
			r.With(adminOnly).Patch("/{id}", a.handleUpdateUser)
			r.With(a.require(auth.RequirePermission(auth.PermToggleUserActive))).Patch("/{id}/active", a.handleSetUserActive)
			r.With(a.require(auth.RequirePermission(auth.PermDeleteUser))).Delete("/{id}", a.handleDeleteUser)
		})

		r.Route("/roles", func(r chi.Router) {
			r.With(adminOnly).Post("/", a.handleCreateRole)
			r.With(staff).Get("/", a.handleListRoles)
			r.With(staff).Get("/permissions/all", a.handleListPermissions)
			r.With(staff).Get("/{id}", a.handleGetRole)
			r.With(staff).Get("/{id}/permissions", a.handleGetRolePermissions)
			r.With(adminOnly).Patch("/{id}", a.handleUpdateRole)
			r.With(adminOnly).Patch("/{id}/permissions", a.handleSetRolePermissions)
			r.With(adminOnly).Delete("/{id}", a.handleDeleteRole)
		})

		r.With(staff).Get("/permissions", a.handleListPermissions)

		r.Route("/employees", func(r chi.Router) {
			r.With(adminOnly).Post("/", a.handleCreateEmployee)
			r.With(staff).Get("/", a.handleListEmployees)
			r.With(staff).Get("/{id}", a.handleGetEmployee)
			r.With(adminOnly).Patch("/{id}", a.handleUpdateEmployee)
			r.With(adminOnly).Delete("/{id}", a.handleDeleteEmployee)
		})
	})
	return r
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := RequestIDFromContext(r); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

// writeDomainError maps auth sentinels onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		writeUnauthenticated(w, r, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		obs.Logger().Error("request failed",
			zap.String("request_id", RequestIDFromContext(r)),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="`+serviceName+`"`)
	writeError(w, r, http.StatusUnauthorized, "unauthenticated", msg)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// bind decodes and validates a request body, writing a 400 on failure.
func (a *API) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", validationMessage(err))
		return false
	}
	return true
}

// pathID reads and validates the {id} route parameter.
func (a *API) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := a.validate.Var(id, "required,uuid"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "id must be a valid uuid")
		return "", false
	}
	return id, true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "uuid":
			msgs = append(msgs, field+" must be a valid uuid")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters long", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters long", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must use the %s format", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (a *API) audit(ctx context.Context, event, resourceType, resourceID string, details map[string]any) {
	fields := map[string]any{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}
	for k, v := range details {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
}
