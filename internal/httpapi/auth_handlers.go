package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

type sessionUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	DisplayName string   `json:"display_name"`
	Role        *string  `json:"role"`
	Permissions []string `json:"permissions"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        sessionUser `json:"user"`
}

type meResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Role        *string   `json:"role"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.bind(w, r, &req) {
		return
	}
	res, err := a.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			obs.ObserveLogin("failure")
			a.audit(r.Context(), "auth.login.failed", "user", "", map[string]any{"email": req.Email})
		} else {
			obs.ObserveLogin("error")
		}
		writeDomainError(w, r, err)
		return
	}
	obs.ObserveLogin("success")
	a.audit(r.Context(), "auth.login", "user", res.User.ID, map[string]any{
		"token_id":   res.Token.Claims.ID,
		"expires_at": res.Token.ExpiresAt.Format(time.RFC3339),
	})

	var role *string
	if res.Token.Claims.Role != "" {
		name := res.Token.Claims.Role
		role = &name
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.Token.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.Token.ExpiresAt,
		User: sessionUser{
			ID:          res.User.ID,
			Email:       res.User.Email,
			FirstName:   res.User.FirstName,
			LastName:    res.User.LastName,
			DisplayName: res.User.DisplayName(),
			Role:        role,
			Permissions: res.Token.Claims.Permissions,
		},
	})
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !a.bind(w, r, &req) {
		return
	}
	user, err := a.svc.Users.Register(r.Context(), auth.SignupInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "auth.signup", "user", user.ID, map[string]any{"email": user.Email})
	w.Header().Set("Location", "/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if err := a.svc.Auth.Logout(r.Context(), claims); err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "auth.logout", "user", claims.Subject, map[string]any{"token_id": claims.ID})
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

// handleMe echoes the token snapshot, not the current database state.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	resp := meResponse{
		ID:          claims.Subject,
		Email:       claims.Email,
		Permissions: claims.Permissions,
	}
	if claims.Role != "" {
		role := claims.Role
		resp.Role = &role
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.svc.Auth.Profile(r.Context(), auth.ClaimsFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
