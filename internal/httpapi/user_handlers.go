package httpapi

import (
	"net/http"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	RoleID    string `json:"role_id" validate:"required,uuid"`
}

type createUserByRoleRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	RoleName  string `json:"role_name" validate:"required,max=100"`
}

type updateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	RoleID    *string `json:"role_id" validate:"omitempty,uuid"`
	ClearRole bool    `json:"clear_role"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !a.bind(w, r, &req) {
		return
	}
	user, err := a.svc.Users.CreateUser(r.Context(), auth.CreateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		RoleID:    req.RoleID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.create", "user", user.ID, map[string]any{
		"email":   user.Email,
		"role_id": req.RoleID,
	})
	w.Header().Set("Location", "/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleCreateUserByRole(w http.ResponseWriter, r *http.Request) {
	var req createUserByRoleRequest
	if !a.bind(w, r, &req) {
		return
	}
	user, err := a.svc.Users.CreateUserByRole(r.Context(), auth.CreateUserByRoleInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		RoleName:  req.RoleName,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.create", "user", user.ID, map[string]any{
		"email":     user.Email,
		"role_name": req.RoleName,
	})
	w.Header().Set("Location", "/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.svc.Users.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Users.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	user, err := a.svc.Users.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if !a.bind(w, r, &req) {
		return
	}
	user, err := a.svc.Users.UpdateUser(r.Context(), id, auth.ProfileUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleID:    req.RoleID,
		ClearRole: req.ClearRole,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	details := map[string]any{}
	if req.RoleID != nil {
		details["role_id"] = *req.RoleID
	}
	a.audit(r.Context(), "users.update", "user", user.ID, details)
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req setActiveRequest
	if !a.bind(w, r, &req) {
		return
	}
	user, err := a.svc.Users.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.set_active", "user", user.ID, map[string]any{"is_active": user.IsActive})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.svc.Users.DeleteUser(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.delete", "user", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
