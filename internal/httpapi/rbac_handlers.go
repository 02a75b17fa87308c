package httpapi

import (
	"net/http"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

type createRoleRequest struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Description     string   `json:"description" validate:"max=500"`
	PermissionNames []string `json:"permission_names" validate:"omitempty,dive,required"`
}

type updateRoleRequest struct {
	Name            *string   `json:"name" validate:"omitempty,max=100"`
	Description     *string   `json:"description" validate:"omitempty,max=500"`
	PermissionNames *[]string `json:"permission_names" validate:"omitempty,dive,required"`
}

// setRolePermissionsRequest replaces the whole grant set; an empty list revokes everything.
type setRolePermissionsRequest struct {
	PermissionNames []string `json:"permission_names" validate:"required,dive,required"`
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !a.bind(w, r, &req) {
		return
	}
	role, err := a.svc.RBAC.CreateRole(r.Context(), auth.RoleInput{
		Name:            req.Name,
		Description:     req.Description,
		PermissionNames: req.PermissionNames,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "rbac.role.create", "role", role.ID, map[string]any{
		"name":        role.Name,
		"permissions": role.PermissionNames(),
	})
	w.Header().Set("Location", "/roles/"+role.ID)
	writeJSON(w, http.StatusCreated, role)
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.svc.RBAC.ListRoles(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (a *API) handleGetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	role, err := a.svc.RBAC.GetRole(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleGetRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	perms, err := a.svc.RBAC.GetRolePermissions(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (a *API) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if !a.bind(w, r, &req) {
		return
	}
	role, err := a.svc.RBAC.UpdateRole(r.Context(), id, auth.RoleUpdate{
		Name:            req.Name,
		Description:     req.Description,
		PermissionNames: req.PermissionNames,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "rbac.role.update", "role", role.ID, map[string]any{
		"name":        role.Name,
		"permissions": role.PermissionNames(),
	})
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleSetRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req setRolePermissionsRequest
	if !a.bind(w, r, &req) {
		return
	}
	role, err := a.svc.RBAC.SetRolePermissions(r.Context(), id, req.PermissionNames)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "rbac.role.set_permissions", "role", role.ID, map[string]any{
		"permissions": role.PermissionNames(),
	})
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.svc.RBAC.DeleteRole(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "rbac.role.delete", "role", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := a.svc.RBAC.ListPermissions(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}
