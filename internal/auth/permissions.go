package auth

const (
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleEmployee = "Employee"
)

const (
	PermViewUsers        = "VIEW_USERS"
	PermCreateUser       = "CREATE_USER"
	PermUpdateUser       = "UPDATE_USER"
	PermDeleteUser       = "DELETE_USER"
	PermToggleUserActive = "TOGGLE_USER_ACTIVE"
	PermViewRoles        = "VIEW_ROLES"
	PermCreateRole       = "CREATE_ROLE"
	PermUpdateRole       = "UPDATE_ROLE"
	PermDeleteRole       = "DELETE_ROLE"
	PermViewOwnProfile   = "VIEW_OWN_PROFILE"
)

var BuiltinPermissions = []Permission{
	{Name: PermViewUsers, Description: "Can view user list and details"},
	{Name: PermCreateUser, Description: "Can create new users"},
	{Name: PermUpdateUser, Description: "Can update user information"},
	{Name: PermDeleteUser, Description: "Can delete users"},
	{Name: PermToggleUserActive, Description: "Can enable/disable users"},
	{Name: PermViewRoles, Description: "Can view roles"},
	{Name: PermCreateRole, Description: "Can create new roles"},
	{Name: PermUpdateRole, Description: "Can update roles"},
	{Name: PermDeleteRole, Description: "Can delete roles"},
	{Name: PermViewOwnProfile, Description: "Can view own profile"},
}

// DefaultRoleGrants is the seeded grant set of each builtin role.
var DefaultRoleGrants = map[string][]string{
	RoleAdmin: {
		PermViewUsers, PermCreateUser, PermUpdateUser, PermDeleteUser, PermToggleUserActive,
		PermViewRoles, PermCreateRole, PermUpdateRole, PermDeleteRole, PermViewOwnProfile,
	},
	RoleManager:  {PermViewUsers, PermCreateUser, PermViewRoles, PermViewOwnProfile},
	RoleEmployee: {PermViewOwnProfile},
}
