package auth

// Role is an account role. Permissions are a static per-role set, not a
// hierarchy: gestor is not a superset of usuario plus create.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "gestor"
	RoleUser    Role = "usuario"
)

// Permission is an action a role may perform.
type Permission string

const (
	PermCreate  Permission = "create"
	PermRead    Permission = "read"
	PermUpdate  Permission = "update"
	PermDelete  Permission = "delete"
	PermExport  Permission = "export"
	PermAnalyze Permission = "analyze"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleAdmin: {
		PermCreate: true, PermRead: true, PermUpdate: true,
		PermDelete: true, PermExport: true, PermAnalyze: true,
	},
	RoleManager: {
		PermRead: true, PermUpdate: true, PermExport: true, PermAnalyze: true,
	},
	RoleUser: {
		PermRead: true,
	},
}

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	_, ok := rolePermissions[Role(s)]
	return ok
}

// HasPermission reports whether the role is allowed to perform the action.
// Unknown roles have no permissions.
func HasPermission(role Role, action Permission) bool {
	return rolePermissions[role][action]
}
