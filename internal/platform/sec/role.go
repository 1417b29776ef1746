// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access, including runtime configuration
	RoleSuperAdmin UserRole = "SUPER_ADMIN"

	// Manages users and the mail suppression list
	RoleAdmin UserRole = "ADMIN"

	// Runs sessions for students
	RoleFacilitator UserRole = "FACILITATOR"

	RoleStudent UserRole = "STUDENT"

	// Default role for standard registered users
	RoleBasic UserRole = "ROLE"
)

// Roles lists every assignable role, lowest first.
var Roles = []UserRole{RoleBasic, RoleStudent, RoleFacilitator, RoleAdmin, RoleSuperAdmin}

// RoleNames returns [Roles] as plain strings.
func RoleNames() []string {
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = string(r)
	}
	return names
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

func (r UserRole) level() int {
	switch r {
	case RoleSuperAdmin:
		return 50
	case RoleAdmin:
		return 40
	case RoleFacilitator:
		return 30
	case RoleStudent:
		return 20
	case RoleBasic:
		return 10
	default:
		return 0
	}
}
