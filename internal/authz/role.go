package authz

import (
	"fmt"
	"strings"
)

// Role is a capability level a principal can hold on an asset. Roles form a
// total order from weakest to strongest; every comparison in the engine goes
// through Compare/Max/Satisfies so the ordering lives in exactly one place.
type Role string

const (
	RoleCanView    Role = "can_view"
	RoleCanFilter  Role = "can_filter"
	RoleCanEdit    Role = "can_edit"
	RoleFullAccess Role = "full_access"
	RoleOwner      Role = "owner"
)

var roleRank = map[Role]int{
	RoleCanView:    1,
	RoleCanFilter:  2,
	RoleCanEdit:    3,
	RoleFullAccess: 4,
	RoleOwner:      5,
}

// Roles lists every defined role in ascending order.
func Roles() []Role {
	return []Role{RoleCanView, RoleCanFilter, RoleCanEdit, RoleFullAccess, RoleOwner}
}

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// ParseRole converts a string into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("authz: unknown role %q", value)
	}
	return role, nil
}

// Compare returns a negative number when a is weaker than b, zero when the
// roles are equal and a positive number when a is stronger than b.
func Compare(a, b Role) int {
	return roleRank[a] - roleRank[b]
}

// Max returns the stronger of the two roles.
func Max(a, b Role) Role {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}

// Satisfies reports whether the held role meets or exceeds the required role.
func Satisfies(have, required Role) bool {
	if !have.Valid() || !required.Valid() {
		return false
	}
	return Compare(have, required) >= 0
}

// WorkspaceSharing is the organisation-wide default visibility applied to an
// asset. Every active member of the owning organisation receives the mapped
// role without needing an explicit grant.
type WorkspaceSharing string

const (
	WorkspaceSharingNone       WorkspaceSharing = "none"
	WorkspaceSharingCanView    WorkspaceSharing = "can_view"
	WorkspaceSharingCanEdit    WorkspaceSharing = "can_edit"
	WorkspaceSharingFullAccess WorkspaceSharing = "full_access"
)

var workspaceSharingRoles = map[WorkspaceSharing]Role{
	WorkspaceSharingCanView:    RoleCanView,
	WorkspaceSharingCanEdit:    RoleCanEdit,
	WorkspaceSharingFullAccess: RoleFullAccess,
}

// Valid reports whether the sharing setting is one of the defined values.
func (w WorkspaceSharing) Valid() bool {
	if w == WorkspaceSharingNone {
		return true
	}
	_, ok := workspaceSharingRoles[w]
	return ok
}

// ParseWorkspaceSharing converts a string into a WorkspaceSharing setting.
func ParseWorkspaceSharing(value string) (WorkspaceSharing, error) {
	sharing := WorkspaceSharing(strings.ToLower(strings.TrimSpace(value)))
	if !sharing.Valid() {
		return "", fmt.Errorf("authz: unknown workspace sharing setting %q", value)
	}
	return sharing, nil
}

// Role maps the sharing setting onto a Role. The second return value is false
// for WorkspaceSharingNone, which grants nothing.
func (w WorkspaceSharing) Role() (Role, bool) {
	role, ok := workspaceSharingRoles[w]
	return role, ok
}
