package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	ordered := Roles()
	require.Equal(t, []Role{RoleCanView, RoleCanFilter, RoleCanEdit, RoleFullAccess, RoleOwner}, ordered)

	for i := 1; i < len(ordered); i++ {
		require.Negative(t, Compare(ordered[i-1], ordered[i]))
		require.Positive(t, Compare(ordered[i], ordered[i-1]))
	}
	for _, role := range ordered {
		require.Zero(t, Compare(role, role))
	}
}

func TestRoleMax(t *testing.T) {
	require.Equal(t, RoleOwner, Max(RoleCanView, RoleOwner))
	require.Equal(t, RoleOwner, Max(RoleOwner, RoleCanView))
	require.Equal(t, RoleCanEdit, Max(RoleCanEdit, RoleCanEdit))
}

func TestRoleSatisfies(t *testing.T) {
	require.True(t, Satisfies(RoleOwner, RoleCanView))
	require.True(t, Satisfies(RoleCanEdit, RoleCanEdit))
	require.False(t, Satisfies(RoleCanView, RoleCanFilter))

	// Undefined roles never satisfy anything, in either position.
	require.False(t, Satisfies(Role("admin"), RoleCanView))
	require.False(t, Satisfies(RoleOwner, Role("admin")))
	require.False(t, Satisfies(Role(""), Role("")))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("  Can_Edit ")
	require.NoError(t, err)
	require.Equal(t, RoleCanEdit, role)

	_, err = ParseRole("superuser")
	require.Error(t, err)

	_, err = ParseRole("")
	require.Error(t, err)
}

func TestWorkspaceSharingRole(t *testing.T) {
	cases := []struct {
		sharing WorkspaceSharing
		role    Role
		grants  bool
	}{
		{WorkspaceSharingNone, "", false},
		{WorkspaceSharingCanView, RoleCanView, true},
		{WorkspaceSharingCanEdit, RoleCanEdit, true},
		{WorkspaceSharingFullAccess, RoleFullAccess, true},
	}

	for _, tc := range cases {
		role, ok := tc.sharing.Role()
		require.Equal(t, tc.grants, ok, "sharing %q", tc.sharing)
		if tc.grants {
			require.Equal(t, tc.role, role)
		}
	}
}

func TestParseWorkspaceSharing(t *testing.T) {
	sharing, err := ParseWorkspaceSharing("FULL_ACCESS")
	require.NoError(t, err)
	require.Equal(t, WorkspaceSharingFullAccess, sharing)

	sharing, err = ParseWorkspaceSharing("none")
	require.NoError(t, err)
	require.Equal(t, WorkspaceSharingNone, sharing)

	_, err = ParseWorkspaceSharing("owner")
	require.Error(t, err)
}
