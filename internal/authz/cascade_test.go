package authz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newCascadeFixture(t *testing.T, store *fakeStore, maxDepth int) *CascadingResolver {
	t.Helper()
	calc, err := NewCalculator(store)
	require.NoError(t, err)
	cascade, err := NewCascadingResolver(store, calc, maxDepth)
	require.NoError(t, err)
	return cascade
}

func TestCascadingRoleInheritsFromContainer(t *testing.T) {
	store := newFakeStore()
	metric := store.addAsset(Asset{ID: "m1", Type: AssetTypeMetric, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "d1", Type: AssetTypeDashboard, OrganizationID: "org-1"})
	store.addParent("m1", AssetTypeMetric, "d1", AssetTypeDashboard)
	store.addGrant("user-1", Grant{IdentityID: "user-1", IdentityType: IdentityTypeUser, AssetID: "d1", AssetType: AssetTypeDashboard, Role: RoleCanView})

	cascade := newCascadeFixture(t, store, 0)

	role, path, found, err := cascade.CascadingRole(context.Background(), "user-1", metric, RoleCanView)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, RoleCanView, role)
	require.Equal(t, []PathStep{{AssetID: "d1", AssetType: AssetTypeDashboard, Role: RoleCanView}}, path)
}

func TestCascadingRoleCappedAtEdgeMax(t *testing.T) {
	store := newFakeStore()
	metric := store.addAsset(Asset{ID: "m1", Type: AssetTypeMetric, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "d1", Type: AssetTypeDashboard, OrganizationID: "org-1"})
	store.addParent("m1", AssetTypeMetric, "d1", AssetTypeDashboard)
	store.addGrant("user-1", Grant{IdentityID: "user-1", IdentityType: IdentityTypeUser, AssetID: "d1", AssetType: AssetTypeDashboard, Role: RoleOwner})

	cascade := newCascadeFixture(t, store, 0)

	// Owning the dashboard yields at most can_edit on its metrics.
	role, _, found, err := cascade.CascadingRole(context.Background(), "user-1", metric, RoleOwner)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, RoleCanEdit, role)
}

func TestCascadingRoleTwoHops(t *testing.T) {
	store := newFakeStore()
	metric := store.addAsset(Asset{ID: "m1", Type: AssetTypeMetric, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "d1", Type: AssetTypeDashboard, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "c1", Type: AssetTypeCollection, OrganizationID: "org-1"})
	store.addParent("m1", AssetTypeMetric, "d1", AssetTypeDashboard)
	store.addParent("d1", AssetTypeDashboard, "c1", AssetTypeCollection)
	store.addGrant("user-1", Grant{IdentityID: "user-1", IdentityType: IdentityTypeUser, AssetID: "c1", AssetType: AssetTypeCollection, Role: RoleFullAccess})

	cascade := newCascadeFixture(t, store, 0)

	role, path, found, err := cascade.CascadingRole(context.Background(), "user-1", metric, RoleCanEdit)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, RoleCanEdit, role)
	require.Len(t, path, 2)
	require.Equal(t, "d1", path[0].AssetID)
	require.Equal(t, "c1", path[1].AssetID)
}

func TestCascadingRoleBestOfMultiplePaths(t *testing.T) {
	store := newFakeStore()
	metric := store.addAsset(Asset{ID: "m1", Type: AssetTypeMetric, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "d1", Type: AssetTypeDashboard, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "r1", Type: AssetTypeReport, OrganizationID: "org-1"})
	store.addParent("m1", AssetTypeMetric, "d1", AssetTypeDashboard)
	store.addParent("m1", AssetTypeMetric, "r1", AssetTypeReport)
	store.addGrant("user-1", Grant{IdentityID: "user-1", IdentityType: IdentityTypeUser, AssetID: "d1", AssetType: AssetTypeDashboard, Role: RoleCanView})
	store.addGrant("user-1", Grant{IdentityID: "user-1", IdentityType: IdentityTypeUser, AssetID: "r1", AssetType: AssetTypeReport, Role: RoleCanEdit})

	cascade := newCascadeFixture(t, store, 0)

	// Paths are reconciled by maximum, never summed.
	role, _, found, err := cascade.CascadingRole(context.Background(), "user-1", metric, RoleCanEdit)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, RoleCanEdit, role)
}

func TestCascadingRoleSkipsDeletedContainers(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	metric := store.addAsset(Asset{ID: "m1", Type: AssetTypeMetric, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "d1", Type: AssetTypeDashboard, OrganizationID: "org-1", DeletedAt: &now})
	store.addParent("m1", AssetTypeMetric, "d1", AssetTypeDashboard)
	store.addGrant("user-1", Grant{IdentityID: "user-1", IdentityType: IdentityTypeUser, AssetID: "d1", AssetType: AssetTypeDashboard, Role: RoleOwner})

	cascade := newCascadeFixture(t, store, 0)

	_, _, found, err := cascade.CascadingRole(context.Background(), "user-1", metric, RoleCanView)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCascadingRoleCycleSafe(t *testing.T) {
	store := newFakeStore()
	dash := store.addAsset(Asset{ID: "d1", Type: AssetTypeDashboard, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "c1", Type: AssetTypeCollection, OrganizationID: "org-1"})
	store.addParent("d1", AssetTypeDashboard, "c1", AssetTypeCollection)
	// Corrupt data pointing the collection back at the dashboard. No declared
	// edge exists for that direction, and the visited set guards the walk.
	store.addParent("c1", AssetTypeCollection, "d1", AssetTypeDashboard)

	cascade := newCascadeFixture(t, store, 0)

	_, _, found, err := cascade.CascadingRole(context.Background(), "user-1", dash, RoleCanView)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCascadingRoleDepthBound(t *testing.T) {
	store := newFakeStore()
	metric := store.addAsset(Asset{ID: "m1", Type: AssetTypeMetric, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "d1", Type: AssetTypeDashboard, OrganizationID: "org-1"})
	store.addAsset(Asset{ID: "c1", Type: AssetTypeCollection, OrganizationID: "org-1"})
	store.addParent("m1", AssetTypeMetric, "d1", AssetTypeDashboard)
	store.addParent("d1", AssetTypeDashboard, "c1", AssetTypeCollection)
	store.addGrant("user-1", Grant{IdentityID: "user-1", IdentityType: IdentityTypeUser, AssetID: "c1", AssetType: AssetTypeCollection, Role: RoleCanEdit})

	// Depth 1 allows only the immediate container, so the collection grant
	// two hops away is unreachable.
	cascade := newCascadeFixture(t, store, 1)

	_, _, found, err := cascade.CascadingRole(context.Background(), "user-1", metric, RoleCanView)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCascadingRoleNoParents(t *testing.T) {
	store := newFakeStore()
	dataset := store.addAsset(Asset{ID: "ds1", Type: AssetTypeDataset, OrganizationID: "org-1"})

	cascade := newCascadeFixture(t, store, 0)

	_, _, found, err := cascade.CascadingRole(context.Background(), "user-1", dataset, RoleCanView)
	require.NoError(t, err)
	require.False(t, found)
	// Dataset has no declared parent edges, so no store round trips happen.
	require.Zero(t, store.callCount("GetParents"))
}
