package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkwelldata/inkwell/internal/authz"
	"github.com/inkwelldata/inkwell/internal/database/testutil"
	"github.com/inkwelldata/inkwell/internal/models"
)

func newStoreFixture(t *testing.T) (*GormStore, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	s, err := New(db)
	require.NoError(t, err)
	return s, db
}

func createOrg(t *testing.T, db *gorm.DB, name string) models.Organization {
	t.Helper()
	org := models.Organization{Name: name}
	require.NoError(t, db.Create(&org).Error)
	return org
}

func createUser(t *testing.T, db *gorm.DB, orgID, username string, active bool) models.User {
	t.Helper()
	user := models.User{
		Username:       username,
		Email:          username + "@example.com",
		IsActive:       active,
		OrganizationID: &orgID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createAsset(t *testing.T, db *gorm.DB, orgID, ownerID string, assetType authz.AssetType, sharing authz.WorkspaceSharing) models.Asset {
	t.Helper()
	asset := models.Asset{
		AssetType:        string(assetType),
		OrganizationID:   orgID,
		OwnerID:          ownerID,
		Name:             "asset-" + string(assetType),
		WorkspaceSharing: string(sharing),
	}
	require.NoError(t, db.Create(&asset).Error)
	return asset
}

func TestGetExplicitGrantUserAndTeam(t *testing.T) {
	s, db := newStoreFixture(t)
	ctx := context.Background()

	org := createOrg(t, db, "acme")
	user := createUser(t, db, org.ID, "grant-user", true)
	asset := createAsset(t, db, org.ID, user.ID, authz.AssetTypeMetric, authz.WorkspaceSharingNone)

	team := models.Team{OrganizationID: org.ID, Name: "analysts"}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Model(&team).Association("Users").Append(&user))

	require.NoError(t, db.Create(&models.AssetPermission{
		AssetID:      asset.ID,
		AssetType:    asset.AssetType,
		IdentityID:   user.ID,
		IdentityType: authz.IdentityTypeUser,
		Role:         string(authz.RoleCanView),
	}).Error)
	require.NoError(t, db.Create(&models.AssetPermission{
		AssetID:      asset.ID,
		AssetType:    asset.AssetType,
		IdentityID:   team.ID,
		IdentityType: authz.IdentityTypeTeam,
		Role:         string(authz.RoleCanEdit),
	}).Error)

	// The stronger team grant wins over the user's own grant.
	grant, err := s.GetExplicitGrant(ctx, user.ID, asset.ID, authz.AssetTypeMetric)
	require.NoError(t, err)
	require.NotNil(t, grant)
	require.Equal(t, authz.RoleCanEdit, grant.Role)
	require.Equal(t, authz.IdentityTypeTeam, grant.IdentityType)
}

func TestGetExplicitGrantAbsent(t *testing.T) {
	s, db := newStoreFixture(t)
	ctx := context.Background()

	org := createOrg(t, db, "acme")
	user := createUser(t, db, org.ID, "no-grant-user", true)
	asset := createAsset(t, db, org.ID, user.ID, authz.AssetTypeMetric, authz.WorkspaceSharingNone)

	grant, err := s.GetExplicitGrant(ctx, user.ID, asset.ID, authz.AssetTypeMetric)
	require.NoError(t, err)
	require.Nil(t, grant)
}

func TestGetExplicitGrantIgnoresOtherTeams(t *testing.T) {
	s, db := newStoreFixture(t)
	ctx := context.Background()

	org := createOrg(t, db, "acme")
	user := createUser(t, db, org.ID, "outside-team-user", true)
	asset := createAsset(t, db, org.ID, user.ID, authz.AssetTypeDashboard, authz.WorkspaceSharingNone)

	// A grant to a team the user does not belong to must not surface.
	team := models.Team{OrganizationID: org.ID, Name: "other-team"}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Create(&models.AssetPermission{
		AssetID:      asset.ID,
		AssetType:    asset.AssetType,
		IdentityID:   team.ID,
		IdentityType: authz.IdentityTypeTeam,
		Role:         string(authz.RoleOwner),
	}).Error)

	grant, err := s.GetExplicitGrant(ctx, user.ID, asset.ID, authz.AssetTypeDashboard)
	require.NoError(t, err)
	require.Nil(t, grant)
}

func TestGetAsset(t *testing.T) {
	s, db := newStoreFixture(t)
	ctx := context.Background()

	org := createOrg(t, db, "acme")
	user := createUser(t, db, org.ID, "asset-owner", true)
	asset := createAsset(t, db, org.ID, user.ID, authz.AssetTypeChat, authz.WorkspaceSharingCanView)

	got, err := s.GetAsset(ctx, asset.ID, authz.AssetTypeChat)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, authz.AssetTypeChat, got.Type)
	require.Equal(t, org.ID, got.OrganizationID)
	require.Equal(t, authz.WorkspaceSharingCanView, got.WorkspaceSharing)
	require.False(t, got.Deleted())

	// The type is part of the key: the same id under another type is absent.
	got, err = s.GetAsset(ctx, asset.ID, authz.AssetTypeReport)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = s.GetAsset(ctx, "does-not-exist", authz.AssetTypeChat)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetAssetReturnsDeletedMarker(t *testing.T) {
	s, db := newStoreFixture(t)
	ctx := context.Background()

	org := createOrg(t, db, "acme")
	user := createUser(t, db, org.ID, "deleted-asset-owner", true)
	asset := createAsset(t, db, org.ID, user.ID, authz.AssetTypeMetric, authz.WorkspaceSharingNone)

	now := time.Now()
	require.NoError(t, db.Model(&models.Asset{}).Where("id = ?", asset.ID).Update("deleted_at", &now).Error)

	got, err := s.GetAsset(ctx, asset.ID, authz.AssetTypeMetric)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Deleted())
}

func TestGetParentsExcludesDeleted(t *testing.T) {
	s, db := newStoreFixture(t)
	ctx := context.Background()

	org := createOrg(t, db, "acme")
	user := createUser(t, db, org.ID, "parents-user", true)
	metric := createAsset(t, db, org.ID, user.ID, authz.AssetTypeMetric, authz.WorkspaceSharingNone)
	dashboard := createAsset(t, db, org.ID, user.ID, authz.AssetTypeDashboard, authz.WorkspaceSharingNone)
	collection := createAsset(t, db, org.ID, user.ID, authz.AssetTypeCollection, authz.WorkspaceSharingNone)

	for _, parent := range []models.Asset{dashboard, collection} {
		require.NoError(t, db.Create(&models.AssetContainment{
			ParentID:   parent.ID,
			ParentType: parent.AssetType,
			ChildID:    metric.ID,
			ChildType:  metric.AssetType,
		}).Error)
	}

	parents, err := s.GetParents(ctx, metric.ID, authz.AssetTypeMetric)
	require.NoError(t, err)
	require.ElementsMatch(t, []authz.ParentRef{
		{ID: dashboard.ID, Type: authz.AssetTypeDashboard},
		{ID: collection.ID, Type: authz.AssetTypeCollection},
	}, parents)

	now := time.Now()
	require.NoError(t, db.Model(&models.Asset{}).Where("id = ?", dashboard.ID).Update("deleted_at", &now).Error)

	parents, err = s.GetParents(ctx, metric.ID, authz.AssetTypeMetric)
	require.NoError(t, err)
	require.Equal(t, []authz.ParentRef{{ID: collection.ID, Type: authz.AssetTypeCollection}}, parents)
}

func TestIsOrganizationMember(t *testing.T) {
	s, db := newStoreFixture(t)
	ctx := context.Background()

	org := createOrg(t, db, "acme")
	other := createOrg(t, db, "globex")
	active := createUser(t, db, org.ID, "active-member", true)
	inactive := createUser(t, db, org.ID, "inactive-member", false)

	member, err := s.IsOrganizationMember(ctx, active.ID, org.ID)
	require.NoError(t, err)
	require.True(t, member)

	member, err = s.IsOrganizationMember(ctx, inactive.ID, org.ID)
	require.NoError(t, err)
	require.False(t, member)

	member, err = s.IsOrganizationMember(ctx, active.ID, other.ID)
	require.NoError(t, err)
	require.False(t, member)

	member, err = s.IsOrganizationMember(ctx, active.ID, "")
	require.NoError(t, err)
	require.False(t, member)
}
