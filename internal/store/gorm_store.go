package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/inkwelldata/inkwell/internal/authz"
	"github.com/inkwelldata/inkwell/internal/models"
)

// GormStore implements authz.Store on top of the relational schema.
type GormStore struct {
	db *gorm.DB
}

// New constructs a GormStore using the provided database handle.
func New(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("permission store: db is required")
	}
	return &GormStore{db: db}, nil
}

// GetExplicitGrant returns the strongest grant the principal can claim on the
// asset, across the principal's own grants and grants addressed to teams the
// principal belongs to. Nil when no grant exists.
func (s *GormStore) GetExplicitGrant(ctx context.Context, principalID, assetID string, assetType authz.AssetType) (*authz.Grant, error) {
	ctx = ensureContext(ctx)

	teamIDs, err := s.teamIDs(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("permission store: load team memberships: %w", err)
	}

	query := s.db.WithContext(ctx).
		Where("asset_id = ? AND asset_type = ?", assetID, string(assetType))
	if len(teamIDs) > 0 {
		query = query.Where(
			"(identity_type = ? AND identity_id = ?) OR (identity_type = ? AND identity_id IN ?)",
			authz.IdentityTypeUser, principalID, authz.IdentityTypeTeam, teamIDs,
		)
	} else {
		query = query.Where("identity_type = ? AND identity_id = ?", authz.IdentityTypeUser, principalID)
	}

	var rows []models.AssetPermission
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("permission store: load grants: %w", err)
	}

	var best *authz.Grant
	for i := range rows {
		grant, err := toGrant(&rows[i])
		if err != nil {
			return nil, err
		}
		if best == nil || authz.Compare(grant.Role, best.Role) > 0 {
			best = grant
		}
	}
	return best, nil
}

// GetAsset returns the asset row, including soft-deleted assets so the engine
// can exclude them explicitly. Nil when the asset does not exist.
func (s *GormStore) GetAsset(ctx context.Context, assetID string, assetType authz.AssetType) (*authz.Asset, error) {
	ctx = ensureContext(ctx)

	var row models.Asset
	err := s.db.WithContext(ctx).
		First(&row, "id = ? AND asset_type = ?", assetID, string(assetType)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("permission store: load asset: %w", err)
	}

	return toAsset(&row)
}

// GetParents returns every existing, non-deleted container of the asset.
func (s *GormStore) GetParents(ctx context.Context, assetID string, assetType authz.AssetType) ([]authz.ParentRef, error) {
	ctx = ensureContext(ctx)

	var rows []models.AssetContainment
	err := s.db.WithContext(ctx).
		Joins("JOIN assets ON assets.id = asset_containments.parent_id AND assets.asset_type = asset_containments.parent_type").
		Where("asset_containments.child_id = ? AND asset_containments.child_type = ?", assetID, string(assetType)).
		Where("assets.deleted_at IS NULL").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("permission store: load parents: %w", err)
	}

	parents := make([]authz.ParentRef, 0, len(rows))
	for _, row := range rows {
		parentType, err := authz.ParseAssetType(row.ParentType)
		if err != nil {
			return nil, fmt.Errorf("permission store: containment row %s: %w", row.ID, err)
		}
		parents = append(parents, authz.ParentRef{ID: row.ParentID, Type: parentType})
	}
	return parents, nil
}

// IsOrganizationMember reports whether the principal is an active member of
// the organisation.
func (s *GormStore) IsOrganizationMember(ctx context.Context, principalID, organizationID string) (bool, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(organizationID) == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND organization_id = ? AND is_active = ?", principalID, organizationID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("permission store: check membership: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) teamIDs(ctx context.Context, principalID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Table("user_teams").
		Where("user_id = ?", principalID).
		Pluck("team_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func toGrant(row *models.AssetPermission) (*authz.Grant, error) {
	role, err := authz.ParseRole(row.Role)
	if err != nil {
		return nil, fmt.Errorf("permission store: grant %s: %w", row.ID, err)
	}
	assetType, err := authz.ParseAssetType(row.AssetType)
	if err != nil {
		return nil, fmt.Errorf("permission store: grant %s: %w", row.ID, err)
	}

	grant := &authz.Grant{
		IdentityID:   row.IdentityID,
		IdentityType: row.IdentityType,
		AssetID:      row.AssetID,
		AssetType:    assetType,
		Role:         role,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.GrantedByID != nil {
		grant.GrantedByID = *row.GrantedByID
	}
	return grant, nil
}

func toAsset(row *models.Asset) (*authz.Asset, error) {
	assetType, err := authz.ParseAssetType(row.AssetType)
	if err != nil {
		return nil, fmt.Errorf("permission store: asset %s: %w", row.ID, err)
	}
	sharing, err := authz.ParseWorkspaceSharing(row.WorkspaceSharing)
	if err != nil {
		return nil, fmt.Errorf("permission store: asset %s: %w", row.ID, err)
	}

	return &authz.Asset{
		ID:               row.ID,
		Type:             assetType,
		OrganizationID:   row.OrganizationID,
		OwnerID:          row.OwnerID,
		WorkspaceSharing: sharing,
		DeletedAt:        row.DeletedAt,
	}, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
