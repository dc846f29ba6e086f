package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inkwelldata/inkwell/internal/authz"
	"github.com/inkwelldata/inkwell/internal/models"
	apperrors "github.com/inkwelldata/inkwell/pkg/errors"
)

// Invalidator is the cache surface mutation hooks call. Every write path in
// this service must invalidate before reporting success, otherwise a cached
// decision could outlive the grant it was computed from.
type Invalidator interface {
	InvalidatePrincipal(principalID string)
	InvalidateAsset(assetID string, assetType authz.AssetType)
}

// AccessChecker abstracts the permission decision used to authorise share
// management itself.
type AccessChecker interface {
	CheckPermission(ctx context.Context, principalID, assetID string, assetType authz.AssetType, required authz.Role) (authz.Decision, error)
}

// ShareDTO represents one grant on an asset.
type ShareDTO struct {
	ShareID      string         `json:"share_id"`
	IdentityID   string         `json:"identity_id"`
	IdentityType string         `json:"identity_type"`
	Role         authz.Role     `json:"role"`
	GrantedByID  *string        `json:"granted_by_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SharingService manages explicit grants and workspace-sharing settings.
// Mutations invalidate the decision cache for the affected asset (and, for
// user grants, the principal) before returning.
type SharingService struct {
	db      *gorm.DB
	checker AccessChecker
	cache   Invalidator
}

// NewSharingService constructs a SharingService.
func NewSharingService(db *gorm.DB, checker AccessChecker, cache Invalidator) (*SharingService, error) {
	if db == nil {
		return nil, errors.New("sharing service: db is required")
	}
	if checker == nil {
		return nil, errors.New("sharing service: access checker is required")
	}
	if cache == nil {
		return nil, errors.New("sharing service: cache invalidator is required")
	}
	return &SharingService{db: db, checker: checker, cache: cache}, nil
}

// UpsertShareInput describes the payload for creating or replacing a grant.
type UpsertShareInput struct {
	IdentityType string
	IdentityID   string
	Role         authz.Role
	Metadata     map[string]any
}

// ListShares returns the grants recorded for the asset.
func (s *SharingService) ListShares(ctx context.Context, requesterID, assetID string, assetType authz.AssetType) ([]ShareDTO, error) {
	ctx = ensureContext(ctx)

	if _, err := s.ensureManageAccess(ctx, requesterID, assetID, assetType); err != nil {
		return nil, err
	}

	var rows []models.AssetPermission
	if err := s.db.WithContext(ctx).
		Where("asset_id = ? AND asset_type = ?", assetID, string(assetType)).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sharing service: list shares: %w", err)
	}

	dtos := make([]ShareDTO, 0, len(rows))
	for i := range rows {
		dto, err := toShareDTO(&rows[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// UpsertShare creates or replaces the grant for the identity on the asset.
// The previous role, if any, is overwritten: last write wins, grants are
// never stacked.
func (s *SharingService) UpsertShare(ctx context.Context, requesterID, assetID string, assetType authz.AssetType, input UpsertShareInput) (*ShareDTO, error) {
	ctx = ensureContext(ctx)

	asset, err := s.ensureManageAccess(ctx, requesterID, assetID, assetType)
	if err != nil {
		return nil, err
	}

	identityType := strings.ToLower(strings.TrimSpace(input.IdentityType))
	identityID := strings.TrimSpace(input.IdentityID)
	if identityType == "" || identityID == "" {
		return nil, apperrors.NewBadRequest("identity type and id are required")
	}
	if identityType != authz.IdentityTypeUser && identityType != authz.IdentityTypeTeam {
		return nil, apperrors.NewBadRequest("identity type must be user or team")
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewBadRequest("role must be one of the defined roles")
	}
	if err := s.ensureIdentityExists(ctx, identityType, identityID); err != nil {
		return nil, err
	}

	var metadata datatypes.JSON
	if len(input.Metadata) > 0 {
		raw, marshalErr := json.Marshal(input.Metadata)
		if marshalErr != nil {
			return nil, apperrors.NewBadRequest("metadata must be JSON serialisable")
		}
		metadata = datatypes.JSON(raw)
	}

	var record models.AssetPermission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(
			"asset_id = ? AND asset_type = ? AND identity_type = ? AND identity_id = ?",
			assetID, string(assetType), identityType, identityID,
		).First(&record).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = models.AssetPermission{
				AssetID:      assetID,
				AssetType:    string(assetType),
				IdentityID:   identityID,
				IdentityType: identityType,
				Role:         string(input.Role),
				GrantedByID:  &requesterID,
				Metadata:     metadata,
			}
			if err := tx.Create(&record).Error; err != nil {
				if isUniqueConstraintError(err) {
					return apperrors.NewBadRequest("share already exists for this identity")
				}
				return fmt.Errorf("sharing service: create grant: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("sharing service: load grant: %w", err)
		}

		updates := map[string]any{
			"role":          string(input.Role),
			"granted_by_id": &requesterID,
			"metadata":      metadata,
		}
		if err := tx.Model(&record).Updates(updates).Error; err != nil {
			return fmt.Errorf("sharing service: update grant: %w", err)
		}
		record.Role = string(input.Role)
		record.GrantedByID = &requesterID
		record.Metadata = metadata
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(asset, identityType, identityID)

	dto, err := toShareDTO(&record)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// RemoveShare deletes the grant for the identity on the asset.
func (s *SharingService) RemoveShare(ctx context.Context, requesterID, assetID string, assetType authz.AssetType, identityType, identityID string) error {
	ctx = ensureContext(ctx)

	asset, err := s.ensureManageAccess(ctx, requesterID, assetID, assetType)
	if err != nil {
		return err
	}

	identityType = strings.ToLower(strings.TrimSpace(identityType))
	identityID = strings.TrimSpace(identityID)

	result := s.db.WithContext(ctx).
		Where("asset_id = ? AND asset_type = ? AND identity_type = ? AND identity_id = ?",
			assetID, string(assetType), identityType, identityID).
		Delete(&models.AssetPermission{})
	if result.Error != nil {
		return fmt.Errorf("sharing service: remove grant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrShareNotFound
	}

	s.invalidate(asset, identityType, identityID)
	return nil
}

// UpdateWorkspaceSharing changes the organisation-wide default role on the
// asset.
func (s *SharingService) UpdateWorkspaceSharing(ctx context.Context, requesterID, assetID string, assetType authz.AssetType, sharing authz.WorkspaceSharing) error {
	ctx = ensureContext(ctx)

	asset, err := s.ensureManageAccess(ctx, requesterID, assetID, assetType)
	if err != nil {
		return err
	}
	if !sharing.Valid() {
		return apperrors.NewBadRequest("workspace sharing must be one of none, can_view, can_edit, full_access")
	}

	err = s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ? AND asset_type = ?", assetID, string(assetType)).
		Update("workspace_sharing", string(sharing)).Error
	if err != nil {
		return fmt.Errorf("sharing service: update workspace sharing: %w", err)
	}

	// Workspace sharing affects every member, so only the asset-scoped
	// invalidation applies.
	s.cache.InvalidateAsset(asset.ID, asset.Type)
	return nil
}

// ensureManageAccess loads the asset and verifies the requester may manage
// its shares: the owner always can, anyone else needs full_access.
func (s *SharingService) ensureManageAccess(ctx context.Context, requesterID, assetID string, assetType authz.AssetType) (*authz.Asset, error) {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var row models.Asset
	err := s.db.WithContext(ctx).
		First(&row, "id = ? AND asset_type = ?", assetID, string(assetType)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sharing service: load asset: %w", err)
	}
	if row.DeletedAt != nil {
		return nil, ErrAssetNotFound
	}

	asset := &authz.Asset{ID: row.ID, Type: assetType, OrganizationID: row.OrganizationID, OwnerID: row.OwnerID}
	if row.OwnerID == requesterID {
		return asset, nil
	}

	decision, err := s.checker.CheckPermission(ctx, requesterID, assetID, assetType, authz.RoleFullAccess)
	if err != nil {
		return nil, err
	}
	if !decision.HasAccess {
		return nil, apperrors.ErrForbidden
	}
	return asset, nil
}

func (s *SharingService) ensureIdentityExists(ctx context.Context, identityType, identityID string) error {
	var (
		count int64
		err   error
	)
	switch identityType {
	case authz.IdentityTypeUser:
		err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", identityID).Count(&count).Error
	case authz.IdentityTypeTeam:
		err = s.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", identityID).Count(&count).Error
	}
	if err != nil {
		return fmt.Errorf("sharing service: load identity: %w", err)
	}
	if count == 0 {
		return apperrors.NewBadRequest("identity does not exist")
	}
	return nil
}

// invalidate runs the mutation hooks for a grant change. Team grants affect
// every member, which the asset-scoped generation bump already covers.
func (s *SharingService) invalidate(asset *authz.Asset, identityType, identityID string) {
	s.cache.InvalidateAsset(asset.ID, asset.Type)
	if identityType == authz.IdentityTypeUser {
		s.cache.InvalidatePrincipal(identityID)
	}
}

func toShareDTO(row *models.AssetPermission) (ShareDTO, error) {
	role, err := authz.ParseRole(row.Role)
	if err != nil {
		return ShareDTO{}, fmt.Errorf("sharing service: grant %s: %w", row.ID, err)
	}

	dto := ShareDTO{
		ShareID:      row.ID,
		IdentityID:   row.IdentityID,
		IdentityType: row.IdentityType,
		Role:         role,
		GrantedByID:  row.GrantedByID,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Metadata) > 0 {
		meta := map[string]any{}
		if err := json.Unmarshal(row.Metadata, &meta); err == nil {
			dto.Metadata = meta
		}
	}
	return dto, nil
}
