package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/inkwelldata/inkwell/internal/authz"
	"github.com/inkwelldata/inkwell/internal/models"
	apperrors "github.com/inkwelldata/inkwell/pkg/errors"
)

// ContainmentService maintains the instance-level containment rows the
// cascading resolver walks: placing a metric on a dashboard, a dashboard in a
// collection and so on. Only (child, parent) type pairs declared in the
// containment graph are accepted.
type ContainmentService struct {
	db      *gorm.DB
	checker AccessChecker
	cache   Invalidator
}

// NewContainmentService constructs a ContainmentService.
func NewContainmentService(db *gorm.DB, checker AccessChecker, cache Invalidator) (*ContainmentService, error) {
	if db == nil {
		return nil, errors.New("containment service: db is required")
	}
	if checker == nil {
		return nil, errors.New("containment service: access checker is required")
	}
	if cache == nil {
		return nil, errors.New("containment service: cache invalidator is required")
	}
	return &ContainmentService{db: db, checker: checker, cache: cache}, nil
}

// AddToContainer places the child asset inside the parent. The requester
// needs can_edit on the parent. Placing an already-placed child is a no-op.
func (s *ContainmentService) AddToContainer(ctx context.Context, requesterID string, child, parent authz.ParentRef) error {
	ctx = ensureContext(ctx)

	if _, ok := authz.EdgeBetween(child.Type, parent.Type); !ok {
		return ErrContainmentNotAllowed
	}

	if err := s.ensureAssetExists(ctx, child); err != nil {
		return err
	}
	if err := s.ensureAssetExists(ctx, parent); err != nil {
		return err
	}
	if err := s.ensureEditAccess(ctx, requesterID, parent); err != nil {
		return err
	}

	requesterID = strings.TrimSpace(requesterID)
	record := models.AssetContainment{
		ParentID:   parent.ID,
		ParentType: string(parent.Type),
		ChildID:    child.ID,
		ChildType:  string(child.Type),
		AddedByID:  &requesterID,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil
		}
		return fmt.Errorf("containment service: create containment: %w", err)
	}

	// Cascading decisions for the child were computed without this edge.
	s.cache.InvalidateAsset(child.ID, child.Type)
	return nil
}

// RemoveFromContainer removes the child asset from the parent.
func (s *ContainmentService) RemoveFromContainer(ctx context.Context, requesterID string, child, parent authz.ParentRef) error {
	ctx = ensureContext(ctx)

	if err := s.ensureEditAccess(ctx, requesterID, parent); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("parent_id = ? AND parent_type = ? AND child_id = ? AND child_type = ?",
			parent.ID, string(parent.Type), child.ID, string(child.Type)).
		Delete(&models.AssetContainment{})
	if result.Error != nil {
		return fmt.Errorf("containment service: remove containment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.cache.InvalidateAsset(child.ID, child.Type)
	return nil
}

func (s *ContainmentService) ensureAssetExists(ctx context.Context, ref authz.ParentRef) error {
	var row models.Asset
	err := s.db.WithContext(ctx).
		First(&row, "id = ? AND asset_type = ?", ref.ID, string(ref.Type)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssetNotFound
	}
	if err != nil {
		return fmt.Errorf("containment service: load asset: %w", err)
	}
	if row.DeletedAt != nil {
		return ErrAssetNotFound
	}
	return nil
}

// ensureEditAccess verifies the requester may modify the container's
// contents: the owner always can, anyone else needs can_edit.
func (s *ContainmentService) ensureEditAccess(ctx context.Context, requesterID string, ref authz.ParentRef) error {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return apperrors.ErrUnauthorized
	}

	var row models.Asset
	err := s.db.WithContext(ctx).
		First(&row, "id = ? AND asset_type = ?", ref.ID, string(ref.Type)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssetNotFound
	}
	if err != nil {
		return fmt.Errorf("containment service: load asset: %w", err)
	}
	if row.DeletedAt != nil {
		return ErrAssetNotFound
	}
	if row.OwnerID == requesterID {
		return nil
	}

	decision, err := s.checker.CheckPermission(ctx, requesterID, ref.ID, ref.Type, authz.RoleCanEdit)
	if err != nil {
		return err
	}
	if !decision.HasAccess {
		return apperrors.ErrForbidden
	}
	return nil
}
