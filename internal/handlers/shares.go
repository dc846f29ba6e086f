package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkwelldata/inkwell/internal/authz"
	"github.com/inkwelldata/inkwell/internal/middleware"
	"github.com/inkwelldata/inkwell/internal/services"
	"github.com/inkwelldata/inkwell/pkg/errors"
	"github.com/inkwelldata/inkwell/pkg/response"
)

// ShareHandler exposes grant and workspace-sharing management for assets.
type ShareHandler struct {
	svc *services.SharingService
}

// NewShareHandler constructs a handler for share endpoints.
func NewShareHandler(svc *services.SharingService) *ShareHandler {
	return &ShareHandler{svc: svc}
}

func assetRef(c *gin.Context) (string, authz.AssetType, error) {
	assetType, err := authz.ParseAssetType(c.Param("type"))
	if err != nil {
		return "", "", errors.NewBadRequest("unknown asset type in path")
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", "", errors.NewBadRequest("asset id is required")
	}
	return id, assetType, nil
}

// GET /api/assets/:type/:id/shares
func (h *ShareHandler) List(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	assetID, assetType, err := assetRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	shares, err := h.svc.ListShares(c.Request.Context(), principalID, assetID, assetType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, shares)
}

type upsertShareRequest struct {
	UserID   *string        `json:"user_id"`
	TeamID   *string        `json:"team_id"`
	Role     string         `json:"role" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

// PUT /api/assets/:type/:id/shares
func (h *ShareHandler) Upsert(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	assetID, assetType, err := assetRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var body upsertShareRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	role, err := authz.ParseRole(strings.TrimSpace(body.Role))
	if err != nil {
		response.Error(c, errors.NewBadRequest("role is not a recognised role"))
		return
	}

	identityType := authz.IdentityTypeUser
	identityID := ""
	if body.UserID != nil && strings.TrimSpace(*body.UserID) != "" {
		identityID = strings.TrimSpace(*body.UserID)
	} else if body.TeamID != nil && strings.TrimSpace(*body.TeamID) != "" {
		identityType = authz.IdentityTypeTeam
		identityID = strings.TrimSpace(*body.TeamID)
	} else {
		response.Error(c, errors.NewBadRequest("user_id or team_id is required"))
		return
	}

	share, err := h.svc.UpsertShare(c.Request.Context(), principalID, assetID, assetType, services.UpsertShareInput{
		IdentityType: identityType,
		IdentityID:   identityID,
		Role:         role,
		Metadata:     body.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, share)
}

// DELETE /api/assets/:type/:id/shares/:identityType/:identityID
func (h *ShareHandler) Remove(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	assetID, assetType, err := assetRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	identityType := strings.TrimSpace(c.Param("identityType"))
	if identityType != authz.IdentityTypeUser && identityType != authz.IdentityTypeTeam {
		response.Error(c, errors.NewBadRequest("identity type must be user or team"))
		return
	}
	identityID := strings.TrimSpace(c.Param("identityID"))
	if identityID == "" {
		response.Error(c, errors.NewBadRequest("identity id is required"))
		return
	}

	if err := h.svc.RemoveShare(c.Request.Context(), principalID, assetID, assetType, identityType, identityID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

type workspaceSharingRequest struct {
	WorkspaceSharing string `json:"workspace_sharing" binding:"required"`
}

// PUT /api/assets/:type/:id/workspace-sharing
func (h *ShareHandler) UpdateWorkspaceSharing(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	assetID, assetType, err := assetRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var body workspaceSharingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	sharing, err := authz.ParseWorkspaceSharing(strings.TrimSpace(body.WorkspaceSharing))
	if err != nil {
		response.Error(c, errors.NewBadRequest("workspace_sharing must be one of none, can_view, can_edit, full_access"))
		return
	}

	if err := h.svc.UpdateWorkspaceSharing(c.Request.Context(), principalID, assetID, assetType, sharing); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workspace_sharing": sharing})
}
