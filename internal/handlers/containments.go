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

// ContainmentHandler manages asset placement inside container assets.
type ContainmentHandler struct {
	svc *services.ContainmentService
}

// NewContainmentHandler constructs a handler for containment endpoints.
func NewContainmentHandler(svc *services.ContainmentService) *ContainmentHandler {
	return &ContainmentHandler{svc: svc}
}

type containmentRequest struct {
	ChildID   string `json:"child_id" binding:"required"`
	ChildType string `json:"child_type" binding:"required"`
}

func (r containmentRequest) childRef() (authz.ParentRef, error) {
	childType, err := authz.ParseAssetType(strings.TrimSpace(r.ChildType))
	if err != nil {
		return authz.ParentRef{}, errors.NewBadRequest("unknown child asset type")
	}
	return authz.ParentRef{ID: strings.TrimSpace(r.ChildID), Type: childType}, nil
}

// POST /api/assets/:type/:id/children
func (h *ContainmentHandler) Add(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	parentID, parentType, err := assetRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var body containmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}
	child, err := body.childRef()
	if err != nil {
		response.Error(c, err)
		return
	}

	parent := authz.ParentRef{ID: parentID, Type: parentType}
	if err := h.svc.AddToContainer(c.Request.Context(), principalID, child, parent); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"added": true})
}

// DELETE /api/assets/:type/:id/children/:childType/:childID
func (h *ContainmentHandler) Remove(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	parentID, parentType, err := assetRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	childType, err := authz.ParseAssetType(c.Param("childType"))
	if err != nil {
		response.Error(c, errors.NewBadRequest("unknown child asset type"))
		return
	}
	childID := strings.TrimSpace(c.Param("childID"))
	if childID == "" {
		response.Error(c, errors.NewBadRequest("child id is required"))
		return
	}

	child := authz.ParentRef{ID: childID, Type: childType}
	parent := authz.ParentRef{ID: parentID, Type: parentType}
	if err := h.svc.RemoveFromContainer(c.Request.Context(), principalID, child, parent); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
