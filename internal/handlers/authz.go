package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkwelldata/inkwell/internal/authz"
	"github.com/inkwelldata/inkwell/internal/middleware"
	"github.com/inkwelldata/inkwell/pkg/errors"
	"github.com/inkwelldata/inkwell/pkg/response"
)

// AuthzHandler exposes permission checks and cache administration.
type AuthzHandler struct {
	resolver *authz.Resolver
}

// NewAuthzHandler constructs a handler for authorization endpoints.
func NewAuthzHandler(resolver *authz.Resolver) *AuthzHandler {
	return &AuthzHandler{resolver: resolver}
}

type checkRequest struct {
	AssetID      string `json:"asset_id" binding:"required"`
	AssetType    string `json:"asset_type" binding:"required"`
	RequiredRole string `json:"required_role" binding:"required"`
}

// POST /api/authz/check
func (h *AuthzHandler) Check(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body checkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	assetType, err := authz.ParseAssetType(strings.TrimSpace(body.AssetType))
	if err != nil {
		response.Error(c, errors.NewBadRequest("asset_type must be one of metric, dashboard, collection, chat, report, dataset"))
		return
	}
	required, err := authz.ParseRole(strings.TrimSpace(body.RequiredRole))
	if err != nil {
		response.Error(c, errors.NewBadRequest("required_role is not a recognised role"))
		return
	}

	decision, err := h.resolver.CheckPermission(c.Request.Context(), principalID, strings.TrimSpace(body.AssetID), assetType, required)
	if err != nil {
		// Inputs were validated above, so a failure here is the store, not
		// the request. Surface it as retryable rather than as a denial.
		response.Error(c, errors.ErrStoreUnavailable.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, decision)
}

// GET /api/authz/cache/stats
func (h *AuthzHandler) CacheStats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.resolver.CacheStats())
}

// POST /api/authz/cache/clear
func (h *AuthzHandler) ClearCache(c *gin.Context) {
	h.resolver.ClearCache()
	response.Success(c, http.StatusOK, gin.H{"cleared": true})
}
