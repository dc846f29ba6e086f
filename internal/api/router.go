package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/inkwelldata/inkwell/internal/authz"
	"github.com/inkwelldata/inkwell/internal/handlers"
	"github.com/inkwelldata/inkwell/internal/middleware"
	"github.com/inkwelldata/inkwell/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, resolver *authz.Resolver) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if resolver == nil {
		return nil, fmt.Errorf("permission resolver must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Public endpoints
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sharingService, err := services.NewSharingService(db, resolver, resolver)
	if err != nil {
		return nil, err
	}
	containmentService, err := services.NewContainmentService(db, resolver, resolver)
	if err != nil {
		return nil, err
	}

	authzHandler := handlers.NewAuthzHandler(resolver)
	shareHandler := handlers.NewShareHandler(sharingService)
	containmentHandler := handlers.NewContainmentHandler(containmentService)

	api := r.Group("/api")
	api.Use(middleware.Principal())

	authzRoutes := api.Group("/authz")
	{
		authzRoutes.POST("/check", authzHandler.Check)
		authzRoutes.GET("/cache/stats", authzHandler.CacheStats)
		authzRoutes.POST("/cache/clear", authzHandler.ClearCache)
	}

	assets := api.Group("/assets/:type/:id")
	{
		assets.GET("/shares", shareHandler.List)
		assets.PUT("/shares", shareHandler.Upsert)
		assets.DELETE("/shares/:identityType/:identityID", shareHandler.Remove)
		assets.PUT("/workspace-sharing", shareHandler.UpdateWorkspaceSharing)
		assets.POST("/children", containmentHandler.Add)
		assets.DELETE("/children/:childType/:childID", containmentHandler.Remove)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
