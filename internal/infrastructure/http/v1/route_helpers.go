package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
//
// Usage:
//
//	h := handlers.NewCatalogHandler(base, cfg)
//	RegisterCatalogRoutes(v1.Group("/warehouses"), h)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
}

// DocumentRoutes lists the handlers of a document resource. Nil handlers
// are not routed.
type DocumentRoutes struct {
	List   gin.HandlerFunc
	Create gin.HandlerFunc
	Get    gin.HandlerFunc
	Patch  gin.HandlerFunc
	Delete gin.HandlerFunc
}

// RegisterDocumentRoutes registers the routes of a document resource.
func RegisterDocumentRoutes(group *gin.RouterGroup, routes DocumentRoutes) {
	if routes.List != nil {
		group.GET("", routes.List)
	}
	if routes.Create != nil {
		group.POST("", routes.Create)
	}
	if routes.Get != nil {
		group.GET("/:id", routes.Get)
	}
	if routes.Patch != nil {
		group.PATCH("/:id", routes.Patch)
	}
	if routes.Delete != nil {
		group.DELETE("/:id", routes.Delete)
	}
}

// ChildRoutes lists the write handlers of a child record whose changes
// are propagated to derived parent fields.
type ChildRoutes struct {
	Create gin.HandlerFunc
	Update gin.HandlerFunc
	Delete gin.HandlerFunc
}

// RegisterChildRoutes registers POST, PATCH /:id and DELETE /:id.
func RegisterChildRoutes(group *gin.RouterGroup, routes ChildRoutes) {
	if routes.Create != nil {
		group.POST("", routes.Create)
	}
	if routes.Update != nil {
		group.PATCH("/:id", routes.Update)
	}
	if routes.Delete != nil {
		group.DELETE("/:id", routes.Delete)
	}
}
