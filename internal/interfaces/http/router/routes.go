package router

import (
	"github.com/invtrack/backend/internal/interfaces/http/handler"
)

// TenantRoutes builds the tenant domain group: registration, lookup,
// license checks and the tenant-scoped tracking operations.
func TenantRoutes(tenants *handler.TenantHandler, tracking *handler.InventoryHandler) *DomainGroup {
	g := NewDomainGroup("tenants", "/tenants")
	g.POST("", tenants.Register)
	g.GET("/:id", tenants.Get)
	g.GET("/:id/license", tenants.CheckLicense)
	g.POST("/:id/movements", tracking.TrackMovement)
	g.GET("/:id/inventory", tracking.GetInventory)
	g.POST("/:id/anomalies/detect", tracking.DetectAnomaly)
	g.GET("/:id/anomalies", tracking.ListAnomalies)
	return g
}
