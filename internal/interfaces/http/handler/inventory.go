package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/invtrack/backend/internal/application/inventory"
	"github.com/invtrack/backend/internal/interfaces/http/dto"
)

// InventoryHandler handles tenant-scoped tracking operations
type InventoryHandler struct {
	BaseHandler
	service *appinventory.TrackingService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service *appinventory.TrackingService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// TrackMovement handles POST /tenants/:id/movements
func (h *InventoryHandler) TrackMovement(c *gin.Context) {
	var uri dto.TenantIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid tenant id")
		return
	}
	var req appinventory.TrackMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.TrackMovement(c.Request.Context(), uri.ID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"tracked": true})
}

// GetInventory handles GET /tenants/:id/inventory
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	var uri dto.TenantIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid tenant id")
		return
	}

	lines, err := h.service.ComputeInventory(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// DetectAnomaly handles POST /tenants/:id/anomalies/detect
func (h *InventoryHandler) DetectAnomaly(c *gin.Context) {
	var uri dto.TenantIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid tenant id")
		return
	}
	var req appinventory.DetectAnomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.DetectAnomaly(c.Request.Context(), uri.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListAnomalies handles GET /tenants/:id/anomalies
func (h *InventoryHandler) ListAnomalies(c *gin.Context) {
	var uri dto.TenantIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid tenant id")
		return
	}

	anomalies, err := h.service.ListAnomalies(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, anomalies)
}
