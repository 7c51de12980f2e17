package handler

import (
	"github.com/gin-gonic/gin"

	apptenancy "github.com/invtrack/backend/internal/application/tenancy"
	"github.com/invtrack/backend/internal/interfaces/http/dto"
)

// TenantHandler handles tenant registration, lookup and license checks
type TenantHandler struct {
	BaseHandler
	service *apptenancy.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(service *apptenancy.TenantService) *TenantHandler {
	return &TenantHandler{service: service}
}

// Register handles POST /tenants
func (h *TenantHandler) Register(c *gin.Context) {
	var req apptenancy.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	var req dto.TenantIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid tenant id")
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CheckLicense handles GET /tenants/:id/license
func (h *TenantHandler) CheckLicense(c *gin.Context) {
	var req dto.TenantIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid tenant id")
		return
	}

	eval, err := h.service.CheckLicense(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, apptenancy.ToLicenseCheckResponse(req.ID, eval))
}
