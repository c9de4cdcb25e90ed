package handler

import (
	"github.com/gin-gonic/gin"

	storefrontapp "github.com/storehub/backend/internal/application/storefront"
)

// CatalogSettingsHandler lets staff configure their storefront
type CatalogSettingsHandler struct {
	BaseHandler
	settingsService *storefrontapp.SettingsService
}

// NewCatalogSettingsHandler creates a new CatalogSettingsHandler
func NewCatalogSettingsHandler(settingsService *storefrontapp.SettingsService) *CatalogSettingsHandler {
	return &CatalogSettingsHandler{settingsService: settingsService}
}

// Get godoc
// @ID           getCatalogSettings
// @Summary      Storefront settings
// @Tags         catalog-settings
// @Produce      json
// @Success      200 {object} APIResponse[storefrontapp.SettingsResponse]
// @Security     BearerAuth
// @Router       /catalog-settings [get]
func (h *CatalogSettingsHandler) Get(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	settings, err := h.settingsService.Get(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// Update godoc
// @ID           updateCatalogSettings
// @Summary      Update storefront settings
// @Description  A payment provider can only be enabled when the platform has it configured
// @Tags         catalog-settings
// @Accept       json
// @Produce      json
// @Param        request body storefrontapp.UpdateSettingsRequest true "Settings"
// @Success      200 {object} APIResponse[storefrontapp.SettingsResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog-settings [put]
func (h *CatalogSettingsHandler) Update(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var req storefrontapp.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	settings, err := h.settingsService.Update(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}
