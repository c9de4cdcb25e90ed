package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/storehub/backend/internal/application/inventory"
)

// InventoryHandler serves the stock ledger
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// RecordMovement godoc
// @ID           recordStockMovement
// @Summary      Record a stock movement
// @Description  IN adds, OUT subtracts and ADJUSTMENT sets the absolute balance
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.RecordMovementRequest true "Movement"
// @Success      201 {object} APIResponse[inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Insufficient stock"
// @Security     BearerAuth
// @Router       /inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req inventoryapp.RecordMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = &userID
	movement, err := h.inventoryService.RecordMovement(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// ListMovements godoc
// @ID           listStockMovements
// @Summary      List stock movements
// @Tags         inventory
// @Produce      json
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        sale_id    query string false "Sale ID" format(uuid)
// @Param        type       query string false "IN, OUT or ADJUSTMENT"
// @Param        page       query int    false "Page" minimum(1)
// @Param        page_size  query int    false "Page size" minimum(1) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Security     BearerAuth
// @Router       /inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var filter inventoryapp.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.inventoryService.ListMovements(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// LowStock godoc
// @ID           listLowStock
// @Summary      Products at or below their minimum stock
// @Tags         inventory
// @Produce      json
// @Param        page      query int false "Page" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.LowStockItem]
// @Security     BearerAuth
// @Router       /inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.inventoryService.LowStock(c.Request.Context(), orgID, q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
