package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	tradeapp "github.com/storehub/backend/internal/application/trade"
)

// SaleHandler handles sale-related API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *tradeapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *tradeapp.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// ReceiptQuery selects the receipt format
type ReceiptQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=html pdf"`
}

// Create godoc
// @ID           createSale
// @Summary      Record a sale
// @Description  Allocates the next sale number and moves stock out in one transaction.
// @Description  Unit prices default to the product price.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateSaleRequest true "Sale"
// @Success      201 {object} APIResponse[tradeapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Insufficient stock"
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req tradeapp.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = &userID
	sale, err := h.saleService.Create(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetByID godoc
// @ID           getSale
// @Summary      Get a sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List godoc
// @ID           listSales
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        status      query string false "PENDING, COMPLETED or CANCELLED"
// @Param        source      query string false "ADMIN or CATALOG"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        from        query string false "First day, inclusive" format(date)
// @Param        to          query string false "Last day, inclusive" format(date)
// @Param        page        query int    false "Page" minimum(1)
// @Param        page_size   query int    false "Page size" minimum(1) maximum(100)
// @Success      200 {object} APIResponse[[]tradeapp.SaleResponse]
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var filter tradeapp.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.saleService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Cancel godoc
// @ID           cancelSale
// @Summary      Cancel a sale
// @Description  Returns the sold quantities to stock
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Already cancelled"
// @Security     BearerAuth
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.Cancel(c.Request.Context(), orgID, id, &userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Complete godoc
// @ID           completeSale
// @Summary      Mark a pending sale as paid
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Not pending"
// @Security     BearerAuth
// @Router       /sales/{id}/complete [post]
func (h *SaleHandler) Complete(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.Complete(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Receipt godoc
// @ID           saleReceipt
// @Summary      Download a receipt
// @Tags         sales
// @Produce      html
// @Produce      application/pdf
// @Param        id     path  string true  "Sale ID" format(uuid)
// @Param        format query string false "html (default) or pdf"
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var q ReceiptQuery
	if !h.bindQuery(c, &q) {
		return
	}
	if q.Format == "" {
		q.Format = tradeapp.ReceiptHTML
	}
	receipt, err := h.saleService.Receipt(c.Request.Context(), orgID, id, q.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", receipt.Filename))
	c.Data(http.StatusOK, receipt.ContentType, receipt.Body)
}
