package handler

import (
	"github.com/gin-gonic/gin"

	reportapp "github.com/storehub/backend/internal/application/report"
)

// DashboardHandler serves the admin dashboard summary
type DashboardHandler struct {
	BaseHandler
	dashboardService *reportapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *reportapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary godoc
// @ID           dashboardSummary
// @Summary      Dashboard summary
// @Description  Sales totals, daily series and top products for a period (default: last 30 days, max one year).
// @Description  Cancelled sales are excluded.
// @Tags         dashboard
// @Produce      json
// @Param        from query string false "First day, inclusive" format(date)
// @Param        to   query string false "Last day, inclusive" format(date)
// @Param        top  query int    false "Number of top products" minimum(1) maximum(50)
// @Success      200 {object} APIResponse[report.DashboardSummary]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var q reportapp.DashboardQuery
	if !h.bindQuery(c, &q) {
		return
	}
	summary, err := h.dashboardService.Summary(c.Request.Context(), orgID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
