package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/api/dashboard", middleware.RequireAuth())
	{
		dashboard.GET("/stats", h.GetStats)
	}
}

// GetStats returns aggregate business statistics for the dashboard
// @Summary      Dashboard statistics
// @Description  Returns revenue evolution, quote/invoice counts, pipeline repartition and conversion rate over the requested period
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        period  query     int  false  "Period in days (default 180)"
// @Success      200     {object}  response.Response{data=service.DashboardStats}
// @Failure      500     {object}  response.Response
// @Router       /api/dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	period, _ := strconv.Atoi(c.Query("period"))

	stats, err := h.dashboardService.GetStats(c.Request.Context(), currentUserID(c), period)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
