package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	activites := router.Group("/api/activites", middleware.RequireAuth())
	{
		activites.GET("", h.ListActivities)
	}
}

// ListActivities returns the caller's recent activity feed
// @Summary      List activities
// @Tags         activites
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/activites [get]
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	params := pagination.Parse(c)

	activities, total, err := h.activityService.ListActivities(c.Request.Context(), currentUserID(c), params.Page, params.Limit)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"activites": activities,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}
