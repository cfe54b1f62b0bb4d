package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodwagen/services"
)

type ActivityLogController struct {
	Svc *services.ActivityLogService
}

func NewActivityLogController(svc *services.ActivityLogService) *ActivityLogController {
	return &ActivityLogController{Svc: svc}
}

// GET /api/activity?limit=20
func (h *ActivityLogController) Recent(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	out, err := h.Svc.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/foods/:id/activity
func (h *ActivityLogController) ForFood(c *gin.Context) {
	out, err := h.Svc.ForFood(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
