package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/application/billing"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
)

// ChartsHandler serves the dashboard aggregates
type ChartsHandler struct {
	BaseHandler
	charts *billing.ChartsService
}

// NewChartsHandler creates a new charts handler
func NewChartsHandler(charts *billing.ChartsService) *ChartsHandler {
	return &ChartsHandler{charts: charts}
}

// Get returns the charts of the caller's team
// @Router /charts [get]
func (h *ChartsHandler) Get(c *gin.Context) {
	charts, err := h.charts.Charts(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, charts)
}
