package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/service"
	"github.com/noah-isme/burs-api/pkg/response"
)

// DashboardHandler exposes aggregated funding views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// TermFundingSummary godoc
// @Summary Funding summary of a term
// @Tags Dashboard
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard/terms/{termId}/funding [get]
func (h *DashboardHandler) TermFundingSummary(c *gin.Context) {
	summary, err := h.service.TermFundingSummary(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
