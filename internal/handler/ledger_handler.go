package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/service"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
	"github.com/noah-isme/burs-api/pkg/response"
)

// LedgerHandler exposes the monthly scholarship ledger endpoints.
type LedgerHandler struct {
	service *service.LedgerService
}

// NewLedgerHandler constructs a ledger handler.
func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: svc}
}

// GetStudentLedger godoc
// @Summary Get a student's monthly ledger for a term
// @Tags Ledger
// @Produce json
// @Param id path string true "Term ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/students/{studentId}/ledger [get]
func (h *LedgerHandler) GetStudentLedger(c *gin.Context) {
	rows, err := h.service.GetStudentLedger(c.Request.Context(), c.Param("studentId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// GetTermLedger godoc
// @Summary Get the full term ledger
// @Tags Ledger
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/ledger [get]
func (h *LedgerHandler) GetTermLedger(c *gin.Context) {
	rows, err := h.service.ListTermLedger(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ToggleStatus godoc
// @Summary Toggle one ledger row between paid and cut
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Ledger row ID"
// @Param payload body service.ToggleLedgerRequest true "Toggle payload"
// @Success 200 {object} response.Envelope
// @Router /ledger/{id} [patch]
func (h *LedgerHandler) ToggleStatus(c *gin.Context) {
	var req service.ToggleLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.service.ToggleStatus(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// CutByDate godoc
// @Summary Cut the month a date falls into for one student
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body service.MonthCutRequest true "Cut payload"
// @Success 204
// @Router /terms/{id}/ledger/cut [post]
func (h *LedgerHandler) CutByDate(c *gin.Context) {
	var req service.MonthCutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.CutByDate(c.Request.Context(), c.Param("id"), req, currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkCutByDate godoc
// @Summary Cut a month for many students, reporting per-student outcomes
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body []service.MonthCutRequest true "Cut payloads"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/ledger/bulk-cut [post]
func (h *LedgerHandler) BulkCutByDate(c *gin.Context) {
	var reqs []service.MonthCutRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results := h.service.BulkCutByDate(c.Request.Context(), c.Param("id"), reqs, currentUserID(c))
	response.JSON(c, http.StatusOK, results, nil)
}
