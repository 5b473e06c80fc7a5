package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/models"
	"github.com/noah-isme/burs-api/internal/service"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
	"github.com/noah-isme/burs-api/pkg/response"
)

// TermHandler exposes term lifecycle endpoints.
type TermHandler struct {
	service *service.TermService
	configs *service.ScholarshipConfigService
}

// NewTermHandler constructs a term handler.
func NewTermHandler(svc *service.TermService, configs *service.ScholarshipConfigService) *TermHandler {
	return &TermHandler{service: svc, configs: configs}
}

// List godoc
// @Summary List terms
// @Tags Terms
// @Produce json
// @Param isActive query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *TermHandler) List(c *gin.Context) {
	var filter models.TermFilter
	if isActive := c.Query("isActive"); isActive != "" {
		if val, err := strconv.ParseBool(isActive); err == nil {
			filter.IsActive = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	terms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, pagination)
}

// GetActive godoc
// @Summary Get active term
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms/active [get]
func (h *TermHandler) GetActive(c *gin.Context) {
	term, err := h.service.GetActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Get godoc
// @Summary Get term by ID
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id} [get]
func (h *TermHandler) Get(c *gin.Context) {
	term, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// OpenNewTerm godoc
// @Summary Close the current term and open a new one
// @Tags Terms
// @Accept json
// @Produce json
// @Param payload body service.OpenTermRequest true "New term payload"
// @Success 201 {object} response.Envelope
// @Router /terms/transition [post]
func (h *TermHandler) OpenNewTerm(c *gin.Context) {
	var req service.OpenTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	term, err := h.service.OpenNewTerm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, term)
}

// SetActive godoc
// @Summary Set active term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/activate [post]
func (h *TermHandler) SetActive(c *gin.Context) {
	term, err := h.service.SetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Delete godoc
// @Summary Delete term
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 204
// @Router /terms/{id} [delete]
func (h *TermHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetConfig godoc
// @Summary Get term scholarship config
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/config [get]
func (h *TermHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configs.GetOrCreate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// SetYearlyAmount godoc
// @Summary Set the term's yearly scholarship amount
// @Tags Terms
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body service.SetYearlyAmountRequest true "Yearly amount"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/config/yearly [put]
func (h *TermHandler) SetYearlyAmount(c *gin.Context) {
	var req service.SetYearlyAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cfg, err := h.configs.SetYearly(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// SetMonthlyAmount godoc
// @Summary Set the term's monthly scholarship amount
// @Tags Terms
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body service.SetMonthlyAmountRequest true "Monthly amount"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/config/monthly [put]
func (h *TermHandler) SetMonthlyAmount(c *gin.Context) {
	var req service.SetMonthlyAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cfg, err := h.configs.SetMonthly(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
