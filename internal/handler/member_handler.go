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

// MemberHandler exposes foundation member endpoints.
type MemberHandler struct {
	service     *service.MemberService
	commitments *service.CommitmentService
}

// NewMemberHandler constructs a member handler.
func NewMemberHandler(svc *service.MemberService, commitments *service.CommitmentService) *MemberHandler {
	return &MemberHandler{service: svc, commitments: commitments}
}

// List godoc
// @Summary List members
// @Tags Members
// @Produce json
// @Param search query string false "Search by name or email"
// @Param scholarshipProvider query bool false "Filter scholarship providers"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /members [get]
func (h *MemberHandler) List(c *gin.Context) {
	var filter models.MemberFilter
	filter.Search = c.Query("search")
	if provider := c.Query("scholarshipProvider"); provider != "" {
		if val, err := strconv.ParseBool(provider); err == nil {
			filter.ScholarshipProvider = &val
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

	members, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, pagination)
}

// Get godoc
// @Summary Get member by ID
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Create member
// @Tags Members
// @Accept json
// @Produce json
// @Param payload body service.MemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Router /members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var req service.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update member
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body service.MemberRequest true "Member payload"
// @Success 200 {object} response.Envelope
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *gin.Context) {
	var req service.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Delete godoc
// @Summary Delete member
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 204
// @Router /members/{id} [delete]
func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCommitments godoc
// @Summary List a member's commitments across terms
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/commitments [get]
func (h *MemberHandler) ListCommitments(c *gin.Context) {
	commitments, err := h.commitments.ListByMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commitments, nil)
}
