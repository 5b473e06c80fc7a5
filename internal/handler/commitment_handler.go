package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/service"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
	"github.com/noah-isme/burs-api/pkg/response"
)

// CommitmentHandler exposes pledge endpoints.
type CommitmentHandler struct {
	service *service.CommitmentService
}

// NewCommitmentHandler constructs a commitment handler.
func NewCommitmentHandler(svc *service.CommitmentService) *CommitmentHandler {
	return &CommitmentHandler{service: svc}
}

// ListByTerm godoc
// @Summary List commitments of a term
// @Tags Commitments
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/commitments [get]
func (h *CommitmentHandler) ListByTerm(c *gin.Context) {
	commitments, err := h.service.ListByTerm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commitments, nil)
}

// Get godoc
// @Summary Get commitment by ID
// @Tags Commitments
// @Produce json
// @Param id path string true "Commitment ID"
// @Success 200 {object} response.Envelope
// @Router /commitments/{id} [get]
func (h *CommitmentHandler) Get(c *gin.Context) {
	commitment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commitment, nil)
}

// Create godoc
// @Summary Record a member's pledge for a term
// @Tags Commitments
// @Accept json
// @Produce json
// @Param payload body service.CreateCommitmentRequest true "Commitment payload"
// @Success 201 {object} response.Envelope
// @Router /commitments [post]
func (h *CommitmentHandler) Create(c *gin.Context) {
	var req service.CreateCommitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	commitment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, commitment)
}

// Update godoc
// @Summary Update a pledge
// @Tags Commitments
// @Accept json
// @Produce json
// @Param id path string true "Commitment ID"
// @Param payload body service.UpdateCommitmentRequest true "Commitment payload"
// @Success 200 {object} response.Envelope
// @Router /commitments/{id} [put]
func (h *CommitmentHandler) Update(c *gin.Context) {
	var req service.UpdateCommitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	commitment, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commitment, nil)
}

// Delete godoc
// @Summary Delete a pledge
// @Tags Commitments
// @Produce json
// @Param id path string true "Commitment ID"
// @Success 204
// @Router /commitments/{id} [delete]
func (h *CommitmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
