package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/service"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
	"github.com/noah-isme/burs-api/pkg/response"
)

// CutHandler exposes the scholarship cut rule engine.
type CutHandler struct {
	service *service.CutService
}

// NewCutHandler constructs a cut handler.
func NewCutHandler(svc *service.CutService) *CutHandler {
	return &CutHandler{service: svc}
}

// RunTranscriptCheck godoc
// @Summary Evaluate transcripts and apply scholarship cuts
// @Tags Cuts
// @Produce json
// @Param asOf query string false "Evaluation date (RFC 3339), defaults to now"
// @Success 200 {object} response.Envelope
// @Router /cuts/transcript-check [post]
func (h *CutHandler) RunTranscriptCheck(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "asOf must be RFC 3339"))
			return
		}
		asOf = parsed
	}

	result, err := h.service.RunTranscriptCheck(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RunMeetingAbsenceCheck godoc
// @Summary Cut the meeting's month for absent scholarship holders
// @Tags Cuts
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id}/absence-check [post]
func (h *CutHandler) RunMeetingAbsenceCheck(c *gin.Context) {
	result, err := h.service.RunMeetingAbsenceCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reinstate godoc
// @Summary Reinstate a cut scholarship
// @Tags Cuts
// @Produce json
// @Param id path string true "Term ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /terms/{id}/students/{studentId}/reinstate [post]
func (h *CutHandler) Reinstate(c *gin.Context) {
	if err := h.service.ReinstateStudent(c.Request.Context(), c.Param("studentId"), c.Param("id"), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
