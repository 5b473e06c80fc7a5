package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/service"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
	"github.com/noah-isme/burs-api/pkg/response"
)

// MeetingHandler exposes meeting and attendance endpoints.
type MeetingHandler struct {
	service *service.MeetingService
}

// NewMeetingHandler constructs a meeting handler.
func NewMeetingHandler(svc *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{service: svc}
}

// List godoc
// @Summary List meetings
// @Tags Meetings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	meetings, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meetings, nil)
}

// Get godoc
// @Summary Get meeting by ID
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id} [get]
func (h *MeetingHandler) Get(c *gin.Context) {
	meeting, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}

// GetLatest godoc
// @Summary Get the most recent meeting
// @Tags Meetings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /meetings/latest [get]
func (h *MeetingHandler) GetLatest(c *gin.Context) {
	meeting, err := h.service.GetLatest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}

// Create godoc
// @Summary Create meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body service.CreateMeetingRequest true "Meeting payload"
// @Success 201 {object} response.Envelope
// @Router /meetings [post]
func (h *MeetingHandler) Create(c *gin.Context) {
	var req service.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	meeting, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, meeting)
}

// SaveAttendance godoc
// @Summary Replace a meeting's attendance sheet
// @Tags Meetings
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param payload body service.SaveAttendanceRequest true "Attendance payload"
// @Success 204
// @Router /meetings/{id}/attendance [put]
func (h *MeetingHandler) SaveAttendance(c *gin.Context) {
	var req service.SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SaveAttendance(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAttendance godoc
// @Summary List a meeting's attendance sheet
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id}/attendance [get]
func (h *MeetingHandler) ListAttendance(c *gin.Context) {
	marks, err := h.service.ListAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}
