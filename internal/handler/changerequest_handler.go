package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
	"github.com/noah-isme/edt-api/pkg/response"
)

type changeRequestService interface {
	Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitChangeRequest) (*models.ChangeRequest, error)
	Cancel(ctx context.Context, claims *models.JWTClaims, requestID string) error
	List(ctx context.Context, filter dto.ChangeRequestFilter) ([]models.ChangeRequest, *models.Pagination, error)
	TeacherTimetable(ctx context.Context, teacherID string) (*dto.TeacherTimetableView, error)
	AdminVirtualTimetable(ctx context.Context) (*dto.VirtualTimetableView, error)
	Simulate(ctx context.Context, requestID string) (*dto.SimulationResult, error)
	Approve(ctx context.Context, requestID, decidedBy string) (*dto.ApproveResult, error)
	Reject(ctx context.Context, requestID, decidedBy, reason string) (*models.ChangeRequest, error)
}

// ChangeRequestHandler exposes the negotiation endpoints for teachers and
// admins.
type ChangeRequestHandler struct {
	service changeRequestService
}

// NewChangeRequestHandler constructs the handler.
func NewChangeRequestHandler(service changeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{service: service}
}

// Submit godoc
// @Summary Submit a change proposal against the draft
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitChangeRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Router /teacher/changes [post]
func (h *ChangeRequestHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid proposal payload"))
		return
	}
	record, err := h.service.Submit(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, record, nil)
}

// Cancel godoc
// @Summary Cancel an own pending proposal
// @Tags ChangeRequests
// @Param id path string true "Change request ID"
// @Success 204
// @Router /teacher/changes/{id} [delete]
func (h *ChangeRequestHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Cancel(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TeacherList godoc
// @Summary List the caller's proposals
// @Tags ChangeRequests
// @Produce json
// @Param status query string false "PENDING, APPROVED, REJECTED or SUPERSEDED"
// @Success 200 {object} response.Envelope
// @Router /teacher/changes [get]
func (h *ChangeRequestHandler) TeacherList(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := dto.ChangeRequestFilter{
		TeacherID: claims.UserID,
		Status:    statusFromQuery(c),
	}
	records, _, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// TeacherTimetable godoc
// @Summary Read the caller's draft sessions with the pending overlay
// @Tags ChangeRequests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/timetable [get]
func (h *ChangeRequestHandler) TeacherTimetable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.service.TeacherTimetable(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// AdminList godoc
// @Summary List proposals across all teachers
// @Tags ChangeRequests
// @Produce json
// @Param status query string false "Status filter"
// @Param teacherId query string false "Teacher filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/changes [get]
func (h *ChangeRequestHandler) AdminList(c *gin.Context) {
	filter := dto.ChangeRequestFilter{
		Status:    statusFromQuery(c),
		TeacherID: c.Query("teacherId"),
		SessionID: c.Query("sessionId"),
	}
	if raw := c.Query("page"); raw != "" {
		filter.Page, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("page_size"); raw != "" {
		filter.PageSize, _ = strconv.Atoi(raw)
	}
	records, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// AdminVirtualTimetable godoc
// @Summary Read the full draft with every pending proposal overlaid
// @Tags ChangeRequests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/timetable/virtual [get]
func (h *ChangeRequestHandler) AdminVirtualTimetable(c *gin.Context) {
	view, err := h.service.AdminVirtualTimetable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Simulate godoc
// @Summary Dry-run a pending proposal against the current draft
// @Tags ChangeRequests
// @Produce json
// @Param id path string true "Change request ID"
// @Success 200 {object} response.Envelope
// @Router /admin/changes/{id}/simulate [post]
func (h *ChangeRequestHandler) Simulate(c *gin.Context) {
	result, err := h.service.Simulate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Approve godoc
// @Summary Approve a pending proposal and commit it to the draft
// @Tags ChangeRequests
// @Produce json
// @Param id path string true "Change request ID"
// @Success 200 {object} response.Envelope
// @Router /admin/changes/{id}/approve [post]
func (h *ChangeRequestHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a pending proposal
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Param id path string true "Change request ID"
// @Param payload body dto.DecisionRequest false "Decision reason"
// @Success 200 {object} response.Envelope
// @Router /admin/changes/{id}/reject [post]
func (h *ChangeRequestHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecisionRequest
	_ = c.ShouldBindJSON(&req)
	record, err := h.service.Reject(c.Request.Context(), c.Param("id"), claims.UserID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

func statusFromQuery(c *gin.Context) models.ChangeRequestStatus {
	raw := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	if raw == "" {
		return ""
	}
	return models.ChangeRequestStatus(raw)
}
