package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/middleware"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
	"github.com/noah-isme/edt-api/pkg/response"
)

type timetableService interface {
	Get(ctx context.Context, scope string) (*dto.TimetableResponse, bool, error)
	GetDraft(ctx context.Context) (*dto.DraftTimetableResponse, error)
	ExecuteCommand(ctx context.Context, scope string, req dto.CommandRequest) (*dto.CommandResult, error)
	AddSession(ctx context.Context, scope string, req dto.AddSessionRequest) (*dto.AddSessionResult, error)
	AvailableRooms(ctx context.Context, scope, jour string, creneau int) (*dto.RoomAvailability, error)
	SessionsForGroup(ctx context.Context, scope, groupe string) (*dto.TimetableResponse, error)
}

// TimetableHandler exposes timetable reads and version-guarded mutations.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(service timetableService) *TimetableHandler {
	return &TimetableHandler{service: service}
}

// Get godoc
// @Summary Read the official timetable
// @Tags Timetable
// @Produce json
// @Param groupe query string false "Filter to one group (fusion ids expand)"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	start := time.Now()
	if groupe := c.Query("groupe"); groupe != "" {
		result, err := h.service.SessionsForGroup(c.Request.Context(), dto.ScopeOfficial, groupe)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	result, cacheHit, err := h.service.Get(c.Request.Context(), dto.ScopeOfficial)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// GetDraft godoc
// @Summary Read the draft timetable with cycle metadata
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /next-timetable [get]
func (h *TimetableHandler) GetDraft(c *gin.Context) {
	result, err := h.service.GetDraft(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExecuteCommand godoc
// @Summary Apply a version-guarded command to a timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Param scope query string false "official (default) or draft"
// @Param payload body dto.CommandRequest true "Command payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/commands [post]
func (h *TimetableHandler) ExecuteCommand(c *gin.Context) {
	var req dto.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid command payload"))
		return
	}
	result, err := h.service.ExecuteCommand(c.Request.Context(), c.Query("scope"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AddSession godoc
// @Summary Insert a session directly
// @Tags Timetable
// @Accept json
// @Produce json
// @Param scope query string false "official (default) or draft"
// @Param payload body dto.AddSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /timetable/sessions [post]
func (h *TimetableHandler) AddSession(c *gin.Context) {
	var req dto.AddSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid session payload"))
		return
	}
	result, err := h.service.AddSession(c.Request.Context(), c.Query("scope"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// AvailableRooms godoc
// @Summary List free and occupied physical rooms for one slot
// @Tags Timetable
// @Produce json
// @Param jour query string true "Day name"
// @Param creneau query int true "Slot number"
// @Param scope query string false "official (default) or draft"
// @Success 200 {object} response.Envelope
// @Router /rooms/available [get]
func (h *TimetableHandler) AvailableRooms(c *gin.Context) {
	scope := c.Query("scope")
	if scope == dto.ScopeDraft {
		claims := claimsFromContext(c)
		if claims == nil || !claims.IsAdmin() {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "scope=draft is admin-only"))
			return
		}
	}
	creneau, err := strconv.Atoi(c.Query("creneau"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "creneau must be an integer"))
		return
	}
	result, svcErr := h.service.AvailableRooms(c.Request.Context(), scope, c.Query("jour"), creneau)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
