package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/pkg/response"
)

type publishService interface {
	Publish(ctx context.Context, weekStart string) (*dto.PublishResult, error)
}

// PublishHandler exposes the cycle promotion endpoint.
type PublishHandler struct {
	service publishService
}

// NewPublishHandler constructs the handler.
func NewPublishHandler(service publishService) *PublishHandler {
	return &PublishHandler{service: service}
}

// Publish godoc
// @Summary Promote the draft to official and roll the cycle forward
// @Tags Publish
// @Accept json
// @Produce json
// @Param payload body dto.PublishRequest false "Week being published; omit to use the draft's week"
// @Success 200 {object} response.Envelope
// @Router /admin/publish [post]
func (h *PublishHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	_ = c.ShouldBindJSON(&req)
	result, err := h.service.Publish(c.Request.Context(), req.WeekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
