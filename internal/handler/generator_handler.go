package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edt-api/internal/dto"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
	"github.com/noah-isme/edt-api/pkg/response"
)

type generatorService interface {
	Run(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResult, error)
}

// GeneratorHandler exposes the best-effort bulk generator.
type GeneratorHandler struct {
	service generatorService
}

// NewGeneratorHandler constructs the handler.
func NewGeneratorHandler(service generatorService) *GeneratorHandler {
	return &GeneratorHandler{service: service}
}

// Run godoc
// @Summary Generate a timetable from the planned workload
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Router /generate/run [post]
func (h *GeneratorHandler) Run(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "generator not enabled"))
		return
	}
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
