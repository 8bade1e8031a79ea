package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
	"github.com/noah-isme/edt-api/pkg/response"
)

type referenceStore interface {
	ReadConfig() (*models.InstitutionConfig, error)
	WriteConfig(cfg *models.InstitutionConfig) error
	ReadCatalog() (*models.Catalog, error)
	WriteCatalog(catalog *models.Catalog) error
	ReadSeances() ([]models.PlannedSession, error)
}

// AdminHandler exposes the reference-data surfaces: institution grid,
// catalog and planned workload.
type AdminHandler struct {
	store referenceStore
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(store referenceStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// GetConfig godoc
// @Summary Read the institution grid
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /config [get]
func (h *AdminHandler) GetConfig(c *gin.Context) {
	cfg, err := h.store.ReadConfig()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// PutConfig godoc
// @Summary Replace the institution grid
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body models.InstitutionConfig true "Grid payload"
// @Success 200 {object} response.Envelope
// @Router /admin/config [put]
func (h *AdminHandler) PutConfig(c *gin.Context) {
	var cfg models.InstitutionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid config payload"))
		return
	}
	if err := h.store.WriteConfig(&cfg); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// GetCatalog godoc
// @Summary Read the reference catalog
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *AdminHandler) GetCatalog(c *gin.Context) {
	catalog, err := h.store.ReadCatalog()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, catalog, nil)
}

// PutCatalog godoc
// @Summary Replace the reference catalog
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body models.Catalog true "Catalog payload"
// @Success 200 {object} response.Envelope
// @Router /admin/catalog [put]
func (h *AdminHandler) PutCatalog(c *gin.Context) {
	var catalog models.Catalog
	if err := c.ShouldBindJSON(&catalog); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid catalog payload"))
		return
	}
	if err := h.store.WriteCatalog(&catalog); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, catalog, nil)
}

// GetTeachers godoc
// @Summary List catalog teachers
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *AdminHandler) GetTeachers(c *gin.Context) {
	catalog, err := h.store.ReadCatalog()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, catalog.Teachers, nil)
}

// GetSeances godoc
// @Summary Read the planned workload rows
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/seances [get]
func (h *AdminHandler) GetSeances(c *gin.Context) {
	seances, err := h.store.ReadSeances()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seances, nil)
}
