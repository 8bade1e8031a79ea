package repository

import (
	"path/filepath"
	"sync"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// Reference data filenames inside the data directory.
const (
	ConfigFile  = "config.json"
	CatalogFile = "catalog.json"
	SeancesFile = "seances.json"
)

// CatalogRepository stores the institution grid, the reference catalog and
// the planned workload, each as one JSON file.
type CatalogRepository struct {
	dataDir string
	mu      sync.Mutex
}

// NewCatalogRepository builds a store rooted at dataDir.
func NewCatalogRepository(dataDir string) *CatalogRepository {
	return &CatalogRepository{dataDir: dataDir}
}

// ReadConfig loads the institution grid (jours, creneaux, salles).
func (r *CatalogRepository) ReadConfig() (*models.InstitutionConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := &models.InstitutionConfig{}
	if err := readJSONDocument(filepath.Join(r.dataDir, ConfigFile), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteConfig replaces the institution grid after shape validation.
func (r *CatalogRepository) WriteConfig(cfg *models.InstitutionConfig) error {
	if cfg == nil || len(cfg.Jours) == 0 || len(cfg.Creneaux) == 0 || len(cfg.Salles) == 0 {
		return appErrors.Clone(appErrors.ErrBadRequest, "config requires jours, creneaux and salles")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSONDocument(filepath.Join(r.dataDir, ConfigFile), cfg)
}

// ReadCatalog loads the reference catalog.
func (r *CatalogRepository) ReadCatalog() (*models.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog := &models.Catalog{}
	if err := readJSONDocument(filepath.Join(r.dataDir, CatalogFile), catalog); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			return &models.Catalog{}, nil
		}
		return nil, err
	}
	return catalog, nil
}

// WriteCatalog replaces the reference catalog.
func (r *CatalogRepository) WriteCatalog(catalog *models.Catalog) error {
	if catalog == nil {
		return appErrors.Clone(appErrors.ErrBadRequest, "catalog payload required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSONDocument(filepath.Join(r.dataDir, CatalogFile), catalog)
}

// ReadSeances loads the planned workload rows used by the bulk generator.
func (r *CatalogRepository) ReadSeances() ([]models.PlannedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var seances []models.PlannedSession
	if err := readJSONDocument(filepath.Join(r.dataDir, SeancesFile), &seances); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			return []models.PlannedSession{}, nil
		}
		return nil, err
	}
	return seances, nil
}
