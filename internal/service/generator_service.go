package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

type workloadReader interface {
	ReadConfig() (*models.InstitutionConfig, error)
	ReadSeances() ([]models.PlannedSession, error)
}

// GeneratorService fills a timetable from the planned workload with a
// greedy first-fit strategy. Best-effort: rows that fit nowhere become
// warnings, never errors.
type GeneratorService struct {
	official  timetableStore
	draft     timetableStore
	workloads workloadReader
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewGeneratorService wires the generator.
func NewGeneratorService(official, draft timetableStore, workloads workloadReader, validate *validator.Validate, logger *zap.Logger) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorService{
		official:  official,
		draft:     draft,
		workloads: workloads,
		validate:  validate,
		logger:    logger,
	}
}

// Run produces sessions for every planned row and slot that fits. With
// Apply set the result replaces the scoped document under its lock.
func (s *GeneratorService) Run(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid generate request")
	}

	cfg, err := s.workloads.ReadConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Jours) == 0 || len(cfg.Creneaux) == 0 || len(cfg.Salles) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "config requires jours, creneaux and salles")
	}
	seances, err := s.workloads.ReadSeances()
	if err != nil {
		return nil, err
	}

	sessions, warnings := s.place(cfg, seances, req.Seed)
	result := &dto.GenerateResult{Sessions: sessions, Warnings: warnings}

	if req.Apply {
		store := s.official
		if req.Scope == dto.ScopeDraft {
			store = s.draft
		}
		updated, err := store.AtomicUpdate(func(doc *models.TimetableDocument) (*models.TimetableDocument, error) {
			next := doc.Clone()
			next.Sessions = sessions
			next.Version = doc.Version + 1
			return next, nil
		})
		if err != nil {
			return nil, err
		}
		result.Applied = true
		result.Version = updated.Version
	}

	s.logger.Info("generation finished",
		zap.Int("placed", len(sessions)),
		zap.Int("unplaced", len(warnings)),
		zap.Bool("applied", result.Applied))
	return result, nil
}

func (s *GeneratorService) place(cfg *models.InstitutionConfig, seances []models.PlannedSession, seed int64) ([]models.Session, []string) {
	rooms := make([]models.Room, 0, len(cfg.Salles))
	for _, room := range cfg.Salles {
		if room.Type != models.RoomTypeVirtual {
			rooms = append(rooms, room)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	jours := append([]string(nil), cfg.Jours...)
	if seed != 0 {
		rng.Shuffle(len(jours), func(i, j int) { jours[i], jours[j] = jours[j], jours[i] })
	}

	sessions := make([]models.Session, 0)
	var warnings []string

	for _, row := range seances {
		volume := row.Volume
		if volume <= 0 {
			volume = 1
		}
		for occurrence := 0; occurrence < volume; occurrence++ {
			placed := false
		slots:
			for _, jour := range jours {
				for _, creneau := range cfg.Creneaux {
					for _, room := range rooms {
						candidate := models.Session{
							ID:        fmt.Sprintf("%s_%d", row.ID, occurrence+1),
							Formateur: row.Formateur,
							Groupe:    row.Groupe,
							Module:    row.Module,
							Jour:      NormalizeJour(jour),
							Creneau:   creneau,
							Salle:     room.ID,
						}
						if ValidateInsert(sessions, candidate) == nil {
							sessions = append(sessions, candidate)
							placed = true
							break slots
						}
					}
				}
			}
			if !placed {
				warnings = append(warnings, fmt.Sprintf("no slot found for %s (%s / %s, occurrence %d)", row.ID, row.Formateur, row.Groupe, occurrence+1))
			}
		}
	}
	return sessions, warnings
}
