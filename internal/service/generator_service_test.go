package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

type stubWorkloadReader struct {
	cfg     *models.InstitutionConfig
	seances []models.PlannedSession
}

func (s *stubWorkloadReader) ReadConfig() (*models.InstitutionConfig, error) {
	if s.cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "config not found")
	}
	return s.cfg, nil
}

func (s *stubWorkloadReader) ReadSeances() ([]models.PlannedSession, error) {
	return s.seances, nil
}

func generatorFixture(official, draft *stubTimetableStore, workloads *stubWorkloadReader) *GeneratorService {
	return NewGeneratorService(official, draft, workloads, validator.New(), zap.NewNop())
}

func smallGrid() *models.InstitutionConfig {
	return &models.InstitutionConfig{
		Jours:    []string{"lundi", "mardi"},
		Creneaux: []int{1, 2},
		Salles: []models.Room{
			{ID: "A1", Type: "STANDARD"},
			{ID: "TEAMS", Type: models.RoomTypeVirtual},
		},
	}
}

func TestGeneratorPlacesWorkloadWithoutConflicts(t *testing.T) {
	workloads := &stubWorkloadReader{
		cfg: smallGrid(),
		seances: []models.PlannedSession{
			{ID: "ROW1", Formateur: "F1", Groupe: "G1", Module: "M1", Volume: 2},
			{ID: "ROW2", Formateur: "F2", Groupe: "G2", Module: "M2", Volume: 1},
		},
	}
	svc := generatorFixture(newStubStore(1), newStubStore(1), workloads)

	result, err := svc.Run(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 3)
	require.Empty(t, result.Warnings)
	require.False(t, result.Applied)

	// Every placed session validates against the others.
	for i, s := range result.Sessions {
		others := append([]models.Session{}, result.Sessions[:i]...)
		others = append(others, result.Sessions[i+1:]...)
		for _, other := range others {
			if sameSlot(s.Jour, s.Creneau, other) {
				require.NotEqual(t, s.Salle, other.Salle)
				require.NotEqual(t, s.Formateur, other.Formateur)
				require.NotEqual(t, s.Groupe, other.Groupe)
			}
		}
		// Virtual rooms are never used.
		require.NotEqual(t, "TEAMS", s.Salle)
	}
}

func TestGeneratorWarnsWhenGridIsFull(t *testing.T) {
	// One physical room over a 2x2 grid holds four sessions for one teacher
	// at most; the fifth occurrence cannot fit.
	workloads := &stubWorkloadReader{
		cfg: smallGrid(),
		seances: []models.PlannedSession{
			{ID: "ROW1", Formateur: "F1", Groupe: "G1", Module: "M1", Volume: 5},
		},
	}
	svc := generatorFixture(newStubStore(1), newStubStore(1), workloads)

	result, err := svc.Run(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 4)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "ROW1")
}

func TestGeneratorApplyBumpsVersion(t *testing.T) {
	workloads := &stubWorkloadReader{
		cfg: smallGrid(),
		seances: []models.PlannedSession{
			{ID: "ROW1", Formateur: "F1", Groupe: "G1", Module: "M1", Volume: 1},
		},
	}
	draft := newStubStore(6)
	svc := generatorFixture(newStubStore(1), draft, workloads)

	result, err := svc.Run(context.Background(), dto.GenerateRequest{Scope: dto.ScopeDraft, Apply: true})
	require.NoError(t, err)
	require.True(t, result.Applied)
	require.Equal(t, 7, result.Version)
	require.Len(t, draft.doc.Sessions, 1)
}

func TestGeneratorSeedIsDeterministic(t *testing.T) {
	workloads := &stubWorkloadReader{
		cfg: smallGrid(),
		seances: []models.PlannedSession{
			{ID: "ROW1", Formateur: "F1", Groupe: "G1", Module: "M1", Volume: 2},
		},
	}
	svc := generatorFixture(newStubStore(1), newStubStore(1), workloads)

	first, err := svc.Run(context.Background(), dto.GenerateRequest{Seed: 42})
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), dto.GenerateRequest{Seed: 42})
	require.NoError(t, err)
	require.Equal(t, first.Sessions, second.Sessions)
}

func TestGeneratorRejectsInvalidScopeAndEmptyGrid(t *testing.T) {
	workloads := &stubWorkloadReader{cfg: smallGrid()}
	svc := generatorFixture(newStubStore(1), newStubStore(1), workloads)

	_, err := svc.Run(context.Background(), dto.GenerateRequest{Scope: "weekly"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)

	workloads.cfg = &models.InstitutionConfig{}
	_, err = svc.Run(context.Background(), dto.GenerateRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}
