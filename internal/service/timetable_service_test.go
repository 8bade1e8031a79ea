package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// stubTimetableStore is an in-memory timetableStore.
type stubTimetableStore struct {
	doc    *models.TimetableDocument
	writes int
}

func newStubStore(version int, sessions ...models.Session) *stubTimetableStore {
	if sessions == nil {
		sessions = []models.Session{}
	}
	return &stubTimetableStore{doc: &models.TimetableDocument{Version: version, Sessions: sessions}}
}

func (s *stubTimetableStore) Read() (*models.TimetableDocument, error) {
	return s.doc.Clone(), nil
}

func (s *stubTimetableStore) AtomicUpdate(fn func(doc *models.TimetableDocument) (*models.TimetableDocument, error)) (*models.TimetableDocument, error) {
	updated, err := fn(s.doc.Clone())
	if err != nil {
		return nil, err
	}
	s.doc = updated
	s.writes++
	return updated.Clone(), nil
}

func (s *stubTimetableStore) Path() string { return "stub" }

func (s *stubTimetableStore) Write(doc *models.TimetableDocument) error {
	s.doc = doc.Clone()
	s.writes++
	return nil
}

type stubConfigReader struct {
	cfg     *models.InstitutionConfig
	catalog *models.Catalog
}

func (s *stubConfigReader) ReadConfig() (*models.InstitutionConfig, error) {
	if s.cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "config not found")
	}
	return s.cfg, nil
}

func (s *stubConfigReader) ReadCatalog() (*models.Catalog, error) {
	if s.catalog == nil {
		return &models.Catalog{}, nil
	}
	return s.catalog, nil
}

func intPtr(v int) *int { return &v }

func newTimetableService(official, draft *stubTimetableStore, cfg *models.InstitutionConfig) *TimetableService {
	return NewTimetableService(official, draft, &stubConfigReader{cfg: cfg}, NewCommandCache(time.Minute, 16), zap.NewNop())
}

func TestTimetableServiceGetScopes(t *testing.T) {
	official := newStubStore(3, models.Session{ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1"})
	draft := newStubStore(8)
	svc := newTimetableService(official, draft, nil)

	resp, cacheHit, err := svc.Get(context.Background(), "")
	require.NoError(t, err)
	require.False(t, cacheHit)
	require.Equal(t, 3, resp.Version)
	require.Len(t, resp.Sessions, 1)

	resp, _, err = svc.Get(context.Background(), dto.ScopeDraft)
	require.NoError(t, err)
	require.Equal(t, 8, resp.Version)

	_, _, err = svc.Get(context.Background(), "weekly")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceExecuteCommandMove(t *testing.T) {
	official := newStubStore(1, models.Session{ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1"})
	svc := newTimetableService(official, newStubStore(1), nil)

	result, err := svc.ExecuteCommand(context.Background(), dto.ScopeOfficial, dto.CommandRequest{
		CommandID:       "cmd-1",
		ExpectedVersion: intPtr(1),
		Type:            dto.CommandMoveSession,
		Payload:         dto.CommandPayload{SessionID: "S1", ToJour: "Mardi", ToCreneau: 2, ToSalle: "B1"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Version)
	require.False(t, result.Replayed)
	require.Equal(t, "mardi", result.Sessions[0].Jour)
	require.Equal(t, 2, official.doc.Version)
}

func TestTimetableServiceVersionMismatchDoesNotMutate(t *testing.T) {
	official := newStubStore(5, models.Session{ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1"})
	svc := newTimetableService(official, newStubStore(1), nil)

	_, err := svc.ExecuteCommand(context.Background(), dto.ScopeOfficial, dto.CommandRequest{
		CommandID:       "cmd-2",
		ExpectedVersion: intPtr(4),
		Type:            dto.CommandDeleteSession,
		Payload:         dto.CommandPayload{SessionID: "S1"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrVersionMismatch.Code, appErr.Code)
	details, ok := appErr.Details.(appErrors.VersionDetails)
	require.True(t, ok)
	require.Equal(t, 5, details.ServerVersion)

	require.Equal(t, 5, official.doc.Version)
	require.Len(t, official.doc.Sessions, 1)
	require.Zero(t, official.writes)
}

func TestTimetableServiceReplaySkipsMutation(t *testing.T) {
	official := newStubStore(1, models.Session{ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1"})
	svc := newTimetableService(official, newStubStore(1), nil)

	req := dto.CommandRequest{
		CommandID:       "cmd-3",
		ExpectedVersion: intPtr(1),
		Type:            dto.CommandDeleteSession,
		Payload:         dto.CommandPayload{SessionID: "S1"},
	}
	first, err := svc.ExecuteCommand(context.Background(), dto.ScopeOfficial, req)
	require.NoError(t, err)
	require.Equal(t, 2, first.Version)

	// Same commandId with a stale expectedVersion replays the first outcome.
	replay, err := svc.ExecuteCommand(context.Background(), dto.ScopeOfficial, req)
	require.NoError(t, err)
	require.True(t, replay.Replayed)
	require.Equal(t, 2, replay.Version)
	require.Equal(t, 1, official.writes)
}

func TestTimetableServiceReplayIsScopedPerDocument(t *testing.T) {
	official := newStubStore(1, models.Session{ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1"})
	draft := newStubStore(1, models.Session{ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1"})
	svc := newTimetableService(official, draft, nil)

	req := dto.CommandRequest{
		CommandID:       "cmd-4",
		ExpectedVersion: intPtr(1),
		Type:            dto.CommandDeleteSession,
		Payload:         dto.CommandPayload{SessionID: "S1"},
	}
	_, err := svc.ExecuteCommand(context.Background(), dto.ScopeOfficial, req)
	require.NoError(t, err)

	result, err := svc.ExecuteCommand(context.Background(), dto.ScopeDraft, req)
	require.NoError(t, err)
	require.False(t, result.Replayed)
	require.Equal(t, 1, draft.writes)
}

func TestTimetableServiceUnknownCommand(t *testing.T) {
	official := newStubStore(1)
	svc := newTimetableService(official, newStubStore(1), nil)

	_, err := svc.ExecuteCommand(context.Background(), dto.ScopeOfficial, dto.CommandRequest{
		CommandID:       "cmd-5",
		ExpectedVersion: intPtr(1),
		Type:            "SWAP_SESSIONS",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnknownCommand.Code, appErrors.FromError(err).Code)
	require.Zero(t, official.writes)
}

func TestTimetableServiceInsertAssignsID(t *testing.T) {
	official := newStubStore(1)
	svc := newTimetableService(official, newStubStore(1), nil)

	result, err := svc.ExecuteCommand(context.Background(), dto.ScopeOfficial, dto.CommandRequest{
		CommandID:       "cmd-6",
		ExpectedVersion: intPtr(1),
		Type:            dto.CommandInsertSession,
		Payload: dto.CommandPayload{Session: &models.Session{
			Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1",
		}},
	})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
	require.Regexp(t, `^SES_\d+_[0-9a-f]{8}$`, result.Sessions[0].ID)
}

func TestTimetableServiceAddSession(t *testing.T) {
	draft := newStubStore(2)
	svc := newTimetableService(newStubStore(1), draft, nil)

	result, err := svc.AddSession(context.Background(), dto.ScopeDraft, dto.AddSessionRequest{
		Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "Lundi", Creneau: 1, Salle: "A1",
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Version)
	require.Equal(t, "lundi", result.Session.Jour)
	require.NotEmpty(t, result.Session.ID)
}

func TestTimetableServiceSessionsForGroupExpandsFusions(t *testing.T) {
	official := newStubStore(4,
		models.Session{ID: "S1", Formateur: "F1", Groupe: "DEV101_DEV102", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "TEAMS"},
		models.Session{ID: "S2", Formateur: "F2", Groupe: "DEV101", Module: "M2", Jour: "mardi", Creneau: 2, Salle: "A1"},
		models.Session{ID: "S3", Formateur: "F3", Groupe: "DEV103", Module: "M3", Jour: "mardi", Creneau: 3, Salle: "A2"},
	)
	catalogs := &stubConfigReader{catalog: &models.Catalog{
		OnlineFusions: []models.FusionGroup{{ID: "DEV101_DEV102", Groupes: []string{"DEV101", "DEV102"}}},
	}}
	svc := NewTimetableService(official, newStubStore(1), catalogs, nil, zap.NewNop())

	// DEV102 only attends through the fusion session.
	resp, err := svc.SessionsForGroup(context.Background(), dto.ScopeOfficial, "dev102")
	require.NoError(t, err)
	require.Equal(t, 4, resp.Version)
	require.Len(t, resp.Sessions, 1)
	require.Equal(t, "S1", resp.Sessions[0].ID)

	// DEV101 sees the fusion session and its own.
	resp, err = svc.SessionsForGroup(context.Background(), dto.ScopeOfficial, "DEV101")
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 2)

	_, err = svc.SessionsForGroup(context.Background(), dto.ScopeOfficial, "  ")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceAvailableRoomsExcludesVirtual(t *testing.T) {
	official := newStubStore(1, models.Session{ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1"})
	cfg := &models.InstitutionConfig{
		Jours:    []string{"lundi", "mardi"},
		Creneaux: []int{1, 2, 3, 4},
		Salles: []models.Room{
			{ID: "A1", Type: "STANDARD"},
			{ID: "B1", Type: "STANDARD"},
			{ID: "TEAMS", Type: models.RoomTypeVirtual},
		},
	}
	svc := newTimetableService(official, newStubStore(1), cfg)

	avail, err := svc.AvailableRooms(context.Background(), dto.ScopeOfficial, "Lundi", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"B1"}, avail.AvailableRooms)
	require.Equal(t, []string{"A1"}, avail.OccupiedRooms)

	_, err = svc.AvailableRooms(context.Background(), dto.ScopeOfficial, "", 1)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}
