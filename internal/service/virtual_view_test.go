package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edt-api/internal/models"
)

func TestBuildVirtualViewEmptyLedger(t *testing.T) {
	base := baseSessions()
	view := BuildVirtualView(base, nil)
	require.Len(t, view.SessionsBase, 3)
	require.Empty(t, view.SessionsExtra)
	for _, s := range view.SessionsBase {
		require.Equal(t, models.VirtualNormal, s.VirtualState)
		require.Empty(t, s.VirtualRequestID)
	}
}

func TestBuildVirtualViewMove(t *testing.T) {
	base := baseSessions()
	pending := []models.ChangeRequest{{
		ID:          "CR1",
		Type:        models.RequestMove,
		SessionID:   "S1",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
		NewData:     models.SessionData{Jour: "Jeudi", Creneau: 3},
	}}
	view := BuildVirtualView(base, pending)

	require.Equal(t, models.VirtualMovedAway, view.SessionsBase[0].VirtualState)
	require.Equal(t, "CR1", view.SessionsBase[0].VirtualRequestID)
	// The original slot is still shown on the base session.
	require.Equal(t, "lundi", view.SessionsBase[0].Jour)

	require.Len(t, view.SessionsExtra, 1)
	dest := view.SessionsExtra[0]
	require.Equal(t, models.VirtualProposedDestination, dest.VirtualState)
	require.Equal(t, "CR1", dest.VirtualRequestID)
	require.Equal(t, "jeudi", dest.Jour)
	require.Equal(t, 3, dest.Creneau)
	// Salle was not proposed, so it carries over.
	require.Equal(t, "A1", dest.Salle)
}

func TestBuildVirtualViewChangeRoomKeepsSlot(t *testing.T) {
	base := baseSessions()
	pending := []models.ChangeRequest{{
		ID:        "CR2",
		Type:      models.RequestChangeRoom,
		SessionID: "S2",
		Status:    models.StatusPending,
		NewData:   models.SessionData{Salle: "B7"},
	}}
	view := BuildVirtualView(base, pending)
	require.Equal(t, models.VirtualMovedAway, view.SessionsBase[1].VirtualState)
	dest := view.SessionsExtra[0]
	require.Equal(t, "lundi", dest.Jour)
	require.Equal(t, 2, dest.Creneau)
	require.Equal(t, "B7", dest.Salle)
}

func TestBuildVirtualViewDeleteAndInsert(t *testing.T) {
	base := baseSessions()
	pending := []models.ChangeRequest{
		{ID: "CR3", Type: models.RequestDelete, SessionID: "S3", Status: models.StatusPending},
		{ID: "CR4", Type: models.RequestInsert, SessionID: "TEACHER_NEW_1_ab", Status: models.StatusPending,
			NewData: models.SessionData{Formateur: "F5", Groupe: "G5", Module: "M5", Jour: "Vendredi", Creneau: 1, Salle: "C1"}},
	}
	view := BuildVirtualView(base, pending)

	require.Equal(t, models.VirtualToDelete, view.SessionsBase[2].VirtualState)
	require.Equal(t, "CR3", view.SessionsBase[2].VirtualRequestID)

	require.Len(t, view.SessionsExtra, 1)
	inserted := view.SessionsExtra[0]
	require.Equal(t, models.VirtualInserted, inserted.VirtualState)
	require.Equal(t, "TEACHER_NEW_1_ab", inserted.ID)
	require.Equal(t, "vendredi", inserted.Jour)
}

func TestBuildVirtualViewLatestPendingWins(t *testing.T) {
	base := baseSessions()
	older := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	pending := []models.ChangeRequest{
		{ID: "CR_OLD", Type: models.RequestMove, SessionID: "S1", Status: models.StatusPending, SubmittedAt: older,
			NewData: models.SessionData{Jour: "mardi", Creneau: 4}},
		{ID: "CR_NEW", Type: models.RequestDelete, SessionID: "S1", Status: models.StatusPending, SubmittedAt: newer},
	}
	view := BuildVirtualView(base, pending)
	require.Equal(t, models.VirtualToDelete, view.SessionsBase[0].VirtualState)
	require.Equal(t, "CR_NEW", view.SessionsBase[0].VirtualRequestID)
	require.Empty(t, view.SessionsExtra)
}

func TestBuildVirtualViewIgnoresDecidedRequests(t *testing.T) {
	base := baseSessions()
	pending := []models.ChangeRequest{
		{ID: "CR5", Type: models.RequestDelete, SessionID: "S1", Status: models.StatusRejected},
		{ID: "CR6", Type: models.RequestInsert, SessionID: "X", Status: models.StatusApproved,
			NewData: models.SessionData{Formateur: "F", Groupe: "G", Module: "M", Jour: "lundi", Creneau: 5, Salle: "Z"}},
	}
	view := BuildVirtualView(base, pending)
	require.Equal(t, models.VirtualNormal, view.SessionsBase[0].VirtualState)
	require.Empty(t, view.SessionsExtra)
}

func TestBuildVirtualViewUnknownTypeStaysNormal(t *testing.T) {
	base := baseSessions()
	pending := []models.ChangeRequest{{ID: "CR7", Type: "SWAP", SessionID: "S1", Status: models.StatusPending}}
	view := BuildVirtualView(base, pending)
	require.Equal(t, models.VirtualNormal, view.SessionsBase[0].VirtualState)
	require.Empty(t, view.SessionsExtra)
}

func TestBuildVirtualViewDoesNotMutateInputs(t *testing.T) {
	base := baseSessions()
	pending := []models.ChangeRequest{{ID: "CR8", Type: models.RequestMove, SessionID: "S1", Status: models.StatusPending,
		NewData: models.SessionData{Jour: "vendredi", Creneau: 1}}}
	_ = BuildVirtualView(base, pending)
	require.Equal(t, "lundi", base[0].Jour)
	require.Equal(t, models.StatusPending, pending[0].Status)
}
