package service

import "github.com/noah-isme/edt-api/internal/models"

// BuildVirtualView computes the "what if everything pending were approved"
// overlay. Pure: inputs are never mutated and the output depends only on the
// arguments. When several pending requests target the same session the
// latest submission wins.
func BuildVirtualView(base []models.Session, pending []models.ChangeRequest) models.VirtualView {
	bySession := make(map[string]models.ChangeRequest, len(pending))
	for _, req := range pending {
		if req.Status != models.StatusPending {
			continue
		}
		current, seen := bySession[req.SessionID]
		if !seen || req.SubmittedAt.After(current.SubmittedAt) {
			bySession[req.SessionID] = req
		}
	}

	view := models.VirtualView{
		SessionsBase:  make([]models.VirtualSession, 0, len(base)),
		SessionsExtra: make([]models.VirtualSession, 0),
	}

	for _, session := range base {
		annotated := models.VirtualSession{Session: session, VirtualState: models.VirtualNormal}
		req, ok := bySession[session.ID]
		if ok {
			switch req.Type {
			case models.RequestMove, models.RequestChangeRoom:
				annotated.VirtualState = models.VirtualMovedAway
				annotated.VirtualRequestID = req.ID
				view.SessionsExtra = append(view.SessionsExtra, proposedDestination(session, req))
			case models.RequestDelete:
				annotated.VirtualState = models.VirtualToDelete
				annotated.VirtualRequestID = req.ID
			}
			// Unknown request types leave the session annotated NORMAL.
		}
		view.SessionsBase = append(view.SessionsBase, annotated)
	}

	for _, req := range pending {
		if req.Status != models.StatusPending || req.Type != models.RequestInsert {
			continue
		}
		view.SessionsExtra = append(view.SessionsExtra, models.VirtualSession{
			Session: models.Session{
				ID:        req.SessionID,
				Formateur: req.NewData.Formateur,
				Groupe:    req.NewData.Groupe,
				Module:    req.NewData.Module,
				Jour:      NormalizeJour(req.NewData.Jour),
				Creneau:   req.NewData.Creneau,
				Salle:     req.NewData.Salle,
			},
			VirtualState:     models.VirtualInserted,
			VirtualRequestID: req.ID,
		})
	}

	return view
}

// proposedDestination projects the session onto the slot a MOVE or
// CHANGE_ROOM proposal targets, falling back to current values for fields
// the proposal leaves unset.
func proposedDestination(session models.Session, req models.ChangeRequest) models.VirtualSession {
	dest := session
	if req.NewData.Jour != "" {
		dest.Jour = NormalizeJour(req.NewData.Jour)
	}
	if req.NewData.Creneau > 0 {
		dest.Creneau = req.NewData.Creneau
	}
	if req.NewData.Salle != "" {
		dest.Salle = req.NewData.Salle
	}
	return models.VirtualSession{
		Session:          dest,
		VirtualState:     models.VirtualProposedDestination,
		VirtualRequestID: req.ID,
	}
}
