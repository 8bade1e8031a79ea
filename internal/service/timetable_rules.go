package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// Conflict kinds reported in constraint errors.
const (
	ConflictKindTeacher = "teacher"
	ConflictKindGroup   = "group"
	ConflictKindRoom    = "room"
)

// NormalizeJour canonicalises day names for slot comparison.
func NormalizeJour(jour string) string {
	return strings.ToLower(strings.TrimSpace(jour))
}

func sameSlot(jour string, creneau int, other models.Session) bool {
	return NormalizeJour(other.Jour) == NormalizeJour(jour) && other.Creneau == creneau
}

func conflictError(kind string, other models.Session) *appErrors.Error {
	var msg string
	switch kind {
	case ConflictKindTeacher:
		msg = fmt.Sprintf("formateur %s is already teaching at this slot", other.Formateur)
	case ConflictKindGroup:
		msg = fmt.Sprintf("groupe %s already has a session at this slot", other.Groupe)
	default:
		msg = fmt.Sprintf("salle %s is already occupied at this slot", other.Salle)
	}
	return appErrors.WithDetails(appErrors.ErrConstraintConflict, msg, appErrors.ConflictDetails{
		ConflictingSessionID: other.ID,
		Kind:                 kind,
	})
}

func findSession(sessions []models.Session, sessionID string) (int, *appErrors.Error) {
	for i := range sessions {
		if sessions[i].ID == sessionID {
			return i, nil
		}
	}
	return -1, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %s not found", sessionID))
}

// ValidateMove checks whether a session can land on the target slot. The
// moving session never conflicts with itself. Conflicts are reported with a
// fixed precedence: the teacher being double-booked outranks a group clash,
// which outranks a room clash.
func ValidateMove(sessions []models.Session, sessionID, toJour string, toCreneau int, toSalle string) *appErrors.Error {
	idx, err := findSession(sessions, sessionID)
	if err != nil {
		return err
	}
	moving := sessions[idx]

	for _, other := range sessions {
		if other.ID == sessionID || !sameSlot(toJour, toCreneau, other) {
			continue
		}
		if other.Formateur == moving.Formateur {
			return conflictError(ConflictKindTeacher, other)
		}
	}
	for _, other := range sessions {
		if other.ID == sessionID || !sameSlot(toJour, toCreneau, other) {
			continue
		}
		if other.Groupe == moving.Groupe {
			return conflictError(ConflictKindGroup, other)
		}
	}
	for _, other := range sessions {
		if other.ID == sessionID || !sameSlot(toJour, toCreneau, other) {
			continue
		}
		if other.Salle == toSalle {
			return conflictError(ConflictKindRoom, other)
		}
	}
	return nil
}

// ApplyMove returns a new session list with the target slot applied. Inputs
// are never mutated.
func ApplyMove(sessions []models.Session, sessionID, toJour string, toCreneau int, toSalle string) []models.Session {
	out := models.CloneSessions(sessions)
	for i := range out {
		if out[i].ID == sessionID {
			out[i].Jour = NormalizeJour(toJour)
			out[i].Creneau = toCreneau
			out[i].Salle = toSalle
			break
		}
	}
	return out
}

// ValidateDelete checks that the session exists.
func ValidateDelete(sessions []models.Session, sessionID string) *appErrors.Error {
	_, err := findSession(sessions, sessionID)
	return err
}

// ApplyDelete returns a new session list without the named session.
func ApplyDelete(sessions []models.Session, sessionID string) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.ID != sessionID {
			out = append(out, s)
		}
	}
	return out
}

// ValidateInsert checks a fully-specified candidate against the current
// sessions. Field completeness is checked first, then id uniqueness, then
// slot conflicts with insert-specific precedence: room, then teacher, then
// group.
func ValidateInsert(sessions []models.Session, candidate models.Session) *appErrors.Error {
	missing := missingSessionFields(candidate)
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	if candidate.ID != "" {
		for _, other := range sessions {
			if other.ID == candidate.ID {
				return appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("session id %s already exists", candidate.ID))
			}
		}
	}

	for _, other := range sessions {
		if !sameSlot(candidate.Jour, candidate.Creneau, other) {
			continue
		}
		if other.Salle == candidate.Salle {
			return conflictError(ConflictKindRoom, other)
		}
	}
	for _, other := range sessions {
		if !sameSlot(candidate.Jour, candidate.Creneau, other) {
			continue
		}
		if other.Formateur == candidate.Formateur {
			return conflictError(ConflictKindTeacher, other)
		}
	}
	for _, other := range sessions {
		if !sameSlot(candidate.Jour, candidate.Creneau, other) {
			continue
		}
		if other.Groupe == candidate.Groupe {
			return conflictError(ConflictKindGroup, other)
		}
	}
	return nil
}

// ApplyInsert returns a new session list with the candidate appended. The
// caller is responsible for assigning an id beforehand.
func ApplyInsert(sessions []models.Session, candidate models.Session) []models.Session {
	out := models.CloneSessions(sessions)
	candidate.Jour = NormalizeJour(candidate.Jour)
	return append(out, candidate)
}

func missingSessionFields(s models.Session) []string {
	var missing []string
	if strings.TrimSpace(s.Formateur) == "" {
		missing = append(missing, "formateur")
	}
	if strings.TrimSpace(s.Groupe) == "" {
		missing = append(missing, "groupe")
	}
	if strings.TrimSpace(s.Module) == "" {
		missing = append(missing, "module")
	}
	if strings.TrimSpace(s.Jour) == "" {
		missing = append(missing, "jour")
	}
	if s.Creneau <= 0 {
		missing = append(missing, "creneau")
	}
	if strings.TrimSpace(s.Salle) == "" {
		missing = append(missing, "salle")
	}
	return missing
}
