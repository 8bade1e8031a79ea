package models

import "encoding/json"

// Session is one taught slot in a weekly timetable.
type Session struct {
	ID        string `json:"id"`
	Formateur string `json:"formateur"`
	Groupe    string `json:"groupe"`
	Module    string `json:"module"`
	Jour      string `json:"jour"`
	Creneau   int    `json:"creneau"`
	Salle     string `json:"salle"`
}

// UnmarshalJSON accepts legacy documents where the identifier was stored
// under "sessionId" instead of "id".
func (s *Session) UnmarshalJSON(data []byte) error {
	type alias Session
	aux := struct {
		*alias
		LegacyID string `json:"sessionId"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = aux.LegacyID
	}
	return nil
}

// CloneSessions returns a shallow copy of the slice; Session has no
// reference fields so the copies are fully independent.
func CloneSessions(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)
	return out
}
