package dto

import "github.com/noah-isme/edt-api/internal/models"

// Command types accepted by the version-guarded mutation endpoint.
const (
	CommandMoveSession   = "MOVE_SESSION"
	CommandDeleteSession = "DELETE_SESSION"
	CommandInsertSession = "INSERT_SESSION"
)

// Timetable scopes addressable by read and mutation endpoints.
const (
	ScopeOfficial = "official"
	ScopeDraft    = "draft"
)

// CommandPayload carries the per-type arguments of a command.
type CommandPayload struct {
	SessionID string          `json:"sessionId,omitempty"`
	ToJour    string          `json:"toJour,omitempty"`
	ToCreneau int             `json:"toCreneau,omitempty"`
	ToSalle   string          `json:"toSalle,omitempty"`
	Session   *models.Session `json:"session,omitempty"`
}

// CommandRequest is a version-guarded mutation. ExpectedVersion is a pointer
// so a missing field is distinguishable from version zero.
type CommandRequest struct {
	CommandID       string         `json:"commandId" binding:"required"`
	ExpectedVersion *int           `json:"expectedVersion" binding:"required"`
	Type            string         `json:"type" binding:"required"`
	Payload         CommandPayload `json:"payload"`
}

// CommandResult reflects the document after a command was applied. Replayed
// commands return the outcome recorded on first execution.
type CommandResult struct {
	Version  int              `json:"version"`
	Sessions []models.Session `json:"sessions"`
	Replayed bool             `json:"replayed,omitempty"`
}

// TimetableResponse is the official read shape.
type TimetableResponse struct {
	Version  int              `json:"version"`
	Sessions []models.Session `json:"sessions"`
}

// DraftTimetableResponse is the draft read shape.
type DraftTimetableResponse struct {
	WeekStart string           `json:"week_start"`
	Revision  int              `json:"revision"`
	Version   int              `json:"version"`
	Sessions  []models.Session `json:"sessions"`
}

// AddSessionRequest is the admin direct-add payload.
type AddSessionRequest struct {
	ID        string `json:"id"`
	Formateur string `json:"formateur" binding:"required"`
	Groupe    string `json:"groupe" binding:"required"`
	Module    string `json:"module" binding:"required"`
	Jour      string `json:"jour" binding:"required"`
	Creneau   int    `json:"creneau" binding:"required"`
	Salle     string `json:"salle" binding:"required"`
}

// AddSessionResult returns the stored session and the bumped version.
type AddSessionResult struct {
	Version int            `json:"version"`
	Session models.Session `json:"session"`
}

// RoomAvailability lists free and taken physical rooms for one slot.
type RoomAvailability struct {
	Jour           string   `json:"jour"`
	Creneau        int      `json:"creneau"`
	AvailableRooms []string `json:"availableRooms"`
	OccupiedRooms  []string `json:"occupiedRooms"`
}
