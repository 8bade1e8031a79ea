package dto

import "github.com/noah-isme/edt-api/internal/models"

// SubmitChangeRequest is the teacher-facing proposal payload.
type SubmitChangeRequest struct {
	Type      models.ChangeRequestType `json:"type" binding:"required"`
	SessionID string                   `json:"sessionId"`
	NewData   models.SessionData       `json:"newData"`
}

// DecisionRequest carries the admin decision metadata.
type DecisionRequest struct {
	Reason string `json:"reason"`
}

// ChangeRequestFilter narrows ledger listings.
type ChangeRequestFilter struct {
	Status    models.ChangeRequestStatus
	TeacherID string
	SessionID string
	Page      int
	PageSize  int
}

// SimulationResult is the dry-run outcome for a pending request.
type SimulationResult struct {
	RequestID         string `json:"requestId"`
	Valid             bool   `json:"valid"`
	NewVersionWouldBe int    `json:"newVersionWouldBe,omitempty"`
}

// ApproveResult reflects the committed draft plus the decided record.
type ApproveResult struct {
	Version  int                   `json:"version"`
	Sessions []models.Session      `json:"sessions"`
	Request  *models.ChangeRequest `json:"request"`
}

// DraftMeta identifies which draft cycle a view was computed against.
type DraftMeta struct {
	WeekStart string `json:"week_start"`
	Revision  int    `json:"revision"`
	Version   int    `json:"version"`
}

// TeacherTimetableView is the teacher's draft view with the pending overlay.
type TeacherTimetableView struct {
	Draft           DraftMeta              `json:"draft"`
	Sessions        []models.Session       `json:"sessions"`
	Virtual         models.VirtualView     `json:"virtual"`
	PendingRequests []models.ChangeRequest `json:"pendingRequests"`
}

// VirtualTimetableView is the admin overlay across all teachers.
type VirtualTimetableView struct {
	Draft           DraftMeta              `json:"draft"`
	Virtual         models.VirtualView     `json:"virtual"`
	PendingRequests []models.ChangeRequest `json:"pendingRequests"`
}
