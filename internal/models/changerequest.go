package models

import "time"

// ChangeRequestType enumerates what a teacher may propose.
type ChangeRequestType string

const (
	RequestMove       ChangeRequestType = "MOVE"
	RequestChangeRoom ChangeRequestType = "CHANGE_ROOM"
	RequestDelete     ChangeRequestType = "DELETE"
	RequestInsert     ChangeRequestType = "INSERT"
)

// Supersedes reports whether a new pending request of this type replaces an
// earlier pending one targeting the same session. INSERT requests target
// fresh session ids, so several may coexist.
func (t ChangeRequestType) Supersedes() bool {
	return t == RequestMove || t == RequestChangeRoom || t == RequestDelete
}

// Valid reports whether the type is one of the known proposals.
func (t ChangeRequestType) Valid() bool {
	switch t {
	case RequestMove, RequestChangeRoom, RequestDelete, RequestInsert:
		return true
	}
	return false
}

// ChangeRequestStatus is the lifecycle state of a ledger record.
type ChangeRequestStatus string

const (
	StatusPending    ChangeRequestStatus = "PENDING"
	StatusApproved   ChangeRequestStatus = "APPROVED"
	StatusRejected   ChangeRequestStatus = "REJECTED"
	StatusSuperseded ChangeRequestStatus = "SUPERSEDED"
)

// SessionData captures the slot fields referenced by a proposal. Only the
// fields meaningful for the request type are set.
type SessionData struct {
	Jour      string `json:"jour,omitempty"`
	Creneau   int    `json:"creneau,omitempty"`
	Salle     string `json:"salle,omitempty"`
	Formateur string `json:"formateur,omitempty"`
	Groupe    string `json:"groupe,omitempty"`
	Module    string `json:"module,omitempty"`
	Motif     string `json:"motif,omitempty"`
}

// ChangeRequest is one ledger record.
type ChangeRequest struct {
	ID             string              `json:"id"`
	Type           ChangeRequestType   `json:"type"`
	SessionID      string              `json:"sessionId"`
	TeacherID      string              `json:"teacherId"`
	OldData        SessionData         `json:"oldData"`
	NewData        SessionData         `json:"newData"`
	Status         ChangeRequestStatus `json:"status"`
	SubmittedAt    time.Time           `json:"submittedAt"`
	DecidedAt      *time.Time          `json:"decidedAt,omitempty"`
	DecidedBy      string              `json:"decidedBy,omitempty"`
	DecisionReason string              `json:"decisionReason,omitempty"`
}

// ChangeRequestLedger is the on-disk shape of the request file.
type ChangeRequestLedger struct {
	Requests []ChangeRequest `json:"requests"`
}
