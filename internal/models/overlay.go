package models

// VirtualState annotates how a session would look if every pending proposal
// were approved.
type VirtualState string

const (
	VirtualNormal              VirtualState = "NORMAL"
	VirtualMovedAway           VirtualState = "MOVED_AWAY"
	VirtualToDelete            VirtualState = "TO_DELETE"
	VirtualProposedDestination VirtualState = "PROPOSED_DESTINATION"
	VirtualInserted            VirtualState = "INSERTED"
)

// VirtualSession is a session enriched with overlay annotations. The
// underscore-prefixed keys mirror the wire contract consumed by the UI.
type VirtualSession struct {
	Session
	VirtualState     VirtualState `json:"_virtualState"`
	VirtualRequestID string       `json:"_virtualRequestId,omitempty"`
}

// VirtualView separates annotated existing sessions from phantom ones that
// exist only as proposal destinations or insertions.
type VirtualView struct {
	SessionsBase  []VirtualSession `json:"sessionsBase"`
	SessionsExtra []VirtualSession `json:"sessionsExtra"`
}
