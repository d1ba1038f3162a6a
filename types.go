package authsession

// Masker is implemented by richer identity objects from the protocol
// layer. The registry reduces any identity to its mask string before
// touching the map; no partial or prefix matching is performed.
type Masker interface {
	Mask() string
}

// ConfirmationStatus is the result of a confirmation attempt, letting
// callers branch without matching on errors.
type ConfirmationStatus int

const (
	// ConfirmationAccepted is an exported constant or variable used by the session registry.
	ConfirmationAccepted ConfirmationStatus = iota
	// ConfirmationNotPending is an exported constant or variable used by the session registry.
	ConfirmationNotPending
	// ConfirmationRejected is an exported constant or variable used by the session registry.
	ConfirmationRejected
)

// String describes the string operation and its observable behavior.
func (cs ConfirmationStatus) String() string {
	switch cs {
	case ConfirmationAccepted:
		return "accepted"
	case ConfirmationNotPending:
		return "not-pending"
	case ConfirmationRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Audit event types emitted by the registry.
const (
	auditSessionCreated        = "session_created"
	auditSessionReplaced       = "session_replaced"
	auditSessionStarted        = "session_started"
	auditChallengeIssued       = "confirmation_challenge"
	auditSessionConfirmed      = "session_confirmed"
	auditConfirmationRejected  = "confirmation_rejected"
	auditConfirmationThrottled = "confirmation_throttled"
	auditMaskMigrated          = "mask_migrated"
	auditMaskConflict          = "mask_migration_conflict"
	auditSessionStopped        = "session_stopped"
	auditSessionSwept          = "session_swept"
)
