package audit

import (
	"time"

	id "voicegate/pkg/domain"
)

// Event is emitted from domain logic to capture enrollment and verification
// outcomes. Biometric material never travels in an Event.
type Event struct {
	Timestamp time.Time
	ProfileID id.ProfileID
	Action    string
	Decision  string
	Reason    string
	RequestID string
	ClientIP  string
	Actor     string
}

type AuditEvent string

const (
	EventEnrollmentStarted   AuditEvent = "enrollment_started"
	EventPassphraseRejected  AuditEvent = "passphrase_rejected"
	EventPassphraseAccepted  AuditEvent = "passphrase_accepted"
	EventVoiceSampleAdded    AuditEvent = "voice_sample_added"
	EventEnrollmentFinalized AuditEvent = "enrollment_finalized"
	EventProfileRevoked      AuditEvent = "profile_revoked"
	EventVerificationDecided AuditEvent = "verification_decided"
	EventProfileLocked       AuditEvent = "profile_locked"
	EventProfileUnlocked     AuditEvent = "profile_unlocked"
)
