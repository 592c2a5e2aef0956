package domain

import "time"

// AttemptStatus is the final disposition of a concluded attempt.
type AttemptStatus string

// Attempt dispositions recorded in the journal.
const (
	// AttemptConfirmed is an operator-confirmed attendance record.
	AttemptConfirmed AttemptStatus = "confirmed"
	// AttemptRejected is an operator-rejected match candidate.
	AttemptRejected AttemptStatus = "rejected"
	// AttemptFailed is a liveness verification failure.
	AttemptFailed AttemptStatus = "failed"
	// AttemptNoMatch is a passed verification the gateway could not match.
	AttemptNoMatch AttemptStatus = "no_match"
	// AttemptEnrolled is a completed enrollment session.
	AttemptEnrolled AttemptStatus = "enrolled"
)

// AttemptRecord is one journal entry: the audit trail of a concluded
// attendance or enrollment attempt.
type AttemptRecord struct {
	ID            string        `json:"id"`
	Status        AttemptStatus `json:"status"`
	IdentityID    string        `json:"identity_id,omitempty"`
	DisplayName   string        `json:"display_name,omitempty"`
	LivenessScore float64       `json:"liveness_score,omitempty"`
	Confidence    float64       `json:"confidence,omitempty"`
	Distance      float64       `json:"distance,omitempty"`
	Challenge     ChallengeKind `json:"challenge,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
