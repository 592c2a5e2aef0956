package chi

import (
	"time"

	"github.com/veridian-id/livegate/internal/domain"
	"github.com/veridian-id/livegate/internal/usecase/attendance"
)

// ErrorCode identifies the error class for API consumers.
type ErrorCode string

const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeCameraUnavailable  ErrorCode = "camera_unavailable"
	CodeModelNotReady      ErrorCode = "model_not_ready"
	CodeAttemptInProgress  ErrorCode = "attempt_in_progress"
	CodeDuplicateIdentity  ErrorCode = "duplicate_identity"
	CodeDuplicateFace      ErrorCode = "duplicate_face"
	CodeGatewayUnavailable ErrorCode = "gateway_unavailable"
	CodeAttemptNotFound    ErrorCode = "attempt_not_found"
	CodeNoPendingCandidate ErrorCode = "no_pending_candidate"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// EnrollRequest is the POST /enrollments payload.
type EnrollRequest struct {
	IdentityID  string `json:"identity_id" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"required,max=128"`
}

// EnrollResponse reports a completed enrollment.
type EnrollResponse struct {
	IdentityID    string `json:"identity_id"`
	DisplayName   string `json:"display_name"`
	DescriptorDim int    `json:"descriptor_dim"`
}

// CandidateDTO is the match candidate shown to the operator.
type CandidateDTO struct {
	IdentityID  string  `json:"identity_id"`
	DisplayName string  `json:"display_name"`
	Confidence  float64 `json:"confidence"`
	Distance    float64 `json:"distance"`
}

// AttemptResponse is the POST /attendance payload: a concluded or pending attempt.
type AttemptResponse struct {
	AttemptID string        `json:"attempt_id"`
	Passed    bool          `json:"passed"`
	Score     float64       `json:"score"`
	Challenge string        `json:"challenge,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Pending   bool          `json:"pending"`
	Candidate *CandidateDTO `json:"candidate,omitempty"`
}

// RecordDTO is one journal entry.
type RecordDTO struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	IdentityID    string    `json:"identity_id,omitempty"`
	DisplayName   string    `json:"display_name,omitempty"`
	LivenessScore float64   `json:"liveness_score"`
	Confidence    float64   `json:"confidence,omitempty"`
	Challenge     string    `json:"challenge,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AttemptListResponse is the GET /attempts payload.
type AttemptListResponse struct {
	Items []RecordDTO `json:"items"`
}

func attemptToDTO(a attendance.Attempt) AttemptResponse {
	resp := AttemptResponse{
		AttemptID: a.ID,
		Passed:    a.Outcome.Passed,
		Score:     a.Outcome.Score,
		Challenge: string(a.Outcome.Challenge),
		Reason:    a.Outcome.Reason,
		Pending:   a.Pending,
	}
	if a.Candidate != nil {
		resp.Candidate = &CandidateDTO{
			IdentityID:  a.Candidate.IdentityID,
			DisplayName: a.Candidate.DisplayName,
			Confidence:  a.Candidate.Confidence,
			Distance:    a.Candidate.Distance,
		}
	}
	return resp
}

func recordToDTO(rec domain.AttemptRecord) RecordDTO {
	return RecordDTO{
		ID:            rec.ID,
		Status:        string(rec.Status),
		IdentityID:    rec.IdentityID,
		DisplayName:   rec.DisplayName,
		LivenessScore: rec.LivenessScore,
		Confidence:    rec.Confidence,
		Challenge:     string(rec.Challenge),
		Reason:        rec.Reason,
		CreatedAt:     rec.CreatedAt,
	}
}
