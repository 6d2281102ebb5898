package models

import (
	"time"

	id "voicegate/pkg/domain"
)

// ProfileResponse summarises a profile without exposing biometric material.
type ProfileResponse struct {
	ProfileID           string            `json:"profile_id"`
	Status              ProfileStatus     `json:"status"`
	VoiceSamples        int               `json:"voice_samples"`
	PassphraseSamples   int               `json:"passphrase_samples"`
	EmbeddingDimension  int               `json:"embedding_dimension,omitempty"`
	Diversity           *DiversityVerdict `json:"diversity,omitempty"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
	LockedUntil         *time.Time        `json:"locked_until,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func NewProfileResponse(p *EnrollmentProfile) *ProfileResponse {
	return &ProfileResponse{
		ProfileID:           p.ID.String(),
		Status:              p.Status,
		VoiceSamples:        len(p.ReferenceEmbeddings),
		PassphraseSamples:   len(p.PassphraseSamples),
		EmbeddingDimension:  p.EmbeddingDimension(),
		Diversity:           p.Diversity,
		ConsecutiveFailures: p.Attempts.ConsecutiveFailures,
		LockedUntil:         p.Attempts.LockedUntil,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// PassphraseResult is returned for every submitted passphrase sample.
// A failed diversity check is a result, not an error.
type PassphraseResult struct {
	ProfileID string           `json:"profile_id"`
	Accepted  bool             `json:"accepted"`
	Diversity DiversityVerdict `json:"diversity"`
	Samples   int              `json:"samples"`
}

type VerifyResponse struct {
	ProfileID string `json:"profile_id"`
	SessionID string `json:"session_id"`
	ScoreResult
}

func NewVerifyResponse(profileID id.ProfileID, sessionID id.SessionID, result ScoreResult) *VerifyResponse {
	return &VerifyResponse{
		ProfileID:   profileID.String(),
		SessionID:   sessionID.String(),
		ScoreResult: result,
	}
}
