package models

import (
	"strings"
	"time"

	"voicegate/pkg/validation"
)

type BeginEnrollmentRequest struct {
	ProfileID string `json:"profile_id,omitempty" validate:"omitempty,uuid"`
}

func (r *BeginEnrollmentRequest) Normalize() {
	r.ProfileID = strings.TrimSpace(r.ProfileID)
}

func (r *BeginEnrollmentRequest) Validate() error {
	return validation.Validate(r)
}

// PhonemeTokenRequest is the wire form of a PhonemeToken; times are milliseconds.
type PhonemeTokenRequest struct {
	Label      string  `json:"label" validate:"required,notblank,max=16"`
	StartMs    int64   `json:"start_ms" validate:"gte=0"`
	EndMs      int64   `json:"end_ms" validate:"gte=0"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

func toSequence(tokens []PhonemeTokenRequest) PhonemeSequence {
	out := make(PhonemeSequence, len(tokens))
	for i, t := range tokens {
		out[i] = PhonemeToken{
			Label:      strings.TrimSpace(t.Label),
			Start:      time.Duration(t.StartMs) * time.Millisecond,
			End:        time.Duration(t.EndMs) * time.Millisecond,
			Confidence: t.Confidence,
		}
	}
	return out
}

type PassphraseSampleRequest struct {
	Phonemes []PhonemeTokenRequest `json:"phonemes" validate:"required,min=1,max=512,dive"`
}

func (r *PassphraseSampleRequest) Validate() error {
	return validation.Validate(r)
}

func (r *PassphraseSampleRequest) Sequence() PhonemeSequence {
	return toSequence(r.Phonemes)
}

type VoiceSampleRequest struct {
	Embedding []float64 `json:"embedding" validate:"required,min=1,max=4096"`
}

func (r *VoiceSampleRequest) Validate() error {
	return validation.Validate(r)
}

type VerifyRequest struct {
	Embedding []float64             `json:"embedding" validate:"required,min=1,max=4096"`
	Phonemes  []PhonemeTokenRequest `json:"phonemes" validate:"required,min=1,max=512,dive"`
}

func (r *VerifyRequest) Validate() error {
	return validation.Validate(r)
}

func (r *VerifyRequest) Utterance() Utterance {
	return Utterance{
		Embedding: Embedding(r.Embedding),
		Phonemes:  toSequence(r.Phonemes),
	}
}
