package models

import (
	"time"

	id "voicegate/pkg/domain"
)

type ProfileStatus string

const (
	ProfileStatusPending ProfileStatus = "pending"
	ProfileStatusActive  ProfileStatus = "active"
	ProfileStatusLocked  ProfileStatus = "locked"
	ProfileStatusRevoked ProfileStatus = "revoked"
)

func (s ProfileStatus) IsValid() bool {
	switch s {
	case ProfileStatusPending, ProfileStatusActive, ProfileStatusLocked, ProfileStatusRevoked:
		return true
	}
	return false
}

func (s ProfileStatus) String() string {
	return string(s)
}

// AttemptState tracks failed verification attempts for one profile.
// Only the authentication service mutates it.
type AttemptState struct {
	ConsecutiveFailures int
	// Lockouts counts lockouts since the last successful verification; drives backoff.
	Lockouts    int
	LockedUntil *time.Time
}

// LockActive reports whether a lock is in force at now.
func (a AttemptState) LockActive(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

func (a AttemptState) Clone() AttemptState {
	out := a
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		out.LockedUntil = &t
	}
	return out
}

// EnrollmentProfile is the persisted enrollment material and lifecycle state of a speaker.
type EnrollmentProfile struct {
	ID                  id.ProfileID
	Status              ProfileStatus
	ReferenceEmbeddings []Embedding
	ReferencePhonemes   PhonemeSequence
	PassphraseSamples   []PhonemeSequence
	Diversity           *DiversityVerdict
	Attempts            AttemptState
	CreatedAt           time.Time
	UpdatedAt           time.Time
	// Version is bumped by the store on every write; 0 means never stored.
	Version int64
}

// NewPendingProfile starts enrollment for id at now.
func NewPendingProfile(profileID id.ProfileID, now time.Time) *EnrollmentProfile {
	return &EnrollmentProfile{
		ID:        profileID,
		Status:    ProfileStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EmbeddingDimension is the dimension fixed by the first voice sample, or 0.
func (p *EnrollmentProfile) EmbeddingDimension() int {
	if len(p.ReferenceEmbeddings) == 0 {
		return 0
	}
	return len(p.ReferenceEmbeddings[0])
}

// HasPassingPassphrase reports whether a diversity-checked phoneme reference exists.
func (p *EnrollmentProfile) HasPassingPassphrase() bool {
	return len(p.ReferencePhonemes) > 0 && p.Diversity != nil && p.Diversity.Passed
}

// Clone returns a deep copy so stores never share slices with callers.
func (p *EnrollmentProfile) Clone() *EnrollmentProfile {
	if p == nil {
		return nil
	}
	out := *p
	if p.ReferenceEmbeddings != nil {
		out.ReferenceEmbeddings = make([]Embedding, len(p.ReferenceEmbeddings))
		for i, e := range p.ReferenceEmbeddings {
			out.ReferenceEmbeddings[i] = e.Clone()
		}
	}
	out.ReferencePhonemes = p.ReferencePhonemes.Clone()
	if p.PassphraseSamples != nil {
		out.PassphraseSamples = make([]PhonemeSequence, len(p.PassphraseSamples))
		for i, s := range p.PassphraseSamples {
			out.PassphraseSamples[i] = s.Clone()
		}
	}
	if p.Diversity != nil {
		d := *p.Diversity
		out.Diversity = &d
	}
	out.Attempts = p.Attempts.Clone()
	return &out
}
