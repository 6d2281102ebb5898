package session

import (
	"time"

	"voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/models"
)

type attemptChange struct {
	attempts models.AttemptState
	status   models.ProfileStatus
	changed  bool
	locked   bool
	unlocked bool
}

// nextAttemptState applies one verdict to the profile's counters.
// Accept clears everything, Reject counts toward a lockout, Inconclusive
// leaves the counters alone. A lapsed lock is released first.
func nextAttemptState(profile *models.EnrollmentProfile, verdict models.Verdict, now time.Time, lockout config.LockoutConfig) attemptChange {
	change := attemptChange{
		attempts: profile.Attempts.Clone(),
		status:   profile.Status,
	}
	if change.status == models.ProfileStatusLocked {
		change.attempts = unlockedAttempts(change.attempts)
		change.status = models.ProfileStatusActive
		change.changed = true
		change.unlocked = true
	}

	switch verdict {
	case models.VerdictAccept:
		if change.attempts.ConsecutiveFailures != 0 || change.attempts.Lockouts != 0 {
			change.attempts = models.AttemptState{}
			change.changed = true
		}
	case models.VerdictReject:
		change.attempts.ConsecutiveFailures++
		change.changed = true
		if change.attempts.ConsecutiveFailures >= lockout.MaxConsecutiveFailures {
			change.attempts.Lockouts++
			until := now.Add(lockout.For(change.attempts.Lockouts))
			change.attempts.LockedUntil = &until
			change.status = models.ProfileStatusLocked
			change.locked = true
		}
	}
	return change
}

// unlockedAttempts clears the lock and the failure streak. Lockouts is kept so
// the next lock backs off further.
func unlockedAttempts(a models.AttemptState) models.AttemptState {
	return models.AttemptState{Lockouts: a.Lockouts}
}
