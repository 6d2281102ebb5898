// Package ports defines the interfaces the voiceauth services depend on.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks ProfileStore

import (
	"context"

	"voicegate/internal/voiceauth/models"
	id "voicegate/pkg/domain"
)

// ProfileStore persists enrollment profiles with optimistic concurrency on Version.
// Implementations return sentinel.ErrNotFound and sentinel.ErrConflict; services
// translate them into domain errors.
type ProfileStore interface {
	// Get returns a copy of the stored profile.
	Get(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error)

	// Put creates the profile when p.Version is 0, otherwise replaces it only if the
	// stored version equals p.Version. On success p.Version holds the new version.
	Put(ctx context.Context, p *models.EnrollmentProfile) error

	// UpdateAttemptState replaces the attempt counters and status if the stored
	// version equals expectedVersion, and returns the new version.
	UpdateAttemptState(ctx context.Context, profileID id.ProfileID, expectedVersion int64, attempts models.AttemptState, status models.ProfileStatus) (int64, error)
}
