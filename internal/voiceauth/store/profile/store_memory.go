package profile

import (
	"context"
	"sync"

	"voicegate/internal/voiceauth/models"
	id "voicegate/pkg/domain"
	"voicegate/pkg/platform/sentinel"
	"voicegate/pkg/requestcontext"
)

// InMemoryStore keeps profiles in process. Every read and write copies the
// profile so callers never share slices with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.ProfileID]*models.EnrollmentProfile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[id.ProfileID]*models.EnrollmentProfile),
	}
}

func (s *InMemoryStore) Get(_ context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) Put(_ context.Context, p *models.EnrollmentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.profiles[p.ID]
	switch {
	case p.Version == 0 && exists:
		return sentinel.ErrConflict
	case p.Version != 0 && !exists:
		return sentinel.ErrNotFound
	case exists && current.Version != p.Version:
		return sentinel.ErrConflict
	}

	stored := p.Clone()
	stored.Version = p.Version + 1
	s.profiles[p.ID] = stored
	p.Version = stored.Version
	return nil
}

func (s *InMemoryStore) UpdateAttemptState(ctx context.Context, profileID id.ProfileID, expectedVersion int64, attempts models.AttemptState, status models.ProfileStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[profileID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return 0, sentinel.ErrConflict
	}

	current.Attempts = attempts.Clone()
	current.Status = status
	current.UpdatedAt = requestcontext.Now(ctx)
	current.Version++
	return current.Version, nil
}

func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}
