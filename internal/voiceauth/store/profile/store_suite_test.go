package profile

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"voicegate/internal/voiceauth/models"
	"voicegate/internal/voiceauth/ports"
	id "voicegate/pkg/domain"
	"voicegate/pkg/platform/sentinel"
	"voicegate/pkg/requestcontext"
	"voicegate/pkg/testutil"
)

// StoreContractSuite checks the behaviour every ProfileStore must share.
// Backends embed it and set newStore.
type StoreContractSuite struct {
	suite.Suite
	newStore func() ports.ProfileStore
	store    ports.ProfileStore
	ctx      context.Context
	now      time.Time
}

func (s *StoreContractSuite) SetupTest() {
	s.store = s.newStore()
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *StoreContractSuite) enrolledProfile() *models.EnrollmentProfile {
	p := models.NewPendingProfile(id.NewProfileID(), s.now)
	p.ReferenceEmbeddings = []models.Embedding{{0.1, 0.2, 0.3}, {0.3, 0.2, 0.1}}
	p.ReferencePhonemes = models.SequenceFromLabels([]string{"k", "o", "n", "i", "ch", "i", "w", "a"})
	p.PassphraseSamples = []models.PhonemeSequence{p.ReferencePhonemes}
	p.Diversity = &models.DiversityVerdict{Passed: true, Reason: models.DiversityPassed, DistinctCount: 6, Entropy: 0.9, LongestRun: 1, RunFraction: 0.125}
	p.Status = models.ProfileStatusActive
	return p
}

func (s *StoreContractSuite) TestCreateAndGet() {
	p := s.enrolledProfile()
	s.Require().NoError(s.store.Put(s.ctx, p))
	s.Equal(int64(1), p.Version)

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal(models.ProfileStatusActive, got.Status)
	s.Equal(int64(1), got.Version)
	s.Equal(p.ReferenceEmbeddings, got.ReferenceEmbeddings)
	s.Equal(p.ReferencePhonemes, got.ReferencePhonemes)
	s.Equal(p.PassphraseSamples, got.PassphraseSamples)
	s.Equal(p.Diversity, got.Diversity)
	s.True(p.CreatedAt.Equal(got.CreatedAt))
}

func (s *StoreContractSuite) TestGetUnknown() {
	_, err := s.store.Get(s.ctx, id.NewProfileID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestPutVersioning() {
	p := s.enrolledProfile()
	s.Require().NoError(s.store.Put(s.ctx, p))

	s.Run("duplicate create conflicts", func() {
		dup := p.Clone()
		dup.Version = 0
		s.ErrorIs(s.store.Put(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("stale update conflicts", func() {
		first, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		second, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)

		first.Status = models.ProfileStatusRevoked
		s.Require().NoError(s.store.Put(s.ctx, first))
		s.Equal(second.Version+1, first.Version)

		s.ErrorIs(s.store.Put(s.ctx, second), sentinel.ErrConflict)
	})

	s.Run("update of a missing profile", func() {
		ghost := s.enrolledProfile()
		ghost.Version = 3
		s.ErrorIs(s.store.Put(s.ctx, ghost), sentinel.ErrNotFound)
	})
}

func (s *StoreContractSuite) TestUpdateAttemptState() {
	p := s.enrolledProfile()
	s.Require().NoError(s.store.Put(s.ctx, p))

	until := s.now.Add(5 * time.Minute)
	attempts := models.AttemptState{ConsecutiveFailures: 5, Lockouts: 1, LockedUntil: &until}
	version, err := s.store.UpdateAttemptState(s.ctx, p.ID, p.Version, attempts, models.ProfileStatusLocked)
	s.Require().NoError(err)
	s.Equal(p.Version+1, version)

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.ProfileStatusLocked, got.Status)
	s.Equal(5, got.Attempts.ConsecutiveFailures)
	s.Equal(1, got.Attempts.Lockouts)
	s.Require().NotNil(got.Attempts.LockedUntil)
	s.True(until.Equal(*got.Attempts.LockedUntil))
	s.Equal(p.ReferenceEmbeddings, got.ReferenceEmbeddings, "enrollment material untouched")

	_, err = s.store.UpdateAttemptState(s.ctx, p.ID, p.Version, models.AttemptState{}, models.ProfileStatusActive)
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.UpdateAttemptState(s.ctx, id.NewProfileID(), 1, models.AttemptState{}, models.ProfileStatusActive)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestConcurrentWritersOnlyOneWins() {
	p := s.enrolledProfile()
	s.Require().NoError(s.store.Put(s.ctx, p))

	result := testutil.RunConcurrent(20, func(i int) error {
		attempts := models.AttemptState{ConsecutiveFailures: i + 1}
		_, err := s.store.UpdateAttemptState(s.ctx, p.ID, p.Version, attempts, models.ProfileStatusActive)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.Conflicts)
	s.Equal(int32(0), result.Errors)
}

func (s *StoreContractSuite) TestReturnedProfilesAreCopies() {
	p := s.enrolledProfile()
	s.Require().NoError(s.store.Put(s.ctx, p))

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	got.ReferenceEmbeddings[0][0] = 42

	again, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(0.1, again.ReferenceEmbeddings[0][0])
}
