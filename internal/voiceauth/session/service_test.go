package session

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"voicegate/internal/platform/logger"
	"voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/metrics"
	"voicegate/internal/voiceauth/models"
	profilestore "voicegate/internal/voiceauth/store/profile"
	id "voicegate/pkg/domain"
	dErrors "voicegate/pkg/domain-errors"
	"voicegate/pkg/platform/audit"
	"voicegate/pkg/platform/audit/publisher"
	"voicegate/pkg/requestcontext"
	vtestutil "voicegate/pkg/testutil"
)

var passphrase = []string{"k", "o", "n", "n", "i", "ch", "i", "w", "a", "s", "e", "k", "a", "i"}

var (
	genuineVoice   = models.Embedding{1, 0, 0, 0}
	impostorVoice  = models.Embedding{0, 1, 0, 0}
	borderingVoice = models.Embedding{0.6, 0.8, 0, 0}
)

// FlowSuite drives the service against the in-memory store.
type FlowSuite struct {
	suite.Suite
	store   *profilestore.InMemoryStore
	sink    *publisher.MemorySink
	metrics *metrics.Metrics
	cfg     *config.Config
	service *Service
	now     time.Time
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func (s *FlowSuite) SetupTest() {
	s.store = profilestore.NewInMemory()
	s.sink = publisher.NewMemorySink()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	s.cfg = config.DefaultConfig()
	s.cfg.Lockout.MaxConsecutiveFailures = 3
	s.cfg.Lockout.Duration = time.Minute
	s.cfg.Lockout.MaxDuration = 10 * time.Minute
	s.cfg.Lockout.Backoff = config.BackoffExponential
	s.rebuild()
}

func (s *FlowSuite) rebuild() {
	svc, err := New(s.store, s.cfg,
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithAuditLogger(audit.NewLogger(logger.Discard(), publisher.NewPublisher(s.sink))),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *FlowSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *FlowSuite) createProfile(status models.ProfileStatus) id.ProfileID {
	p := models.NewPendingProfile(id.NewProfileID(), s.now)
	p.ReferenceEmbeddings = []models.Embedding{genuineVoice}
	p.ReferencePhonemes = models.SequenceFromLabels(passphrase)
	p.PassphraseSamples = []models.PhonemeSequence{p.ReferencePhonemes}
	p.Status = status
	s.Require().NoError(s.store.Put(s.ctx(), p))
	return p.ID
}

func (s *FlowSuite) verify(profileID id.ProfileID, voice models.Embedding) (*Decision, error) {
	return s.service.Verify(s.ctx(), profileID, models.Utterance{
		Embedding: voice,
		Phonemes:  models.SequenceFromLabels(passphrase),
	})
}

func (s *FlowSuite) profile(profileID id.ProfileID) *models.EnrollmentProfile {
	p, err := s.store.Get(s.ctx(), profileID)
	s.Require().NoError(err)
	return p
}

func (s *FlowSuite) auditEvents(event audit.AuditEvent) int {
	n := 0
	for _, e := range s.sink.Events() {
		if e.Action == string(event) {
			n++
		}
	}
	return n
}

func (s *FlowSuite) TestBeginRejectsUnusableProfiles() {
	s.Run("unknown profile", func() {
		_, err := s.service.Begin(s.ctx(), id.NewProfileID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("nil profile id", func() {
		_, err := s.service.Begin(s.ctx(), id.ProfileID{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("pending profile", func() {
		_, err := s.service.Begin(s.ctx(), s.createProfile(models.ProfileStatusPending))
		s.True(dErrors.HasCode(err, dErrors.CodeProfileNotActive))
	})

	s.Run("revoked profile", func() {
		_, err := s.service.Begin(s.ctx(), s.createProfile(models.ProfileStatusRevoked))
		s.True(dErrors.HasCode(err, dErrors.CodeProfileNotActive))
	})
}

func (s *FlowSuite) TestGenuineSpeakerAccepted() {
	profileID := s.createProfile(models.ProfileStatusActive)

	decision, err := s.verify(profileID, genuineVoice)
	s.Require().NoError(err)
	s.Equal(models.VerdictAccept, decision.Result.Verdict)
	s.Equal(models.ReasonPassed, decision.Result.Reason)
	s.InDelta(1.0, decision.Result.SimilarityScore, 1e-9)
	s.InDelta(1.0, decision.Result.PhoneticScore, 1e-9)
	s.False(decision.SessionID.IsNil())

	s.Equal(1.0, testutil.ToFloat64(s.metrics.VerificationsTotal.WithLabelValues("accept", "and")))
	s.Equal(0.0, testutil.ToFloat64(s.metrics.OpenSessions))
	s.Equal(1, s.auditEvents(audit.EventVerificationDecided))
}

func (s *FlowSuite) TestLockoutAfterConsecutiveFailures() {
	profileID := s.createProfile(models.ProfileStatusActive)

	for i := 1; i <= 3; i++ {
		decision, err := s.verify(profileID, impostorVoice)
		s.Require().NoError(err)
		s.Equal(models.VerdictReject, decision.Result.Verdict)
		s.Equal(models.ReasonSimilarityBelow, decision.Result.Reason)
		s.Equal(i, s.profile(profileID).Attempts.ConsecutiveFailures)
	}

	locked := s.profile(profileID)
	s.Equal(models.ProfileStatusLocked, locked.Status)
	s.Require().NotNil(locked.Attempts.LockedUntil)
	s.Equal(s.now.Add(time.Minute), *locked.Attempts.LockedUntil)
	s.Equal(1, locked.Attempts.Lockouts)

	s.Run("further attempts are refused while locked", func() {
		_, err := s.verify(profileID, genuineVoice)
		s.True(dErrors.HasCode(err, dErrors.CodeProfileLocked))
		until, ok := dErrors.LockedUntil(err)
		s.True(ok)
		s.Equal(s.now.Add(time.Minute), until)
	})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.LockoutsTotal))
	s.Equal(1, s.auditEvents(audit.EventProfileLocked))
}

func (s *FlowSuite) TestLockExpiresLazilyWithBackoff() {
	profileID := s.createProfile(models.ProfileStatusActive)
	for range 3 {
		_, err := s.verify(profileID, impostorVoice)
		s.Require().NoError(err)
	}

	s.now = s.now.Add(61 * time.Second)
	sess, err := s.service.Begin(s.ctx(), profileID)
	s.Require().NoError(err)
	sess.Close()

	released := s.profile(profileID)
	s.Equal(models.ProfileStatusActive, released.Status)
	s.Nil(released.Attempts.LockedUntil)
	s.Equal(0, released.Attempts.ConsecutiveFailures)
	s.Equal(1, released.Attempts.Lockouts)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UnlocksTotal))

	for range 3 {
		_, err := s.verify(profileID, impostorVoice)
		s.Require().NoError(err)
	}
	relocked := s.profile(profileID)
	s.Equal(models.ProfileStatusLocked, relocked.Status)
	s.Equal(2, relocked.Attempts.Lockouts)
	s.Equal(s.now.Add(2*time.Minute), *relocked.Attempts.LockedUntil)
}

func (s *FlowSuite) TestAcceptResetsCounters() {
	profileID := s.createProfile(models.ProfileStatusActive)
	for range 2 {
		_, err := s.verify(profileID, impostorVoice)
		s.Require().NoError(err)
	}
	s.Equal(2, s.profile(profileID).Attempts.ConsecutiveFailures)

	decision, err := s.verify(profileID, genuineVoice)
	s.Require().NoError(err)
	s.Equal(models.VerdictAccept, decision.Result.Verdict)
	s.Equal(models.AttemptState{}, s.profile(profileID).Attempts)
}

func (s *FlowSuite) TestInconclusiveLeavesCountersUnchanged() {
	profileID := s.createProfile(models.ProfileStatusActive)
	_, err := s.verify(profileID, impostorVoice)
	s.Require().NoError(err)
	before := s.profile(profileID)

	decision, err := s.verify(profileID, borderingVoice)
	s.Require().NoError(err)
	s.Equal(models.VerdictInconclusive, decision.Result.Verdict)
	s.Equal(models.ReasonSimilarityAmbiguous, decision.Result.Reason)

	after := s.profile(profileID)
	s.Equal(1, after.Attempts.ConsecutiveFailures)
	s.Equal(before.Version, after.Version)
}

func (s *FlowSuite) TestSessionLifecycle() {
	profileID := s.createProfile(models.ProfileStatusActive)

	s.Run("evaluate after decision conflicts", func() {
		sess, err := s.service.Begin(s.ctx(), profileID)
		s.Require().NoError(err)
		defer sess.Close()
		s.Require().NoError(sess.SubmitEmbedding(genuineVoice))
		s.Require().NoError(sess.SubmitPhonemes(models.SequenceFromLabels(passphrase)))

		_, err = s.service.Evaluate(s.ctx(), sess)
		s.Require().NoError(err)
		s.Equal(StateDecided, sess.State())
		result, ok := sess.Result()
		s.True(ok)
		s.Equal(models.VerdictAccept, result.Verdict)

		_, err = s.service.Evaluate(s.ctx(), sess)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(StateClosed, sess.State())
	})

	s.Run("missing phonemes is invalid input", func() {
		sess, err := s.service.Begin(s.ctx(), profileID)
		s.Require().NoError(err)
		s.Require().NoError(sess.SubmitEmbedding(genuineVoice))

		_, err = s.service.Evaluate(s.ctx(), sess)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal(StateClosed, sess.State())
	})

	s.Run("expired session times out", func() {
		sess, err := s.service.Begin(s.ctx(), profileID)
		s.Require().NoError(err)
		s.Require().NoError(sess.SubmitEmbedding(genuineVoice))
		s.Require().NoError(sess.SubmitPhonemes(models.SequenceFromLabels(passphrase)))

		late := requestcontext.WithTime(context.Background(), s.now.Add(s.cfg.Session.TTL+time.Second))
		_, err = s.service.Evaluate(late, sess)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
		s.Equal(StateClosed, sess.State())
	})

	s.Run("submissions after close conflict", func() {
		sess, err := s.service.Begin(s.ctx(), profileID)
		s.Require().NoError(err)
		sess.Close()
		sess.Close()
		s.True(dErrors.HasCode(sess.SubmitEmbedding(genuineVoice), dErrors.CodeConflict))
	})

	s.Equal(0.0, testutil.ToFloat64(s.metrics.OpenSessions))
	s.Equal(0, s.profile(profileID).Attempts.ConsecutiveFailures)
}

func (s *FlowSuite) TestMalformedInputDoesNotCountAsFailure() {
	profileID := s.createProfile(models.ProfileStatusActive)

	s.Run("dimension mismatch", func() {
		_, err := s.verify(profileID, models.Embedding{1, 0, 0})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("phonemes made only of ignored labels", func() {
		_, err := s.service.Verify(s.ctx(), profileID, models.Utterance{
			Embedding: genuineVoice,
			Phonemes:  models.SequenceFromLabels([]string{"sil", "pau"}),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("empty embedding", func() {
		_, err := s.verify(profileID, models.Embedding{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	p := s.profile(profileID)
	s.Equal(0, p.Attempts.ConsecutiveFailures)
	s.Equal(int64(1), p.Version)
	s.Equal(3.0, testutil.ToFloat64(s.metrics.VerificationErrors.WithLabelValues(string(dErrors.CodeInvalidInput))))
}

func (s *FlowSuite) TestWeightedMode() {
	s.cfg.Decision.Mode = models.ModeWeighted
	s.rebuild()
	profileID := s.createProfile(models.ProfileStatusActive)

	decision, err := s.verify(profileID, genuineVoice)
	s.Require().NoError(err)
	s.Equal(models.ModeWeighted, decision.Result.Mode)
	s.Require().NotNil(decision.Result.CombinedScore)
	s.InDelta(1.0, *decision.Result.CombinedScore, 1e-9)
	s.Equal(models.VerdictAccept, decision.Result.Verdict)
}

func (s *FlowSuite) TestConcurrentFailuresAreAllCounted() {
	s.cfg.Lockout.MaxConsecutiveFailures = 100
	s.rebuild()
	profileID := s.createProfile(models.ProfileStatusActive)

	result := vtestutil.RunConcurrent(20, func(int) error {
		_, err := s.verify(profileID, impostorVoice)
		return err
	})

	s.Equal(int32(20), result.Successes)
	s.Equal(20, s.profile(profileID).Attempts.ConsecutiveFailures)
}

func (s *FlowSuite) TestConcurrentFailuresLockExactlyOnce() {
	profileID := s.createProfile(models.ProfileStatusActive)

	result := vtestutil.RunConcurrent(20, func(int) error {
		_, err := s.verify(profileID, impostorVoice)
		return err
	})

	s.Equal(int32(3), result.Successes)
	s.Equal(int32(17), result.Locked)
	s.Equal(int32(0), result.Errors)
	p := s.profile(profileID)
	s.Equal(1, p.Attempts.Lockouts)
	s.Equal(models.ProfileStatusLocked, p.Status)
	s.Equal(1, s.auditEvents(audit.EventProfileLocked))
}
