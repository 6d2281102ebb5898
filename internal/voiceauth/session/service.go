// Package session runs verification attempts against enrolled profiles and
// owns the lockout bookkeeping that follows each decision.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voicegate/internal/platform/tracer"
	"voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/decision"
	"voicegate/internal/voiceauth/metrics"
	"voicegate/internal/voiceauth/models"
	"voicegate/internal/voiceauth/phonetic"
	"voicegate/internal/voiceauth/ports"
	"voicegate/internal/voiceauth/similarity"
	id "voicegate/pkg/domain"
	dErrors "voicegate/pkg/domain-errors"
	"voicegate/pkg/platform/audit"
	"voicegate/pkg/platform/sentinel"
	vsync "voicegate/pkg/platform/sync"
	"voicegate/pkg/requestcontext"
)

// Service is the only writer of a profile's AttemptState.
type Service struct {
	store   ports.ProfileStore
	cfg     *config.Config
	scorer  *similarity.Scorer
	aligner *phonetic.Aligner
	policy  *decision.Policy
	locks   *vsync.KeyedMutex
	logger  *slog.Logger
	auditor *audit.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditLogger(auditor *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithLocks shares the per-profile mutex with other writers of the same store.
func WithLocks(locks *vsync.KeyedMutex) Option {
	return func(s *Service) {
		s.locks = locks
	}
}

func New(store ports.ProfileStore, cfg *config.Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("profile store is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	svc := &Service{
		store:  store,
		cfg:    cfg,
		scorer: similarity.NewScorer(),
		aligner: phonetic.NewAligner(phonetic.AlignerConfig{
			SameClassCost:          cfg.Phonetic.SameClassCost,
			LowConfidenceThreshold: cfg.Phonetic.LowConfidenceThreshold,
			ConfidenceDiscount:     cfg.Phonetic.ConfidenceDiscount,
			Ignored:                cfg.IgnoredSet(),
		}),
		policy: decision.NewPolicy(decision.Config{
			Mode:                cfg.Decision.Mode,
			SimilarityThreshold: cfg.Similarity.Threshold,
			PhraseThreshold:     cfg.Phonetic.Threshold,
			Weight:              cfg.Decision.Weight,
			CombinedThreshold:   cfg.Decision.CombinedThreshold,
			AmbiguityBand:       cfg.Decision.AmbiguityBand,
		}),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.locks == nil {
		svc.locks = vsync.NewKeyedMutex()
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc, nil
}

// Begin opens a session for an active profile. A lock whose cool-down has
// elapsed is cleared here before the session opens.
func (s *Service) Begin(ctx context.Context, profileID id.ProfileID) (sess *Session, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanBegin, tracer.String(tracer.AttrProfileID, profileID.String()))
	defer func() { span.End(err) }()

	if profileID.IsNil() {
		return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}

	s.locks.Lock(profileID.String())
	defer s.locks.Unlock(profileID.String())

	now := requestcontext.Now(ctx)
	if _, err := s.releaseExpiredLock(ctx, profileID, now); err != nil {
		s.countError(err)
		return nil, err
	}

	sess = newSession(profileID, now, s.sessionClosed)
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	span.SetAttributes(tracer.String(tracer.AttrSessionID, sess.ID.String()))
	return sess, nil
}

// Evaluate scores the session inputs against the profile, decides, and
// persists the resulting attempt bookkeeping. The session is closed on every
// error path; on success it stays decided until the caller closes it.
func (s *Service) Evaluate(ctx context.Context, sess *Session) (result models.ScoreResult, err error) {
	if sess == nil {
		return models.ScoreResult{}, dErrors.New(dErrors.CodeInvalidInput, "session is required")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanEvaluate,
		tracer.String(tracer.AttrProfileID, sess.ProfileID.String()),
		tracer.String(tracer.AttrSessionID, sess.ID.String()),
	)
	defer func() { span.End(err) }()
	defer func() {
		if err != nil {
			s.countError(err)
			sess.Close()
		}
	}()

	now := requestcontext.Now(ctx)
	if now.Sub(sess.StartedAt) > s.cfg.Session.TTL {
		return models.ScoreResult{}, dErrors.New(dErrors.CodeTimeout, "session expired")
	}
	utterance, err := sess.startScoring()
	if err != nil {
		return models.ScoreResult{}, err
	}

	s.locks.Lock(sess.ProfileID.String())
	defer s.locks.Unlock(sess.ProfileID.String())

	started := time.Now()
	for attempt := 0; ; attempt++ {
		profile, err := s.activeProfile(ctx, sess.ProfileID, now)
		if err != nil {
			return models.ScoreResult{}, err
		}

		result, err = s.score(ctx, profile, utterance)
		if err != nil {
			return models.ScoreResult{}, err
		}

		change := nextAttemptState(profile, result.Verdict, now, s.cfg.Lockout)
		if !change.changed {
			break
		}
		_, err = s.store.UpdateAttemptState(ctx, profile.ID, profile.Version, change.attempts, change.status)
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncrementStoreConflicts()
			}
			if attempt >= s.cfg.Session.ConflictRetries {
				span.SetAttributes(tracer.Int64(tracer.AttrConflictRetries, int64(attempt)))
				return models.ScoreResult{}, dErrors.New(dErrors.CodeConflict, "profile changed concurrently")
			}
			continue
		}
		if err != nil {
			return models.ScoreResult{}, s.translateStoreError(err, "failed to record attempt")
		}
		s.reportTransition(ctx, span, profile.ID, change)
		break
	}

	sess.decide(result)
	span.SetAttributes(
		tracer.Float64(tracer.AttrSimilarityScore, result.SimilarityScore),
		tracer.Float64(tracer.AttrPhoneticScore, result.PhoneticScore),
		tracer.String(tracer.AttrVerdict, result.Verdict.String()),
		tracer.String(tracer.AttrReason, string(result.Reason)),
		tracer.String(tracer.AttrMode, string(result.Mode)),
	)
	if s.metrics != nil {
		s.metrics.ObserveDecision(result.Verdict.String(), string(result.Mode), result.SimilarityScore, result.PhoneticScore, time.Since(started))
	}
	s.auditor.Record(ctx, audit.EventVerificationDecided, sess.ProfileID, result.Verdict.String(), string(result.Reason),
		"session_id", sess.ID.String(),
		"similarity_score", result.SimilarityScore,
		"phonetic_score", result.PhoneticScore,
	)
	return result, nil
}

// Decision is the outcome of a one-shot verification.
type Decision struct {
	SessionID id.SessionID
	ProfileID id.ProfileID
	Result    models.ScoreResult
}

// Verify begins a session, submits the utterance, evaluates it and closes the session.
func (s *Service) Verify(ctx context.Context, profileID id.ProfileID, utterance models.Utterance) (*Decision, error) {
	sess, err := s.Begin(ctx, profileID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := sess.SubmitEmbedding(utterance.Embedding); err != nil {
		s.countError(err)
		return nil, err
	}
	if err := sess.SubmitPhonemes(utterance.Phonemes); err != nil {
		s.countError(err)
		return nil, err
	}
	result, err := s.Evaluate(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &Decision{SessionID: sess.ID, ProfileID: profileID, Result: result}, nil
}

func (s *Service) score(ctx context.Context, profile *models.EnrollmentProfile, utterance models.Utterance) (models.ScoreResult, error) {
	_, voiceSpan := s.tracer.Start(ctx, tracer.SpanScoreVoice)
	sim, err := s.scorer.Score(utterance.Embedding, profile.ReferenceEmbeddings)
	voiceSpan.End(err)
	if err != nil {
		return models.ScoreResult{}, err
	}

	_, phraseSpan := s.tracer.Start(ctx, tracer.SpanScorePhrase)
	phon, err := s.aligner.Score(utterance.Phonemes, profile.ReferencePhonemes)
	phraseSpan.End(err)
	if err != nil {
		return models.ScoreResult{}, err
	}
	return s.policy.Decide(sim, phon), nil
}

// activeProfile loads the profile and rejects anything that cannot be verified
// at now. A Locked profile whose cool-down has elapsed counts as active; the
// unlock is written together with the attempt outcome.
func (s *Service) activeProfile(ctx context.Context, profileID id.ProfileID, now time.Time) (*models.EnrollmentProfile, error) {
	profile, err := s.store.Get(ctx, profileID)
	if err != nil {
		return nil, s.translateStoreError(err, "failed to load profile")
	}
	switch profile.Status {
	case models.ProfileStatusActive:
		return profile, nil
	case models.ProfileStatusLocked:
		if profile.Attempts.LockActive(now) {
			return nil, lockedError(profile)
		}
		return profile, nil
	default:
		return nil, dErrors.New(dErrors.CodeProfileNotActive, fmt.Sprintf("profile is %s", profile.Status))
	}
}

// releaseExpiredLock persists the unlock of a lapsed lock so readers observe Active.
func (s *Service) releaseExpiredLock(ctx context.Context, profileID id.ProfileID, now time.Time) (*models.EnrollmentProfile, error) {
	for attempt := 0; ; attempt++ {
		profile, err := s.activeProfile(ctx, profileID, now)
		if err != nil {
			return nil, err
		}
		if profile.Status != models.ProfileStatusLocked {
			return profile, nil
		}

		attempts := unlockedAttempts(profile.Attempts)
		version, err := s.store.UpdateAttemptState(ctx, profileID, profile.Version, attempts, models.ProfileStatusActive)
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncrementStoreConflicts()
			}
			if attempt >= s.cfg.Session.ConflictRetries {
				return nil, dErrors.New(dErrors.CodeConflict, "profile changed concurrently")
			}
			continue
		}
		if err != nil {
			return nil, s.translateStoreError(err, "failed to release lock")
		}

		if s.metrics != nil {
			s.metrics.IncrementUnlocks()
		}
		s.auditor.Record(ctx, audit.EventProfileUnlocked, profileID, "", "cool_down_elapsed")
		profile.Status = models.ProfileStatusActive
		profile.Attempts = attempts
		profile.Version = version
		return profile, nil
	}
}

func (s *Service) reportTransition(ctx context.Context, span tracer.Span, profileID id.ProfileID, change attemptChange) {
	span.SetAttributes(tracer.Int64(tracer.AttrFailures, int64(change.attempts.ConsecutiveFailures)))
	if change.unlocked {
		span.AddEvent(tracer.EventProfileUnlocked)
		if s.metrics != nil {
			s.metrics.IncrementUnlocks()
		}
		s.auditor.Record(ctx, audit.EventProfileUnlocked, profileID, "", "cool_down_elapsed")
	}
	if change.locked {
		until := *change.attempts.LockedUntil
		span.AddEvent(tracer.EventProfileLocked, tracer.String("locked_until", until.UTC().Format(time.RFC3339)))
		if s.metrics != nil {
			s.metrics.IncrementLockouts()
		}
		s.logger.WarnContext(ctx, "profile locked after consecutive failures",
			"profile_id", profileID.String(),
			"lockouts", change.attempts.Lockouts,
			"locked_until", until,
		)
		s.auditor.Record(ctx, audit.EventProfileLocked, profileID, "", "consecutive_failures",
			"lockouts", change.attempts.Lockouts,
			"locked_until", until,
		)
	}
}

func (s *Service) translateStoreError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) countError(err error) {
	if s.metrics == nil {
		return
	}
	var de *dErrors.Error
	code := dErrors.CodeInternal
	if errors.As(err, &de) {
		code = de.Code
	}
	s.metrics.IncrementVerificationErrors(string(code))
}

func (s *Service) sessionClosed() {
	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
}

func lockedError(profile *models.EnrollmentProfile) error {
	return dErrors.Locked(*profile.Attempts.LockedUntil)
}
