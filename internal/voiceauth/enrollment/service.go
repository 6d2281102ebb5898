// Package enrollment collects passphrase and voice samples for a pending
// profile and activates it once the material is complete.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voicegate/internal/platform/tracer"
	"voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/diversity"
	"voicegate/internal/voiceauth/metrics"
	"voicegate/internal/voiceauth/models"
	"voicegate/internal/voiceauth/phonetic"
	"voicegate/internal/voiceauth/ports"
	id "voicegate/pkg/domain"
	dErrors "voicegate/pkg/domain-errors"
	"voicegate/pkg/platform/audit"
	"voicegate/pkg/platform/sentinel"
	vsync "voicegate/pkg/platform/sync"
	"voicegate/pkg/requestcontext"
)

type Service struct {
	store     ports.ProfileStore
	cfg       *config.Config
	diversity *diversity.Validator
	aligner   *phonetic.Aligner
	locks     *vsync.KeyedMutex
	logger    *slog.Logger
	auditor   *audit.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
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

// WithLocks shares the per-profile mutex with the session service.
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

	ignored := cfg.IgnoredSet()
	svc := &Service{
		store: store,
		cfg:   cfg,
		diversity: diversity.NewValidator(diversity.Thresholds{
			MinDistinctPhonemes:   cfg.Diversity.MinDistinctPhonemes,
			MinEntropy:            cfg.Diversity.MinEntropy,
			MaxRepetitionFraction: cfg.Diversity.MaxRepetitionFraction,
			Ignored:               ignored,
		}),
		aligner: phonetic.NewAligner(phonetic.AlignerConfig{
			SameClassCost:          cfg.Phonetic.SameClassCost,
			LowConfidenceThreshold: cfg.Phonetic.LowConfidenceThreshold,
			ConfidenceDiscount:     cfg.Phonetic.ConfidenceDiscount,
			Ignored:                ignored,
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

// Begin creates a pending profile. A nil ID gets a fresh one; an existing
// pending profile is restarted with its material discarded.
func (s *Service) Begin(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	if profileID.IsNil() {
		profileID = id.NewProfileID()
	}
	now := requestcontext.Now(ctx)

	var out *models.EnrollmentProfile
	err := s.locks.WithLock(profileID.String(), func() error {
		existing, err := s.store.Get(ctx, profileID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			out = models.NewPendingProfile(profileID, now)
		case err != nil:
			return translateStoreError(err, "failed to load profile")
		case existing.Status != models.ProfileStatusPending:
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("profile is already %s", existing.Status))
		default:
			out = models.NewPendingProfile(profileID, existing.CreatedAt)
			out.UpdatedAt = now
			out.Version = existing.Version
		}
		return s.put(ctx, out)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.EventEnrollmentStarted, profileID, "", "")
	return out, nil
}

// SubmitPassphraseSample checks the sample's diversity. A failing sample is
// reported in the result and leaves the profile untouched. A passing sample is
// stored and the reference becomes the medoid of all accepted samples.
func (s *Service) SubmitPassphraseSample(ctx context.Context, profileID id.ProfileID, seq models.PhonemeSequence) (result *models.PassphraseResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanEnrollPhrase, tracer.String(tracer.AttrProfileID, profileID.String()))
	defer func() { span.End(err) }()

	if err := seq.Validate(); err != nil {
		return nil, err
	}

	err = s.locks.WithLock(profileID.String(), func() error {
		p, err := s.pendingProfile(ctx, profileID)
		if err != nil {
			return err
		}

		verdict := s.diversity.Validate(seq)
		if s.metrics != nil {
			s.metrics.IncrementPassphraseChecks(string(verdict.Reason))
		}
		result = &models.PassphraseResult{
			ProfileID: profileID.String(),
			Accepted:  verdict.Passed,
			Diversity: verdict,
			Samples:   len(p.PassphraseSamples),
		}
		if !verdict.Passed {
			s.auditor.Record(ctx, audit.EventPassphraseRejected, profileID, "rejected", string(verdict.Reason))
			return nil
		}

		if len(p.PassphraseSamples) >= s.cfg.Enrollment.MaxPassphraseSamples {
			return dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("profile already holds %d passphrase samples", len(p.PassphraseSamples)))
		}
		if len(p.ReferencePhonemes) > 0 {
			score, err := s.aligner.Score(seq, p.ReferencePhonemes)
			if err != nil {
				return err
			}
			if score < s.cfg.Phonetic.Threshold {
				return dErrors.New(dErrors.CodeConflict, "passphrase sample does not match earlier samples")
			}
		}

		p.PassphraseSamples = append(p.PassphraseSamples, seq.Clone())
		idx, err := phonetic.SelectReference(p.PassphraseSamples, s.cfg.IgnoredSet())
		if err != nil {
			return err
		}
		p.ReferencePhonemes = p.PassphraseSamples[idx].Clone()
		refVerdict := s.diversity.Validate(p.ReferencePhonemes)
		p.Diversity = &refVerdict
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.put(ctx, p); err != nil {
			return err
		}

		result.Samples = len(p.PassphraseSamples)
		s.auditor.Record(ctx, audit.EventPassphraseAccepted, profileID, "accepted", string(verdict.Reason),
			"samples", result.Samples,
			"reference_index", idx,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitVoiceSample adds one reference embedding. The first sample fixes the dimension.
func (s *Service) SubmitVoiceSample(ctx context.Context, profileID id.ProfileID, embedding models.Embedding) (out *models.EnrollmentProfile, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanEnrollVoice, tracer.String(tracer.AttrProfileID, profileID.String()))
	defer func() { span.End(err) }()

	if err := embedding.Validate(); err != nil {
		return nil, err
	}

	err = s.locks.WithLock(profileID.String(), func() error {
		p, err := s.pendingProfile(ctx, profileID)
		if err != nil {
			return err
		}
		if len(p.ReferenceEmbeddings) >= s.cfg.Enrollment.MaxReferenceEmbeddings {
			return dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("profile already holds %d voice samples", len(p.ReferenceEmbeddings)))
		}
		if dim := p.EmbeddingDimension(); dim != 0 && dim != embedding.Dimension() {
			return dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("embedding dimension %d does not match enrolled dimension %d", embedding.Dimension(), dim))
		}

		p.ReferenceEmbeddings = append(p.ReferenceEmbeddings, embedding.Clone())
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.put(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementVoiceSamples()
	}
	s.auditor.Record(ctx, audit.EventVoiceSampleAdded, profileID, "", "", "voice_samples", len(out.ReferenceEmbeddings))
	return out, nil
}

// Finalize activates a pending profile holding a passing passphrase reference
// and at least one voice sample.
func (s *Service) Finalize(ctx context.Context, profileID id.ProfileID) (out *models.EnrollmentProfile, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanEnrollFinalize, tracer.String(tracer.AttrProfileID, profileID.String()))
	defer func() { span.End(err) }()

	err = s.locks.WithLock(profileID.String(), func() error {
		p, err := s.pendingProfile(ctx, profileID)
		if err != nil {
			return err
		}
		if !p.HasPassingPassphrase() {
			return dErrors.New(dErrors.CodeIncompleteEnrollment, "no passing passphrase sample")
		}
		if len(p.ReferenceEmbeddings) == 0 {
			return dErrors.New(dErrors.CodeIncompleteEnrollment, "no voice samples")
		}

		p.Status = models.ProfileStatusActive
		p.Attempts = models.AttemptState{}
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.put(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementEnrollmentsFinalized()
	}
	s.logger.InfoContext(ctx, "enrollment finalized",
		"profile_id", profileID.String(),
		"voice_samples", len(out.ReferenceEmbeddings),
		"passphrase_samples", len(out.PassphraseSamples),
	)
	s.auditor.Record(ctx, audit.EventEnrollmentFinalized, profileID, "", "")
	return out, nil
}

// Revoke retires a profile permanently. Revoking twice is a no-op.
func (s *Service) Revoke(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	var out *models.EnrollmentProfile
	revoked := false
	err := s.locks.WithLock(profileID.String(), func() error {
		p, err := s.load(ctx, profileID)
		if err != nil {
			return err
		}
		out = p
		if p.Status == models.ProfileStatusRevoked {
			return nil
		}
		p.Status = models.ProfileStatusRevoked
		p.Attempts.LockedUntil = nil
		p.UpdatedAt = requestcontext.Now(ctx)
		revoked = true
		return s.put(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	if revoked {
		if s.metrics != nil {
			s.metrics.IncrementProfilesRevoked()
		}
		s.auditor.Record(ctx, audit.EventProfileRevoked, profileID, "", "")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	return s.load(ctx, profileID)
}

func (s *Service) load(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	if profileID.IsNil() {
		return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	p, err := s.store.Get(ctx, profileID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load profile")
	}
	return p, nil
}

func (s *Service) pendingProfile(ctx context.Context, profileID id.ProfileID) (*models.EnrollmentProfile, error) {
	p, err := s.load(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProfileStatusPending {
		return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("enrollment is closed: profile is %s", p.Status))
	}
	return p, nil
}

func (s *Service) put(ctx context.Context, p *models.EnrollmentProfile) error {
	if err := s.store.Put(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) && s.metrics != nil {
			s.metrics.IncrementStoreConflicts()
		}
		return translateStoreError(err, "failed to save profile")
	}
	return nil
}

func translateStoreError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "profile changed concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
