package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	VerificationsTotal    *prometheus.CounterVec
	VerificationErrors    *prometheus.CounterVec
	SimilarityScores      prometheus.Histogram
	PhoneticScores        prometheus.Histogram
	EvaluateDuration      prometheus.Histogram
	OpenSessions          prometheus.Gauge
	LockoutsTotal         prometheus.Counter
	UnlocksTotal          prometheus.Counter
	StoreConflictsTotal   prometheus.Counter
	PassphraseChecksTotal *prometheus.CounterVec
	VoiceSamplesTotal     prometheus.Counter
	EnrollmentsFinalized  prometheus.Counter
	ProfilesRevokedTotal  prometheus.Counter
}

// New registers the voiceauth metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	scoreBuckets := prometheus.LinearBuckets(0, 0.05, 21)
	return &Metrics{
		VerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_verifications_total",
			Help: "Verification decisions by verdict and combination mode",
		}, []string{"verdict", "mode"}),
		VerificationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_verification_errors_total",
			Help: "Verification attempts that ended in an error, by domain code",
		}, []string{"code"}),
		SimilarityScores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_similarity_score",
			Help:    "Distribution of voiceprint similarity scores",
			Buckets: scoreBuckets,
		}),
		PhoneticScores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_phonetic_score",
			Help:    "Distribution of passphrase alignment scores",
			Buckets: scoreBuckets,
		}),
		EvaluateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_evaluate_duration_seconds",
			Help:    "Time spent scoring and deciding one session",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		OpenSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "voicegate_open_sessions",
			Help: "Authentication sessions begun but not yet closed",
		}),
		LockoutsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_profile_lockouts_total",
			Help: "Profiles locked after reaching the consecutive failure limit",
		}),
		UnlocksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_profile_unlocks_total",
			Help: "Locked profiles re-activated after their cool-down lapsed",
		}),
		StoreConflictsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_store_conflicts_total",
			Help: "Optimistic concurrency conflicts observed on profile writes",
		}),
		PassphraseChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_passphrase_checks_total",
			Help: "Enrollment passphrase diversity checks by outcome",
		}, []string{"reason"}),
		VoiceSamplesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_voice_samples_total",
			Help: "Voice samples accepted during enrollment",
		}),
		EnrollmentsFinalized: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_enrollments_finalized_total",
			Help: "Profiles moved from pending to active",
		}),
		ProfilesRevokedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_profiles_revoked_total",
			Help: "Profiles revoked",
		}),
	}
}

func (m *Metrics) ObserveDecision(verdict, mode string, similarity, phonetic float64, elapsed time.Duration) {
	m.VerificationsTotal.WithLabelValues(verdict, mode).Inc()
	m.SimilarityScores.Observe(similarity)
	m.PhoneticScores.Observe(phonetic)
	m.EvaluateDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementVerificationErrors(code string) {
	m.VerificationErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) SessionOpened() {
	m.OpenSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	m.OpenSessions.Dec()
}

func (m *Metrics) IncrementLockouts() {
	m.LockoutsTotal.Inc()
}

func (m *Metrics) IncrementUnlocks() {
	m.UnlocksTotal.Inc()
}

func (m *Metrics) IncrementStoreConflicts() {
	m.StoreConflictsTotal.Inc()
}

func (m *Metrics) IncrementPassphraseChecks(reason string) {
	m.PassphraseChecksTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementVoiceSamples() {
	m.VoiceSamplesTotal.Inc()
}

func (m *Metrics) IncrementEnrollmentsFinalized() {
	m.EnrollmentsFinalized.Inc()
}

func (m *Metrics) IncrementProfilesRevoked() {
	m.ProfilesRevokedTotal.Inc()
}
