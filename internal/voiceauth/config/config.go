// Package config holds the engine policy: every threshold, weight and
// lockout parameter used by scoring, decision and enrollment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"voicegate/internal/voiceauth/models"
	dErrors "voicegate/pkg/domain-errors"
	"voicegate/pkg/validation"
)

// Config is the engine policy. Load it with Load or start from DefaultConfig.
type Config struct {
	Similarity SimilarityConfig `yaml:"similarity"`
	Phonetic   PhoneticConfig   `yaml:"phonetic"`
	Diversity  DiversityConfig  `yaml:"diversity"`
	Decision   DecisionConfig   `yaml:"decision"`
	Lockout    LockoutConfig    `yaml:"lockout"`
	Enrollment EnrollmentConfig `yaml:"enrollment"`
	Session    SessionConfig    `yaml:"session"`
	Perception PerceptionConfig `yaml:"perception"`
}

type SimilarityConfig struct {
	Threshold float64 `yaml:"threshold" validate:"gte=0,lte=1"`
}

type PhoneticConfig struct {
	// Threshold is the phrase threshold for verification.
	Threshold     float64 `yaml:"threshold" validate:"gte=0,lte=1"`
	SameClassCost float64 `yaml:"same_class_cost" validate:"gt=0,lte=1"`
	// Candidate tokens below LowConfidenceThreshold get their substitution and
	// deletion penalties scaled by 1 - ConfidenceDiscount*(1 - confidence).
	LowConfidenceThreshold float64  `yaml:"low_confidence_threshold" validate:"gte=0,lte=1"`
	ConfidenceDiscount     float64  `yaml:"confidence_discount" validate:"gte=0,lt=1"`
	IgnoredLabels          []string `yaml:"ignored_labels" validate:"dive,notblank"`
}

type DiversityConfig struct {
	MinDistinctPhonemes   int     `yaml:"min_distinct_phonemes" validate:"gte=2"`
	MinEntropy            float64 `yaml:"min_entropy" validate:"gte=0,lte=1"`
	MaxRepetitionFraction float64 `yaml:"max_repetition_fraction" validate:"gt=0,lte=1"`
}

type DecisionConfig struct {
	Mode              models.DecisionMode `yaml:"mode" validate:"oneof=and weighted"`
	AmbiguityBand     float64             `yaml:"ambiguity_band" validate:"gte=0,lt=0.5"`
	Weight            float64             `yaml:"weight" validate:"gte=0,lte=1"`
	CombinedThreshold float64             `yaml:"combined_threshold" validate:"gte=0,lte=1"`
}

type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffExponential BackoffStrategy = "exponential"
)

type LockoutConfig struct {
	MaxConsecutiveFailures int             `yaml:"max_consecutive_failures" validate:"gte=1"`
	Duration               time.Duration   `yaml:"duration" validate:"gt=0"`
	MaxDuration            time.Duration   `yaml:"max_duration" validate:"gt=0"`
	Backoff                BackoffStrategy `yaml:"backoff" validate:"oneof=fixed exponential"`
}

// For returns the cool-down applied on the nth lockout (n >= 1).
func (c LockoutConfig) For(n int) time.Duration {
	if c.Backoff != BackoffExponential || n <= 1 {
		return min(c.Duration, c.MaxDuration)
	}
	d := c.Duration
	for i := 1; i < n; i++ {
		d *= 2
		if d >= c.MaxDuration || d <= 0 {
			return c.MaxDuration
		}
	}
	return d
}

type EnrollmentConfig struct {
	MaxReferenceEmbeddings int `yaml:"max_reference_embeddings" validate:"gte=1,lte=32"`
	MaxPassphraseSamples   int `yaml:"max_passphrase_samples" validate:"gte=1,lte=16"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl" validate:"gt=0"`
	// ConflictRetries bounds re-reads when a concurrent writer bumps the profile version.
	ConflictRetries int `yaml:"conflict_retries" validate:"gte=0,lte=10"`
}

type PerceptionConfig struct {
	MinSpeech           time.Duration `yaml:"min_speech" validate:"gte=0"`
	MinPassphraseSpeech time.Duration `yaml:"min_passphrase_speech" validate:"gte=0"`
}

// DefaultConfig returns the policy used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Similarity: SimilarityConfig{Threshold: 0.8},
		Phonetic: PhoneticConfig{
			Threshold:              0.7,
			SameClassCost:          0.3,
			LowConfidenceThreshold: 0.5,
			ConfidenceDiscount:     0.5,
			IgnoredLabels:          []string{"pau", "cl", "sil", "sp"},
		},
		Diversity: DiversityConfig{
			MinDistinctPhonemes:   5,
			MinEntropy:            0.5,
			MaxRepetitionFraction: 0.4,
		},
		Decision: DecisionConfig{
			Mode:              models.ModeAnd,
			AmbiguityBand:     0.03,
			Weight:            0.6,
			CombinedThreshold: 0.76,
		},
		Lockout: LockoutConfig{
			MaxConsecutiveFailures: 5,
			Duration:               5 * time.Minute,
			MaxDuration:            24 * time.Hour,
			Backoff:                BackoffExponential,
		},
		Enrollment: EnrollmentConfig{
			MaxReferenceEmbeddings: 5,
			MaxPassphraseSamples:   3,
		},
		Session: SessionConfig{
			TTL:             2 * time.Minute,
			ConflictRetries: 3,
		},
		Perception: PerceptionConfig{
			MinSpeech:           500 * time.Millisecond,
			MinPassphraseSpeech: 3 * time.Second,
		},
	}
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Lockout.MaxDuration < c.Lockout.Duration {
		return dErrors.New(dErrors.CodeValidation, "lockout.max_duration must be at least lockout.duration")
	}
	return nil
}

// IgnoredSet returns the ignored phoneme labels as a lower-case set.
func (c *Config) IgnoredSet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Phonetic.IgnoredLabels))
	for _, l := range c.Phonetic.IgnoredLabels {
		out[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	return out
}

// Load reads a YAML policy file. Keys absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML policy bytes over DefaultConfig and validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid policy file: "+err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the policy as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
