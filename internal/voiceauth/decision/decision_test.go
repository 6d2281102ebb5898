package decision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"voicegate/internal/voiceauth/models"
)

type PolicySuite struct {
	suite.Suite
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicySuite))
}

func andPolicy(band float64) *Policy {
	return NewPolicy(Config{
		Mode:                models.ModeAnd,
		SimilarityThreshold: 0.8,
		PhraseThreshold:     0.7,
		AmbiguityBand:       band,
	})
}

func (s *PolicySuite) TestAndGate() {
	cases := []struct {
		name    string
		band    float64
		sim     float64
		phon    float64
		verdict models.Verdict
		reason  models.Reason
	}{
		{"phrase fails", 0, 0.9, 0.6, models.VerdictReject, models.ReasonPhoneticBelow},
		{"both pass", 0, 0.9, 0.75, models.VerdictAccept, models.ReasonPassed},
		{"voice fails", 0, 0.5, 0.9, models.VerdictReject, models.ReasonSimilarityBelow},
		{"both fail", 0, 0.1, 0.1, models.VerdictReject, models.ReasonBothBelow},
		{"exactly at thresholds", 0, 0.8, 0.7, models.VerdictAccept, models.ReasonPassed},
		{"both near thresholds", 0.03, 0.82, 0.715, models.VerdictInconclusive, models.ReasonBothAmbiguous},
		{"voice just below", 0.03, 0.79, 0.9, models.VerdictInconclusive, models.ReasonSimilarityAmbiguous},
		{"phrase just above", 0.03, 0.95, 0.72, models.VerdictInconclusive, models.ReasonPhoneticAmbiguous},
		{"clear reject dominates ambiguity", 0.03, 0.81, 0.4, models.VerdictReject, models.ReasonPhoneticBelow},
		{"outside band passes", 0.03, 0.9, 0.75, models.VerdictAccept, models.ReasonPassed},
		{"without band near scores are decided", 0, 0.82, 0.715, models.VerdictAccept, models.ReasonPassed},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			got := andPolicy(tc.band).Decide(tc.sim, tc.phon)
			s.Equal(tc.verdict, got.Verdict)
			s.Equal(tc.reason, got.Reason)
			s.Equal(tc.sim, got.SimilarityScore)
			s.Equal(tc.phon, got.PhoneticScore)
			s.Equal(models.ModeAnd, got.Mode)
			s.Nil(got.CombinedScore)
		})
	}
}

func (s *PolicySuite) TestWeighted() {
	p := NewPolicy(Config{
		Mode:              models.ModeWeighted,
		Weight:            0.5,
		CombinedThreshold: 0.75,
		AmbiguityBand:     0.02,
	})

	s.Run("strong voice compensates weak phrase", func() {
		got := p.Decide(1.0, 0.6)
		s.Equal(models.VerdictAccept, got.Verdict)
		s.Require().NotNil(got.CombinedScore)
		s.InDelta(0.8, *got.CombinedScore, 1e-12)
	})

	s.Run("combined below threshold", func() {
		got := p.Decide(0.6, 0.6)
		s.Equal(models.VerdictReject, got.Verdict)
		s.Equal(models.ReasonCombinedBelow, got.Reason)
	})

	s.Run("combined near threshold", func() {
		got := p.Decide(0.76, 0.75)
		s.Equal(models.VerdictInconclusive, got.Verdict)
		s.Equal(models.ReasonCombinedAmbiguous, got.Reason)
	})
}

func (s *PolicySuite) TestNaNRejects() {
	got := andPolicy(0.03).Decide(math.NaN(), 0.9)
	s.Equal(models.VerdictReject, got.Verdict)
}
