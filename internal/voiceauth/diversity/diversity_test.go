package diversity

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"voicegate/internal/voiceauth/models"
)

type ValidatorSuite struct {
	suite.Suite
	v *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.v = NewValidator(Thresholds{
		MinDistinctPhonemes:   5,
		MinEntropy:            0.5,
		MaxRepetitionFraction: 0.4,
		Ignored:               map[string]struct{}{"pau": {}, "cl": {}},
	})
}

func labels(s string) models.PhonemeSequence {
	return models.SequenceFromLabels(strings.Fields(s))
}

func (s *ValidatorSuite) TestPassingPassphrase() {
	got := s.v.Validate(labels("k o n n i ch i w a s e k a i"))
	s.True(got.Passed)
	s.Equal(models.DiversityPassed, got.Reason)
	s.Equal(9, got.DistinctCount)
	s.Equal(2, got.LongestRun)
	s.Greater(got.Entropy, 0.9)
}

func (s *ValidatorSuite) TestTooFewDistinct() {
	got := s.v.Validate(labels("m a m a m a m a"))
	s.False(got.Passed)
	s.Equal(models.DiversityTooFewDistinct, got.Reason)
	s.Equal(2, got.DistinctCount)
}

func (s *ValidatorSuite) TestLowEntropy() {
	// five distinct labels, one dominating, longest run under 40%
	var ls []string
	ls = append(ls, repeat("a", 15)...)
	ls = append(ls, "k")
	ls = append(ls, repeat("a", 15)...)
	ls = append(ls, "s")
	ls = append(ls, repeat("a", 15)...)
	ls = append(ls, "t", "n")
	got := s.v.Validate(models.SequenceFromLabels(ls))
	s.False(got.Passed)
	s.Equal(models.DiversityLowEntropy, got.Reason)
	s.Less(got.Entropy, 0.5)
}

func (s *ValidatorSuite) TestExcessiveRepetition() {
	got := s.v.Validate(labels("k o n i ch i w a a a a a a a a a"))
	s.False(got.Passed)
	s.Equal(models.DiversityExcessiveRepeat, got.Reason)
	s.Equal(9, got.LongestRun)
	s.InDelta(9.0/16.0, got.RunFraction, 1e-12)
}

func (s *ValidatorSuite) TestIgnoredLabelsDoNotCount() {
	got := s.v.Validate(labels("pau a cl a pau a cl a pau"))
	s.Equal(1, got.DistinctCount)
	s.Equal(4, got.LongestRun)
}

func (s *ValidatorSuite) TestSingleRepeatedLabelAlwaysFails() {
	for n := 5; n <= 40; n++ {
		got := s.v.Validate(models.SequenceFromLabels(repeat("a", n)))
		s.False(got.Passed)
		s.Contains([]models.DiversityReason{models.DiversityTooFewDistinct, models.DiversityExcessiveRepeat}, got.Reason)
	}
}

func (s *ValidatorSuite) TestEmptySequenceFails() {
	got := s.v.Validate(models.PhonemeSequence{})
	s.False(got.Passed)
	s.Equal(models.DiversityTooFewDistinct, got.Reason)
}

func (s *ValidatorSuite) TestDeterministic() {
	seq := labels("s a k u r a m o ch i")
	s.Equal(s.v.Validate(seq), s.v.Validate(seq))
}

func (s *ValidatorSuite) TestMeasureUniformDistribution() {
	got := Measure([]string{"a", "b", "c", "d"})
	s.InDelta(1.0, got.Entropy, 1e-12)
	s.Equal(0.25, got.RunFraction)
	s.False(math.IsNaN(Measure([]string{"a"}).Entropy))
}

func repeat(l string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = l
	}
	return out
}
