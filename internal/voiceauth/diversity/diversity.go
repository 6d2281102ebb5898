// Package diversity rejects passphrases whose phonetic content is too narrow to
// discriminate between speakers' utterances.
package diversity

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"voicegate/internal/voiceauth/models"
)

// Thresholds are supplied by the caller; the validator holds no policy of its own.
type Thresholds struct {
	MinDistinctPhonemes   int
	MinEntropy            float64
	MaxRepetitionFraction float64
	Ignored               map[string]struct{}
}

// Validator is stateless and safe for concurrent use.
type Validator struct {
	t Thresholds
}

func NewValidator(t Thresholds) *Validator {
	return &Validator{t: t}
}

// Validate measures seq and checks, in order: distinct label count, normalised
// entropy, longest run of one label. The first failing check names the verdict.
func (v *Validator) Validate(seq models.PhonemeSequence) models.DiversityVerdict {
	labels := seq.Without(v.t.Ignored).Labels()
	verdict := Measure(labels)

	switch {
	case verdict.DistinctCount < v.t.MinDistinctPhonemes:
		verdict.Reason = models.DiversityTooFewDistinct
	case verdict.Entropy < v.t.MinEntropy:
		verdict.Reason = models.DiversityLowEntropy
	case verdict.RunFraction > v.t.MaxRepetitionFraction:
		verdict.Reason = models.DiversityExcessiveRepeat
	default:
		verdict.Passed = true
		verdict.Reason = models.DiversityPassed
	}
	return verdict
}

// Measure computes the diversity statistics of labels without judging them.
func Measure(labels []string) models.DiversityVerdict {
	if len(labels) == 0 {
		return models.DiversityVerdict{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	longest, run := 1, 1
	for i, l := range labels {
		if _, seen := counts[l]; !seen {
			order = append(order, l)
		}
		counts[l]++
		if i > 0 {
			if l == labels[i-1] {
				run++
			} else {
				run = 1
			}
			longest = max(longest, run)
		}
	}

	return models.DiversityVerdict{
		DistinctCount: len(counts),
		Entropy:       normalisedEntropy(counts, order, len(labels)),
		LongestRun:    longest,
		RunFraction:   float64(longest) / float64(len(labels)),
	}
}

// normalisedEntropy is H/ln(k) for k distinct labels; 0 when k <= 1.
func normalisedEntropy(counts map[string]int, order []string, total int) float64 {
	k := len(order)
	if k <= 1 {
		return 0
	}
	p := make([]float64, k)
	for i, l := range order {
		p[i] = float64(counts[l]) / float64(total)
	}
	return stat.Entropy(p) / math.Log(float64(k))
}
