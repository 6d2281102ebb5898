// Package phonetic scores how closely a spoken phoneme sequence follows an
// enrolled passphrase.
package phonetic

import (
	"voicegate/internal/voiceauth/models"
	dErrors "voicegate/pkg/domain-errors"
)

const (
	insertionCost    = 1.0
	deletionCost     = 1.0
	substitutionCost = 1.0
)

// AlignerConfig carries the tunables of the weighted edit distance.
type AlignerConfig struct {
	SameClassCost          float64
	LowConfidenceThreshold float64
	ConfidenceDiscount     float64
	Ignored                map[string]struct{}
}

// Aligner computes a confidence-aware weighted Levenshtein score.
// It holds no mutable state and is safe for concurrent use.
type Aligner struct {
	cfg AlignerConfig
}

func NewAligner(cfg AlignerConfig) *Aligner {
	return &Aligner{cfg: cfg}
}

// Score returns max(0, 1 - d/max(len(c), len(r))) where d is the weighted
// edit distance turning candidate into reference.
func (a *Aligner) Score(candidate, reference models.PhonemeSequence) (float64, error) {
	if err := reference.Validate(); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "reference: "+err.Error())
	}
	if err := candidate.Validate(); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "candidate: "+err.Error())
	}
	cand := candidate.Without(a.cfg.Ignored)
	ref := reference.Without(a.cfg.Ignored)
	if len(ref) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "reference has no phonemes")
	}
	if len(cand) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "candidate has no phonemes")
	}

	d := a.Distance(cand, ref)
	return max(0, 1-d/float64(max(len(cand), len(ref)))), nil
}

// Distance is the weighted edit distance with the full (n+1)x(m+1) table.
// Ignored labels are not removed here.
func (a *Aligner) Distance(candidate, reference models.PhonemeSequence) float64 {
	n, m := len(candidate), len(reference)
	candLabels := candidate.Labels()
	refLabels := reference.Labels()

	dp := make([][]float64, n+1)
	for i := range dp {
		dp[i] = make([]float64, m+1)
	}
	for j := 1; j <= m; j++ {
		dp[0][j] = dp[0][j-1] + insertionCost
	}
	for i := 1; i <= n; i++ {
		w := a.weight(candidate[i-1].Confidence)
		dp[i][0] = dp[i-1][0] + deletionCost*w

		for j := 1; j <= m; j++ {
			sub := dp[i-1][j-1] + a.substitution(candLabels[i-1], refLabels[j-1])*w
			del := dp[i-1][j] + deletionCost*w
			ins := dp[i][j-1] + insertionCost
			dp[i][j] = min(sub, del, ins)
		}
	}
	return dp[n][m]
}

func (a *Aligner) substitution(cand, ref string) float64 {
	switch {
	case cand == ref:
		return 0
	case SameClass(cand, ref):
		return a.cfg.SameClassCost
	default:
		return substitutionCost
	}
}

// weight scales penalties charged to a candidate token.
func (a *Aligner) weight(confidence float64) float64 {
	if confidence >= a.cfg.LowConfidenceThreshold {
		return 1
	}
	return 1 - a.cfg.ConfidenceDiscount*(1-confidence)
}
