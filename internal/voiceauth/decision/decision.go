// Package decision turns the two factor scores into a ternary verdict.
package decision

import (
	"math"

	"voicegate/internal/voiceauth/models"
)

type Config struct {
	Mode                models.DecisionMode
	SimilarityThreshold float64
	PhraseThreshold     float64
	Weight              float64
	CombinedThreshold   float64
	// AmbiguityBand is the half-width around a threshold that yields Inconclusive; 0 disables it.
	AmbiguityBand float64
}

// Policy is immutable and safe for concurrent use.
type Policy struct {
	cfg Config
}

func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

func (p *Policy) Mode() models.DecisionMode {
	return p.cfg.Mode
}

// Decide applies the configured combination rule. A score clearly below its
// threshold rejects even when the other score is ambiguous.
func (p *Policy) Decide(similarity, phonetic float64) models.ScoreResult {
	if p.cfg.Mode == models.ModeWeighted {
		return p.weighted(similarity, phonetic)
	}
	return p.and(similarity, phonetic)
}

func (p *Policy) and(similarity, phonetic float64) models.ScoreResult {
	res := models.ScoreResult{
		SimilarityScore: similarity,
		PhoneticScore:   phonetic,
		Mode:            models.ModeAnd,
	}

	simGate := p.gate(similarity, p.cfg.SimilarityThreshold)
	phonGate := p.gate(phonetic, p.cfg.PhraseThreshold)

	switch {
	case simGate == below && phonGate == below:
		res.Verdict, res.Reason = models.VerdictReject, models.ReasonBothBelow
	case simGate == below:
		res.Verdict, res.Reason = models.VerdictReject, models.ReasonSimilarityBelow
	case phonGate == below:
		res.Verdict, res.Reason = models.VerdictReject, models.ReasonPhoneticBelow
	case simGate == ambiguous && phonGate == ambiguous:
		res.Verdict, res.Reason = models.VerdictInconclusive, models.ReasonBothAmbiguous
	case simGate == ambiguous:
		res.Verdict, res.Reason = models.VerdictInconclusive, models.ReasonSimilarityAmbiguous
	case phonGate == ambiguous:
		res.Verdict, res.Reason = models.VerdictInconclusive, models.ReasonPhoneticAmbiguous
	default:
		res.Verdict, res.Reason = models.VerdictAccept, models.ReasonPassed
	}
	return res
}

func (p *Policy) weighted(similarity, phonetic float64) models.ScoreResult {
	combined := p.cfg.Weight*similarity + (1-p.cfg.Weight)*phonetic
	res := models.ScoreResult{
		SimilarityScore: similarity,
		PhoneticScore:   phonetic,
		CombinedScore:   &combined,
		Mode:            models.ModeWeighted,
	}

	switch p.gate(combined, p.cfg.CombinedThreshold) {
	case below:
		res.Verdict, res.Reason = models.VerdictReject, models.ReasonCombinedBelow
	case ambiguous:
		res.Verdict, res.Reason = models.VerdictInconclusive, models.ReasonCombinedAmbiguous
	default:
		res.Verdict, res.Reason = models.VerdictAccept, models.ReasonPassed
	}
	return res
}

type gateResult int

const (
	pass gateResult = iota
	ambiguous
	below
)

func (p *Policy) gate(score, threshold float64) gateResult {
	if math.IsNaN(score) {
		return below
	}
	if p.cfg.AmbiguityBand > 0 && math.Abs(score-threshold) < p.cfg.AmbiguityBand {
		return ambiguous
	}
	if score < threshold {
		return below
	}
	return pass
}
