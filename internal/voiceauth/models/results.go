package models

type Verdict string

const (
	VerdictAccept       Verdict = "accept"
	VerdictReject       Verdict = "reject"
	VerdictInconclusive Verdict = "inconclusive"
)

func (v Verdict) String() string {
	return string(v)
}

type DecisionMode string

const (
	// ModeAnd requires both factors to pass independently.
	ModeAnd DecisionMode = "and"
	// ModeWeighted fuses the factors into one combined score.
	ModeWeighted DecisionMode = "weighted"
)

func (m DecisionMode) IsValid() bool {
	return m == ModeAnd || m == ModeWeighted
}

// Reason names the gate that determined a verdict.
type Reason string

const (
	ReasonPassed              Reason = "passed"
	ReasonSimilarityBelow     Reason = "similarity_below_threshold"
	ReasonPhoneticBelow       Reason = "phonetic_below_threshold"
	ReasonBothBelow           Reason = "similarity_and_phonetic_below_threshold"
	ReasonSimilarityAmbiguous Reason = "similarity_ambiguous"
	ReasonPhoneticAmbiguous   Reason = "phonetic_ambiguous"
	ReasonBothAmbiguous       Reason = "similarity_and_phonetic_ambiguous"
	ReasonCombinedBelow       Reason = "combined_below_threshold"
	ReasonCombinedAmbiguous   Reason = "combined_ambiguous"
)

// ScoreResult is the immutable outcome of one decision. It is never persisted.
type ScoreResult struct {
	SimilarityScore float64      `json:"similarity_score"`
	PhoneticScore   float64      `json:"phonetic_score"`
	CombinedScore   *float64     `json:"combined_score,omitempty"`
	Mode            DecisionMode `json:"mode"`
	Verdict         Verdict      `json:"verdict"`
	Reason          Reason       `json:"reason"`
}

type DiversityReason string

const (
	DiversityPassed          DiversityReason = "passed"
	DiversityTooFewDistinct  DiversityReason = "too_few_distinct_phonemes"
	DiversityLowEntropy      DiversityReason = "low_entropy"
	DiversityExcessiveRepeat DiversityReason = "excessive_repetition"
)

// DiversityVerdict reports whether a passphrase is phonetically varied enough.
type DiversityVerdict struct {
	Passed        bool            `json:"passed"`
	Reason        DiversityReason `json:"reason"`
	DistinctCount int             `json:"distinct_count"`
	// Entropy is Shannon entropy normalised by ln(DistinctCount), in [0,1].
	Entropy     float64 `json:"entropy"`
	LongestRun  int     `json:"longest_run"`
	RunFraction float64 `json:"run_fraction"`
}
