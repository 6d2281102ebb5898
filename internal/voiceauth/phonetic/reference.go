package phonetic

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"voicegate/internal/voiceauth/models"
	dErrors "voicegate/pkg/domain-errors"
)

// first rune of the Unicode private use area; labels are interned from here
const internBase = 0xE000

var unitCosts = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// SelectReference returns the index of the medoid of samples: the sample with
// the smallest summed normalised edit distance to all others. Ties go to the
// lowest index.
func SelectReference(samples []models.PhonemeSequence, ignored map[string]struct{}) (int, error) {
	if len(samples) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "no passphrase samples")
	}
	if len(samples) == 1 {
		return 0, nil
	}

	encoded := internLabels(samples, ignored)
	dist := make([][]float64, len(encoded))
	for i := range dist {
		dist[i] = make([]float64, len(encoded))
	}
	for i := range encoded {
		for j := i + 1; j < len(encoded); j++ {
			d := NormalizedEditDistance(encoded[i], encoded[j])
			dist[i][j], dist[j][i] = d, d
		}
	}

	best, bestSum := 0, -1.0
	for i, row := range dist {
		sum := 0.0
		for _, d := range row {
			sum += d
		}
		if bestSum < 0 || sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return best, nil
}

// NormalizedEditDistance is the unit-cost edit distance divided by the longer length.
// Two empty inputs are at distance 0.
func NormalizedEditDistance(a, b []rune) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.DistanceForStrings(a, b, unitCosts)) / float64(longest)
}

// internLabels maps each distinct label to one rune so multi-character labels
// compare as single symbols.
func internLabels(samples []models.PhonemeSequence, ignored map[string]struct{}) [][]rune {
	table := make(map[string]rune)
	out := make([][]rune, len(samples))
	for i, s := range samples {
		labels := s.Without(ignored).Labels()
		runes := make([]rune, len(labels))
		for j, l := range labels {
			r, ok := table[l]
			if !ok {
				r = rune(internBase + len(table))
				table[l] = r
			}
			runes[j] = r
		}
		out[i] = runes
	}
	return out
}
