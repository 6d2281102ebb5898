// Package similarity scores a candidate speaker embedding against enrolled references.
package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"voicegate/internal/voiceauth/models"
	dErrors "voicegate/pkg/domain-errors"
)

// Scorer is stateless and safe for concurrent use.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the best (cos+1)/2 over all references, in [0,1].
func (s *Scorer) Score(candidate models.Embedding, references []models.Embedding) (float64, error) {
	if len(references) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "no reference embeddings")
	}
	if err := candidate.Validate(); err != nil {
		return 0, err
	}

	best := 0.0
	for i, ref := range references {
		if len(ref) != len(candidate) {
			return 0, dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("embedding dimension %d does not match reference %d dimension %d", len(candidate), i, len(ref)))
		}
		if err := ref.Validate(); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("reference %d: %s", i, err.Error()))
		}
		if score := mapUnit(Cosine(candidate, ref)); score > best {
			best = score
		}
	}
	return best, nil
}

// Cosine returns the cosine similarity of two equal-length non-zero vectors.
// Both sides are normalised before the dot product so very large or very
// small magnitudes neither overflow nor underflow.
func Cosine(a, b []float64) float64 {
	c := floats.Dot(unit(a), unit(b))
	// rounding can push |c| slightly past 1
	return max(-1, min(1, c))
}

// unit divides by the norm rather than scaling by its reciprocal, which can
// overflow for tiny norms.
func unit(v []float64) []float64 {
	n := floats.Norm(v, 2)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func mapUnit(cos float64) float64 {
	return (cos + 1) / 2
}
