package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	dErrors "voicegate/pkg/domain-errors"
)

// Embedding is a fixed-length speaker vector produced by an embedding model.
// Treat it as immutable once captured; use Clone before handing it to another owner.
type Embedding []float64

// Validate rejects empty, non-finite and zero-norm vectors.
func (e Embedding) Validate() error {
	if len(e) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "embedding is empty")
	}
	for i, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("embedding component %d is not finite", i))
		}
	}
	if floats.Norm(e, 2) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "embedding has zero norm")
	}
	return nil
}

func (e Embedding) Dimension() int {
	return len(e)
}

func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// PhonemeToken is one recognised phoneme with its time span and recogniser confidence.
type PhonemeToken struct {
	Label      string        `json:"label"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Confidence float64       `json:"confidence"`
}

// PhonemeSequence is a time-ordered list of phoneme tokens.
type PhonemeSequence []PhonemeToken

// Validate enforces a non-empty, time-ordered sequence with confidences in [0,1].
func (s PhonemeSequence) Validate() error {
	if len(s) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "phoneme sequence is empty")
	}
	var prevStart time.Duration
	for i, tok := range s {
		if strings.TrimSpace(tok.Label) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("phoneme %d has an empty label", i))
		}
		if tok.End < tok.Start {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("phoneme %d ends before it starts", i))
		}
		if i > 0 && tok.Start < prevStart {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("phoneme %d is out of time order", i))
		}
		if math.IsNaN(tok.Confidence) || tok.Confidence < 0 || tok.Confidence > 1 {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("phoneme %d confidence must be within [0,1]", i))
		}
		prevStart = tok.Start
	}
	return nil
}

// Labels returns the trimmed label of every token.
func (s PhonemeSequence) Labels() []string {
	out := make([]string, len(s))
	for i, tok := range s {
		out[i] = strings.TrimSpace(tok.Label)
	}
	return out
}

// Without returns a copy of s with tokens whose label is in ignored removed.
// Labels match case-insensitively; keys of ignored are expected lower case.
func (s PhonemeSequence) Without(ignored map[string]struct{}) PhonemeSequence {
	out := make(PhonemeSequence, 0, len(s))
	for _, tok := range s {
		if _, skip := ignored[strings.ToLower(strings.TrimSpace(tok.Label))]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (s PhonemeSequence) Clone() PhonemeSequence {
	if s == nil {
		return nil
	}
	out := make(PhonemeSequence, len(s))
	copy(out, s)
	return out
}

// SequenceFromLabels builds a sequence with full confidence and synthetic 10ms spans.
// Used by offline tooling where only labels are available.
func SequenceFromLabels(labels []string) PhonemeSequence {
	const step = 10 * time.Millisecond
	out := make(PhonemeSequence, len(labels))
	for i, l := range labels {
		out[i] = PhonemeToken{
			Label:      l,
			Start:      time.Duration(i) * step,
			End:        time.Duration(i+1) * step,
			Confidence: 1,
		}
	}
	return out
}

// Utterance is the perceived content of one spoken attempt.
type Utterance struct {
	Embedding Embedding
	Phonemes  PhonemeSequence
	Speech    time.Duration
}
