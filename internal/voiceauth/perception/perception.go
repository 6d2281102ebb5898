// Package perception turns raw audio into an Utterance. The models behind
// each step are pluggable; scoring and decision code only ever see the
// Utterance.
//
// Hosts that receive audio rather than embeddings plug their speaker and
// phoneme models in through NewPipeline and pass the resulting Utterance to
// session.Service.Verify or the enrollment service.
package perception

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"voicegate/internal/platform/tracer"
	"voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/models"
	dErrors "voicegate/pkg/domain-errors"
)

// Audio is mono PCM normalised to [-1,1].
type Audio struct {
	Samples    []float32
	SampleRate int
}

func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.Samples)) * time.Second / time.Duration(a.SampleRate)
}

// Segment is a span of detected speech.
type Segment struct {
	Start time.Duration
	End   time.Duration
}

type SpeechDetector interface {
	DetectSpeech(ctx context.Context, audio Audio) ([]Segment, error)
}

type EmbeddingExtractor interface {
	Extract(ctx context.Context, audio Audio) (models.Embedding, error)
}

type PhonemeRecognizer interface {
	Recognize(ctx context.Context, audio Audio) (models.PhonemeSequence, error)
}

// Purpose selects the minimum amount of speech required.
type Purpose int

const (
	PurposeVerification Purpose = iota
	PurposePassphrase
)

type Pipeline struct {
	detector   SpeechDetector
	extractor  EmbeddingExtractor
	recognizer PhonemeRecognizer
	cfg        config.PerceptionConfig
	tracer     tracer.Tracer
}

type Option func(*Pipeline)

func WithTracer(t tracer.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

func NewPipeline(detector SpeechDetector, extractor EmbeddingExtractor, recognizer PhonemeRecognizer, cfg config.PerceptionConfig, opts ...Option) (*Pipeline, error) {
	if detector == nil || extractor == nil || recognizer == nil {
		return nil, errors.New("speech detector, embedding extractor and phoneme recognizer are required")
	}
	p := &Pipeline{
		detector:   detector,
		extractor:  extractor,
		recognizer: recognizer,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = tracer.NewNoop()
	}
	return p, nil
}

// Perceive detects speech, enforces the minimum speech duration for purpose,
// then extracts the embedding and the phoneme sequence concurrently.
func (p *Pipeline) Perceive(ctx context.Context, audio Audio, purpose Purpose) (utt models.Utterance, err error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanPerceive)
	defer func() { span.End(err) }()

	if audio.SampleRate <= 0 {
		return models.Utterance{}, dErrors.New(dErrors.CodeInvalidInput, "sample rate must be positive")
	}
	if len(audio.Samples) == 0 {
		return models.Utterance{}, dErrors.New(dErrors.CodeInvalidInput, "audio is empty")
	}

	segments, err := p.detector.DetectSpeech(ctx, audio)
	if err != nil {
		return models.Utterance{}, dErrors.Wrap(err, dErrors.CodeInternal, "speech detection failed")
	}
	speech := SpeechDuration(segments)
	span.SetAttributes(tracer.Duration(tracer.AttrSpeech, speech))
	if required := p.minSpeech(purpose); speech < required {
		return models.Utterance{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("insufficient speech: %s detected, %s required", speech, required))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emb, err := p.extractor.Extract(gctx, audio)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "embedding extraction failed")
		}
		if err := emb.Validate(); err != nil {
			return dErrors.New(dErrors.CodeInternal, "extractor returned an invalid embedding: "+err.Error())
		}
		utt.Embedding = emb
		return nil
	})
	g.Go(func() error {
		seq, err := p.recognizer.Recognize(gctx, audio)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "phoneme recognition failed")
		}
		if err := seq.Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "no phonemes recognised")
		}
		utt.Phonemes = seq
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Utterance{}, err
	}
	utt.Speech = speech
	return utt, nil
}

func (p *Pipeline) minSpeech(purpose Purpose) time.Duration {
	if purpose == PurposePassphrase {
		return p.cfg.MinPassphraseSpeech
	}
	return p.cfg.MinSpeech
}

// SpeechDuration sums segment lengths, ignoring inverted segments.
func SpeechDuration(segments []Segment) time.Duration {
	var total time.Duration
	for _, s := range segments {
		if s.End > s.Start {
			total += s.End - s.Start
		}
	}
	return total
}
