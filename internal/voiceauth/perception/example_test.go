package perception_test

import (
	"context"
	"fmt"

	"voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/models"
	"voicegate/internal/voiceauth/perception"
)

type fixedSpeaker struct{}

func (fixedSpeaker) Extract(context.Context, perception.Audio) (models.Embedding, error) {
	return models.Embedding{0.6, 0.8}, nil
}

type fixedTranscript struct{}

func (fixedTranscript) Recognize(context.Context, perception.Audio) (models.PhonemeSequence, error) {
	return models.SequenceFromLabels([]string{"s", "e", "k", "a", "i"}), nil
}

func ExampleNewPipeline() {
	pipeline, err := perception.NewPipeline(
		perception.NewEnergyDetector(0.1),
		fixedSpeaker{},
		fixedTranscript{},
		config.DefaultConfig().Perception,
	)
	if err != nil {
		panic(err)
	}

	// one second of constant-amplitude "speech" at 16 kHz
	samples := make([]float32, 16000)
	for i := range samples {
		samples[i] = 0.5
	}
	utt, err := pipeline.Perceive(context.Background(), perception.Audio{Samples: samples, SampleRate: 16000}, perception.PurposeVerification)
	if err != nil {
		panic(err)
	}
	fmt.Println(utt.Phonemes.Labels(), utt.Speech)
	// Output: [s e k a i] 1s
}
