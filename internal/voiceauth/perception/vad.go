package perception

import (
	"context"
	"math"
	"time"

	dErrors "voicegate/pkg/domain-errors"
)

const defaultFrame = 20 * time.Millisecond

// EnergyDetector marks frames whose RMS energy reaches Threshold as speech.
type EnergyDetector struct {
	Threshold float64
	Frame     time.Duration
}

func NewEnergyDetector(threshold float64) *EnergyDetector {
	return &EnergyDetector{Threshold: threshold, Frame: defaultFrame}
}

func (d *EnergyDetector) DetectSpeech(ctx context.Context, audio Audio) ([]Segment, error) {
	if audio.SampleRate <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sample rate must be positive")
	}
	frame := d.Frame
	if frame <= 0 {
		frame = defaultFrame
	}
	size := int(int64(audio.SampleRate) * int64(frame) / int64(time.Second))
	if size <= 0 {
		size = 1
	}

	var (
		segments []Segment
		open     bool
		start    time.Duration
	)
	for i := 0; i < len(audio.Samples); i += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(i+size, len(audio.Samples))
		at := offset(i, audio.SampleRate)
		voiced := rms(audio.Samples[i:end]) >= d.Threshold
		switch {
		case voiced && !open:
			open, start = true, at
		case !voiced && open:
			segments = append(segments, Segment{Start: start, End: at})
			open = false
		}
	}
	if open {
		segments = append(segments, Segment{Start: start, End: audio.Duration()})
	}
	return segments, nil
}

func offset(sample, rate int) time.Duration {
	return time.Duration(sample) * time.Second / time.Duration(rate)
}

func rms(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, v := range frame {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
