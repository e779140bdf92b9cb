package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// LevelBands is the number of bands in a level meter.
const LevelBands = 32

// Frame is one fully assembled chunk of captured audio, normalized to
// float32 samples in [-1.0, 1.0].
type Frame struct {
	Samples    []float32
	SampleRate int
	Channels   int
	Timestamp  time.Time
}

// Empty reports whether the frame carries no samples.
func (f Frame) Empty() bool {
	return len(f.Samples) == 0
}

// Duration returns the playback duration of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	perChannel := len(f.Samples) / f.Channels
	return time.Duration(perChannel) * time.Second / time.Duration(f.SampleRate)
}

// Truncated returns a frame limited to at most maxSamples samples. A
// non-positive maxSamples means no limit. The original frame is never
// modified.
func (f Frame) Truncated(maxSamples int) Frame {
	if maxSamples <= 0 || len(f.Samples) <= maxSamples {
		return f
	}
	out := f
	out.Samples = f.Samples[:maxSamples]
	return out
}

// LevelMeter holds per-band magnitudes in [0,1] derived from a frame.
// It feeds visualization only and is never consumed by recognition.
type LevelMeter [LevelBands]float32

// DecodePCM16 converts raw interleaved little-endian 16-bit PCM into
// normalized float32 samples.
func DecodePCM16(raw []byte) []float32 {
	n := len(raw) / 2
	samples := make([]float32, 0, n)
	const norm = 1.0 / 32768.0
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples = append(samples, float32(s)*norm)
	}
	return samples
}

// ComputeLevels derives a level meter from frame samples. The overall RMS
// is spread across the bands with a sine envelope so the meter reads as a
// symmetric spectrum.
func ComputeLevels(samples []float32) LevelMeter {
	var levels LevelMeter
	if len(samples) == 0 {
		return levels
	}

	var sumSquares float64
	for _, s := range samples {
		sumSquares += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))

	for i := range levels {
		position := float64(i) / LevelBands
		amplitude := math.Sin(position * math.Pi)
		v := rms * amplitude * 5.0
		if v > 1.0 {
			v = 1.0
		}
		levels[i] = float32(v)
	}
	return levels
}
