package sim

import (
	"github.com/chewxy/math32"

	"meanline/core"
)

// Source produces the next converted value, one call per conversion
// tick.
type Source interface {
	Next() core.Sample
}

// Sequence cycles through a fixed list of values. Fully deterministic,
// which makes it the source of choice for protocol tests.
type Sequence struct {
	values []core.Sample
	idx    int
}

func NewSequence(values ...core.Sample) *Sequence {
	if len(values) == 0 {
		values = []core.Sample{0}
	}
	return &Sequence{values: values}
}

func (s *Sequence) Next() core.Sample {
	v := s.values[s.idx]
	s.idx = (s.idx + 1) % len(s.values)
	return v
}

// Waveform synthesizes a sine around a bias with a pair of detuned
// harmonics standing in for noise, clamped to the converter range.
// No rand: two Waveforms with the same config produce the same stream.
type Waveform struct {
	cfg  WaveformConfig
	rate float32
	max  float32
	n    uint32
}

func NewWaveform(cfg WaveformConfig, rate, resolutionBits int) *Waveform {
	if rate <= 0 {
		rate = core.DefaultSampleRate
	}
	if resolutionBits <= 0 || resolutionBits > 16 {
		resolutionBits = DefaultResolution
	}
	if cfg.Period <= 0 {
		cfg.Period = 1
	}
	return &Waveform{
		cfg:  cfg,
		rate: float32(rate),
		max:  float32(int(1)<<resolutionBits - 1),
	}
}

func (w *Waveform) Next() core.Sample {
	t := float32(w.n) / w.rate
	w.n++

	v := w.cfg.Bias + w.cfg.Amplitude*math32.Sin(2*math32.Pi*t/w.cfg.Period)
	if w.cfg.Noise != 0 {
		v += w.cfg.Noise * 0.5 * (math32.Sin(73.137*t) + math32.Cos(39.741*t))
	}

	if v < 0 {
		v = 0
	}
	if v > w.max {
		v = w.max
	}
	return core.Sample(v)
}
