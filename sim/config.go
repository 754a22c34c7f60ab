package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"meanline/core"
)

// DefaultResolution is the simulated converter width in bits.
const DefaultResolution = 12

// Source type names accepted in config files.
const (
	SourceWaveform = "waveform"
	SourceSequence = "sequence"
)

const (
	rxFifoSize = 256
	txFifoSize = 1024
)

// Config describes a simulated board.
type Config struct {
	// SampleRate is the conversion cadence in samples per second.
	SampleRate int `yaml:"sample_rate"`

	// Resolution is the converter width in bits (max 16).
	Resolution int `yaml:"resolution"`

	// TxByteTime is the simulated per-byte shift time. Zero keeps the
	// transmitter always ready, like a USB CDC link.
	TxByteTime time.Duration `yaml:"tx_byte_time"`

	Source SourceConfig `yaml:"source"`
}

// SourceConfig selects and parameterizes the analog source.
type SourceConfig struct {
	Type     string         `yaml:"type"`
	Sequence []uint16       `yaml:"sequence,omitempty"`
	Waveform WaveformConfig `yaml:"waveform,omitempty"`
}

// WaveformConfig parameterizes the synthesized signal, in converter
// counts and seconds.
type WaveformConfig struct {
	Bias      float32 `yaml:"bias"`
	Amplitude float32 `yaml:"amplitude"`
	Period    float32 `yaml:"period"`
	Noise     float32 `yaml:"noise"`
}

// Default returns a board profile usable without any config file: a
// slow noisy sine centered mid-scale at the standard rate.
func Default() Config {
	return Config{
		SampleRate: core.DefaultSampleRate,
		Resolution: DefaultResolution,
		Source: SourceConfig{
			Type: SourceWaveform,
			Waveform: WaveformConfig{
				Bias:      2048,
				Amplitude: 1024,
				Period:    5,
				Noise:     24,
			},
		},
	}
}

// Load reads a board profile, overlaying the file on the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read sim config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse sim config: %w", err)
	}
	cfg.ensureDefaults()
	return cfg, nil
}

func (c *Config) ensureDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = core.DefaultSampleRate
	}
	if c.Resolution <= 0 || c.Resolution > 16 {
		c.Resolution = DefaultResolution
	}
	if c.TxByteTime < 0 {
		c.TxByteTime = 0
	}
	if c.Source.Type == "" {
		c.Source.Type = SourceWaveform
	}
	if c.Source.Type == SourceWaveform && c.Source.Waveform.Period <= 0 {
		c.Source.Waveform.Period = Default().Source.Waveform.Period
	}
}

// build materializes the configured source.
func (c SourceConfig) build(rate, resolutionBits int) Source {
	switch c.Type {
	case SourceSequence:
		values := make([]core.Sample, len(c.Sequence))
		for i, v := range c.Sequence {
			values[i] = core.Sample(v)
		}
		return NewSequence(values...)
	default:
		return NewWaveform(c.Waveform, rate, resolutionBits)
	}
}
