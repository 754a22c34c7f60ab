// Package config loads the host tool's configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"meanline/proto"
)

// Output type names accepted in config files.
const (
	OutputConsole = "console"
	OutputMQTT    = "mqtt"
)

const defaultDBPath = "meanline.db"

// DeviceConfig says which board to talk to.
type DeviceConfig struct {
	// Port is the serial device path (e.g. "/dev/ttyACM0"). Ignored
	// when Sim is set.
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`

	// Sim runs an in-process soft board instead of opening Port.
	Sim bool `yaml:"sim"`

	// SimProfile optionally names a board profile file for the soft
	// board. Empty uses the built-in profile.
	SimProfile string `yaml:"sim_profile"`
}

// MQTTConfig configures one MQTT output.
type MQTTConfig struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// OutputConfig selects one destination for readings.
type OutputConfig struct {
	Type string      `yaml:"type"`
	MQTT *MQTTConfig `yaml:"mqtt,omitempty"`
}

// TelemetryConfig configures local recording of readings.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LogConfig holds logging verbosity.
type LogConfig struct {
	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

// Config is the root of the host configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Outputs   []OutputConfig  `yaml:"outputs"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns a configuration usable without any file: console
// output from the board on the default baud rate.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Baud: proto.DefaultBaud,
		},
		Outputs: []OutputConfig{{Type: OutputConsole}},
		Telemetry: TelemetryConfig{
			DBPath: defaultDBPath,
		},
	}
}

// Load reads the configuration file, overlaying it on the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.ensureDefaults()
	return cfg, nil
}

func (c *Config) ensureDefaults() {
	if c.Device.Baud <= 0 {
		c.Device.Baud = proto.DefaultBaud
	}
	if len(c.Outputs) == 0 {
		c.Outputs = []OutputConfig{{Type: OutputConsole}}
	}
	for i := range c.Outputs {
		if c.Outputs[i].Type == OutputMQTT && c.Outputs[i].MQTT == nil {
			c.Outputs[i].MQTT = &MQTTConfig{}
		}
	}
	if c.Telemetry.DBPath == "" {
		c.Telemetry.DBPath = defaultDBPath
	}
}
