// Package config loads the rig controller settings: defaults first,
// then an optional yaml overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything tunable about the serial session and the
// control surface. Durations are milliseconds in the file, converted
// through the getter methods.
type Config struct {
	BaudRate         int `yaml:"baud_rate"`
	PollQuantumMS    int `yaml:"poll_quantum_ms"`
	ConnectWaitMS    int `yaml:"connect_wait_ms"`
	CommandTimeoutMS int `yaml:"command_timeout_ms"`
	ProbeTimeoutMS   int `yaml:"probe_timeout_ms"`
	HeartbeatStaleMS int `yaml:"heartbeat_stale_ms"`

	HTTPAddr string `yaml:"http_addr"`

	LightingChannels []string `yaml:"lighting_channels"`
	MaxIntensity     int      `yaml:"max_intensity"`

	PhotoCount  int     `yaml:"photo_count"`
	PhotoDelayS float64 `yaml:"photo_delay_s"`

	// Presets map a preset name to channel intensities. When empty the
	// built-in presets apply.
	Presets map[string]map[string]int `yaml:"presets"`
}

// Default returns the settings matching the stock rig firmware.
func Default() Config {
	return Config{
		BaudRate:         115200,
		PollQuantumMS:    10,
		ConnectWaitMS:    300,
		CommandTimeoutMS: 2000,
		ProbeTimeoutMS:   2000,
		HeartbeatStaleMS: 10000,
		HTTPAddr:         getenvDefault("PHOTORIG_HTTP_ADDR", "127.0.0.1:8420"),
		LightingChannels: []string{"led_1", "led_2", "all"},
		MaxIntensity:     255,
		PhotoCount:       5,
		PhotoDelayS:      1.0,
	}
}

// Load reads the yaml file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the session cannot run with.
func (c Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("config: baud_rate must be positive, got %d", c.BaudRate)
	}
	if c.CommandTimeoutMS <= 0 {
		return fmt.Errorf("config: command_timeout_ms must be positive, got %d", c.CommandTimeoutMS)
	}
	if c.MaxIntensity < 1 || c.MaxIntensity > 255 {
		return fmt.Errorf("config: max_intensity must be 1-255, got %d", c.MaxIntensity)
	}
	if len(c.LightingChannels) == 0 {
		return fmt.Errorf("config: lighting_channels must not be empty")
	}
	return nil
}

func (c Config) PollQuantum() time.Duration    { return time.Duration(c.PollQuantumMS) * time.Millisecond }
func (c Config) ConnectWait() time.Duration    { return time.Duration(c.ConnectWaitMS) * time.Millisecond }
func (c Config) CommandTimeout() time.Duration { return time.Duration(c.CommandTimeoutMS) * time.Millisecond }
func (c Config) ProbeTimeout() time.Duration   { return time.Duration(c.ProbeTimeoutMS) * time.Millisecond }
func (c Config) HeartbeatStale() time.Duration { return time.Duration(c.HeartbeatStaleMS) * time.Millisecond }

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
