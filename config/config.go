package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go-sampler/midi"
)

// InputConfig defines a saved MIDI input port
type InputConfig struct {
	PortName    string `json:"portName"`
	AutoConnect bool   `json:"autoConnect"`
	Channel     int    `json:"channel,omitempty"` // 1-16, 0 for omni
}

// EngineConfig tunes the dispatcher
type EngineConfig struct {
	Seed int64 `json:"seed,omitempty"` // rand seed for lorand/hirand, 0 picks one from the clock
}

// Config is the main configuration structure
type Config struct {
	Inputs     []InputConfig `json:"inputs,omitempty"`
	Instrument string        `json:"instrument,omitempty"` // last loaded instrument file
	Engine     EngineConfig  `json:"engine,omitempty"`
	Palette    string        `json:"palette,omitempty"` // GIMP .gpl file for the monitor, built-in if empty
	Debug      bool          `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-sampler"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, or returns defaults if it does not exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindInput finds an input config by port name
func (c *Config) FindInput(portName string) *InputConfig {
	for i := range c.Inputs {
		if c.Inputs[i].PortName == portName {
			return &c.Inputs[i]
		}
	}
	return nil
}

// AddInput adds or updates an input config
func (c *Config) AddInput(in InputConfig) {
	for i := range c.Inputs {
		if c.Inputs[i].PortName == in.PortName {
			c.Inputs[i] = in
			return
		}
	}
	c.Inputs = append(c.Inputs, in)
}

// AutoConnectInputs returns inputs with autoConnect enabled
func (c *Config) AutoConnectInputs() []InputConfig {
	var result []InputConfig
	for _, in := range c.Inputs {
		if in.AutoConnect {
			result = append(result, in)
		}
	}
	return result
}

// PortFilter opens the auto-connect inputs, matching port names by
// case-insensitive substring. Without saved inputs every port is opened.
func (c *Config) PortFilter() midi.PortFilter {
	inputs := c.AutoConnectInputs()
	if len(c.Inputs) == 0 {
		return midi.AllPorts
	}
	return func(portName string) (int, bool) {
		name := strings.ToLower(portName)
		for _, in := range inputs {
			if strings.Contains(name, strings.ToLower(in.PortName)) {
				if in.Channel >= 1 && in.Channel <= 16 {
					return in.Channel - 1, true
				}
				return -1, true
			}
		}
		return 0, false
	}
}
