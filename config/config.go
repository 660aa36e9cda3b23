package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Backend names accepted in Config.Backend.
const (
	BackendSpeaker = "speaker"
	BackendOto     = "oto"
	BackendManual  = "manual"
)

// Config is the on-disk configuration for drumloop.
type Config struct {
	BPM          int    `json:"bpm"`
	SampleRate   int    `json:"sampleRate"`
	BufferMillis int    `json:"bufferMillis"`
	Backend      string `json:"backend"`
	Debug        bool   `json:"debug,omitempty"`
	DebugLog     string `json:"debugLog,omitempty"`

	// Seed fixes the noise generator; 0 means seed from the clock.
	Seed uint64 `json:"seed,omitempty"`
}

// DefaultConfig returns the settings the loop was tuned for.
func DefaultConfig() *Config {
	return &Config{
		BPM:          116,
		SampleRate:   44100,
		BufferMillis: 100,
		Backend:      BackendSpeaker,
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "drumloop"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the default config file, or returns defaults if there is none.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path. Missing fields keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fill()

	return cfg, nil
}

// fill replaces nonsense values with defaults.
func (c *Config) fill() {
	def := DefaultConfig()
	if c.BPM <= 0 {
		c.BPM = def.BPM
	}
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.BufferMillis <= 0 {
		c.BufferMillis = def.BufferMillis
	}
	if c.Backend == "" {
		c.Backend = def.Backend
	}
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating parent directories.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DebugPath returns where the debug log goes.
func (c *Config) DebugPath() string {
	if c.DebugLog != "" {
		return c.DebugLog
	}
	dir, err := Dir()
	if err != nil {
		return "drumloop-debug.log"
	}
	return filepath.Join(dir, "debug.log")
}
