package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

// EnvConfig names the environment variable holding a config file path.
const EnvConfig = "SCURL_CONFIG"

// Config represents the scurl configuration.
type Config struct {
	Headers        []string      `yaml:"headers,omitempty"`         // sent before -H headers
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"` // per connection attempt
	MaxTime        time.Duration `yaml:"max_time,omitempty"`        // per attempt socket deadline
	Rate           float64       `yaml:"rate,omitempty"`            // connection attempts per second
	History        string        `yaml:"history,omitempty"`         // SQLite history database path
	Color          *bool         `yaml:"color,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetColor returns the color setting, defaulting to true.
func (c *Config) GetColor() bool {
	return getBool(c.Color, true)
}

// Load loads configuration from path, or searches the default locations
// when path is empty. It also returns the file that was read, or "".
func Load(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := loadFromFile(path)
		return cfg, path, err
	}

	found := Find()
	if found == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := loadFromFile(found)
	return cfg, found, err
}

// Find returns the first existing config file among $SCURL_CONFIG and the
// user config directory, or "".
func Find() string {
	for _, p := range searchPaths() {
		if p == "" {
			continue
		}
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

func searchPaths() []string {
	paths := []string{os.Getenv(EnvConfig)}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "scurl", "config.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "scurl", "config.yaml"))
	}
	return paths
}

// loadFromFile reads and validates a YAML config file. Unknown keys are
// rejected.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "read config %s", path)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "parse config %s", path)
	}
	cfg.History = expandHome(cfg.History)

	if err := cfg.Validate(); err != nil {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.ConnectTimeout < 0:
		return errors.New("connect_timeout must not be negative")
	case c.MaxTime < 0:
		return errors.New("max_time must not be negative")
	case c.Rate < 0:
		return errors.New("rate must not be negative")
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence.
// Headers are appended after this config's headers.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c
	result.Headers = append([]string(nil), c.Headers...)

	if other.ConnectTimeout > 0 {
		result.ConnectTimeout = other.ConnectTimeout
	}
	if other.MaxTime > 0 {
		result.MaxTime = other.MaxTime
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.History != "" {
		result.History = other.History
	}
	if other.Color != nil {
		result.Color = other.Color
	}
	result.Headers = append(result.Headers, other.Headers...)

	return &result
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
