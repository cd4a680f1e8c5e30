package config

import "time"

// DefaultConnectTimeout bounds a TCP connect when nothing else is set.
const DefaultConnectTimeout = 30 * time.Second

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return len(c.Headers) == 0 &&
		c.ConnectTimeout == d.ConnectTimeout &&
		c.MaxTime == d.MaxTime &&
		c.Rate == d.Rate &&
		c.History == d.History &&
		c.Color == nil
}
