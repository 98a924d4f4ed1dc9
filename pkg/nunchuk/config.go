package nunchuk

import (
	"flag"
	"time"
)

// Config defines the configurations for the pad driver.
type Config struct {
	// Obfuscated keeps the vendor byte obfuscation on instead of
	// switching the device to plain reporting.
	Obfuscated bool
	// Debug enables the identification query during Init.
	Debug bool
	// Interval is the polling period.
	Interval time.Duration
	// Verbose prints decoded pad state changes.
	Verbose bool
}

var defaultConfig = Config{
	Interval: 20 * time.Millisecond,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.Obfuscated, "pad-obfuscated", defaultConfig.Obfuscated, "Keep vendor byte obfuscation on.")
	flag.BoolVar(&defaultConfig.Debug, "pad-debug", defaultConfig.Debug, "Query and log pad identification on init.")
	flag.DurationVar(&defaultConfig.Interval, "pad-interval", defaultConfig.Interval, "Pad polling interval.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print pad state changes.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Mode maps the config to a reporting mode.
func (c *Config) Mode() Mode {
	if c.Obfuscated {
		return ModeObfuscated
	}
	return ModePlain
}

// NewDevice creates a Device over bus using the config.
func (c *Config) NewDevice(bus Bus) *Device {
	d := New(bus)
	d.mode = c.Mode()
	d.debug = c.Debug
	return d
}
