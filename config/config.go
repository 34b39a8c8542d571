// Package config loads the toolchain's scvm.toml configuration file,
// following the teacher's struct-of-structs-with-toml-tags pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full toolchain configuration.
type Config struct {
	Execution struct {
		MaxCallDepth int `toml:"max_call_depth"`
	} `toml:"execution"`

	Peripherals struct {
		UARTBaud   uint `toml:"uart_baud"`
		GPIOPins   uint `toml:"gpio_pins"`
		TimerCount uint `toml:"timer_count"`
	} `toml:"peripherals"`

	Toolchain struct {
		AssemblerPath string        `toml:"assembler_path"`
		EmulatorPath  string        `toml:"emulator_path"`
		Timeout       time.Duration `toml:"timeout"`
	} `toml:"toolchain"`

	Output struct {
		FormatBanner bool `toml:"format_banner"`
	} `toml:"output"`
}

// DefaultConfig returns the toolchain's built-in defaults, used whenever
// no config file is present.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCallDepth = 256

	cfg.Peripherals.UARTBaud = 115200
	cfg.Peripherals.GPIOPins = 32
	cfg.Peripherals.TimerCount = 3

	cfg.Toolchain.AssemblerPath = "scasm"
	cfg.Toolchain.EmulatorPath = "scvm-run"
	cfg.Toolchain.Timeout = 10 * time.Second

	cfg.Output.FormatBanner = true

	return cfg
}

// Load reads cfg from path, layered over DefaultConfig. A missing file is
// not an error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
