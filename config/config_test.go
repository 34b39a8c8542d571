package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 256, cfg.Execution.MaxCallDepth)
	assert.Equal(t, uint(115200), cfg.Peripherals.UARTBaud)
	assert.Equal(t, uint(32), cfg.Peripherals.GPIOPins)
	assert.Equal(t, uint(3), cfg.Peripherals.TimerCount)
	assert.Equal(t, 10*time.Second, cfg.Toolchain.Timeout)
	assert.True(t, cfg.Output.FormatBanner)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scvm.toml")

	cfg := DefaultConfig()
	cfg.Execution.MaxCallDepth = 64
	cfg.Peripherals.UARTBaud = 9600
	cfg.Output.FormatBanner = false

	require.NoError(t, cfg.Save(path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, loaded.Execution.MaxCallDepth)
	assert.Equal(t, uint(9600), loaded.Peripherals.UARTBaud)
	assert.False(t, loaded.Output.FormatBanner)
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadInvalidTOMLIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.toml")
	invalid := "[execution]\nmax_call_depth = \"not a number\"\n"
	require.NoError(t, os.WriteFile(path, []byte(invalid), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "scvm.toml")

	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
