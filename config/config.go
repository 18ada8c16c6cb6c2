// Package config holds the simulator's runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/r5sim/emu"
)

// Config holds the knobs the simulation core consumes. It does not carry
// command-line syntax; the cmd package maps flags onto these values.
type Config struct {
	// MemSize is the simulated memory size in bytes. The program image,
	// stack, and all data live in this single flat region.
	// Default: 16 MiB.
	MemSize uint32 `json:"mem_size"`

	// MaxCycles caps the number of simulated cycles; 0 means no limit.
	// Default: 0.
	MaxCycles uint64 `json:"max_cycles"`

	// StrictAlign makes misaligned data accesses a fatal fault. When
	// false, misaligned accesses are performed byte-by-byte.
	// Default: true.
	StrictAlign bool `json:"strict_align"`

	// Trace enables the per-cycle pipeline state trace.
	// Default: false.
	Trace bool `json:"trace"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		MemSize:     emu.DefaultMemSize,
		MaxCycles:   0,
		StrictAlign: true,
		Trace:       false,
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.MemSize == 0 {
		return fmt.Errorf("mem_size must be > 0")
	}
	if c.MemSize%4 != 0 {
		return fmt.Errorf("mem_size must be a multiple of 4")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
