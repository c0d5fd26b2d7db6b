package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/filein/internal/util"
)

// ErrBadConfiguration is returned for configurations that cannot drive a source
var ErrBadConfiguration = errors.New("bad configuration")

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultBlockSize is the maximum number of bytes read into the emitted packet
	DefaultBlockSize uint32 = 2048

	// DefaultStart is the playback start in seconds
	DefaultStart = 0.0

	DefaultLogLvl = util.InfoLevel
)

// Verbosity levels as given on the command line or in config files.
// Higher is chattier.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Config contains runtime configuration values for a source instance.
type Config struct {
	LogLvl    util.LogLevel
	Src       string  // Location of the source content: path, file: or file:// URL (required)
	BlockSize uint32  // Maximum bytes read/emitted (Default 2048)
	Start     float64 // Playback start in seconds applied before the first packet (Default 0)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	LogLvl    *int     `yaml:"verbose,omitempty" json:"verbose,omitempty" toml:"verbose,omitempty"` // 1 (error) to 5 (trace)
	Src       *string  `yaml:"src,omitempty" json:"src,omitempty" toml:"src,omitempty"`
	BlockSize *uint32  `yaml:"block_size,omitempty" json:"block_size,omitempty" toml:"block_size,omitempty"`
	Start     *float64 `yaml:"start,omitempty" json:"start,omitempty" toml:"start,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
// Src has no default and must be provided.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:    DefaultLogLvl,
		BlockSize: DefaultBlockSize,
		Start:     DefaultStart,
	}
}

// NewConfig creates a Config from defaults with override applied. A nil override
// yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerbosityLevel(*override.LogLvl)
	}
	if override.Src != nil {
		c.Src = *override.Src
	}
	if override.BlockSize != nil {
		c.BlockSize = *override.BlockSize
	}
	if override.Start != nil {
		c.Start = *override.Start
	}
}

// Validate reports whether the config can drive a source. Errors wrap
// [ErrBadConfiguration].
func (c *Config) Validate() error {
	if c.Src == "" {
		return fmt.Errorf("%w: src is required", ErrBadConfiguration)
	}
	if c.BlockSize == 0 {
		return fmt.Errorf("%w: block_size must be positive", ErrBadConfiguration)
	}
	if c.BlockSize == math.MaxUint32 {
		return fmt.Errorf("%w: block_size %d leaves no room for the sentinel byte", ErrBadConfiguration, c.BlockSize)
	}
	if c.Start < 0 || math.IsNaN(c.Start) || math.IsInf(c.Start, 0) {
		return fmt.Errorf("%w: start must be a non-negative number of seconds", ErrBadConfiguration)
	}
	return nil
}

// VerbosityLevel converts a 1 (error) to 5 (trace) verbosity into a log level.
// Out of range values are clamped.
func VerbosityLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(verbose, TraceVerbose))
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports YAML (.yaml, .yml), JSON (.json) and TOML (.toml) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &override)
	case ".json":
		err = json.Unmarshal(data, &override)
	case ".toml":
		err = toml.Unmarshal(data, &override)
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
