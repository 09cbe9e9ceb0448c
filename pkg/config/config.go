package config

import (
	"fmt"
	"os"
	"time"

	"github.com/core-tools/hsu-companion-go/pkg/deployment"
	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/launcher"
	"github.com/core-tools/hsu-companion-go/pkg/logging/zaplogging"
	"github.com/core-tools/hsu-companion-go/pkg/serverpath"
	"github.com/core-tools/hsu-companion-go/pkg/shutdown"

	"gopkg.in/yaml.v3"
)

const DefaultMetricsAddress = "127.0.0.1:9464"

// Config represents the supervisor configuration file. Every section is
// optional; missing values fall back to the layout the shell is packaged with.
type Config struct {
	Companion launcher.Config   `yaml:"companion"`
	Layout    serverpath.Layout `yaml:"layout"`
	Shutdown  shutdown.Config   `yaml:"shutdown"`
	Logging   LoggingConfig     `yaml:"logging"`
	Metrics   MetricsConfig     `yaml:"metrics"`
}

type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig(mode deployment.Mode) *Config {
	config := &Config{}
	setConfigDefaults(config, mode)
	return config
}

// LoadConfigFromFile loads supervisor configuration from a YAML file
func LoadConfigFromFile(filename string, mode deployment.Mode) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	config, err := LoadConfig(data, mode)
	if err != nil {
		return nil, errors.NewValidationError("failed to load configuration", err).WithContext("filename", filename)
	}
	return config, nil
}

// LoadConfig parses YAML configuration and applies defaults
func LoadConfig(data []byte, mode deployment.Mode) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err)
	}

	setConfigDefaults(&config, mode)
	return &config, nil
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if config.Companion.Interpreter == "" {
		return errors.NewValidationError("companion interpreter is required", nil)
	}

	if err := validateLayout(&config.Layout); err != nil {
		return errors.NewValidationError("invalid layout configuration", err)
	}

	if config.Shutdown.ExitWaitTimeout < 0 {
		return errors.NewValidationError("shutdown exit wait timeout cannot be negative", nil).
			WithContext("exit_wait_timeout", config.Shutdown.ExitWaitTimeout.String())
	}

	if _, err := zaplogging.ParseLevel(config.Logging.Level); err != nil {
		return errors.NewValidationError("invalid logging level", err).WithContext("level", config.Logging.Level)
	}

	switch config.Logging.Encoding {
	case zaplogging.EncodingConsole, zaplogging.EncodingJSON:
	default:
		return errors.NewValidationError(fmt.Sprintf("unsupported logging encoding: %s", config.Logging.Encoding), nil).
			WithContext("supported_encodings", "console, json")
	}

	if config.Metrics.Enabled && config.Metrics.Address == "" {
		return errors.NewValidationError("metrics address is required when metrics are enabled", nil)
	}

	return nil
}

func validateLayout(layout *serverpath.Layout) error {
	if layout.ServerDir == "" {
		return errors.NewValidationError("server directory is required", nil)
	}
	if layout.EntryFile == "" {
		return errors.NewValidationError("entry file is required", nil)
	}
	if layout.ResourcesDir == "" {
		return errors.NewValidationError("resources directory is required", nil)
	}
	if layout.DevelopmentDepth < 0 {
		return errors.NewValidationError("development depth cannot be negative", nil).
			WithContext("development_depth", layout.DevelopmentDepth)
	}
	if layout.ProductionDepth < 0 {
		return errors.NewValidationError("production depth cannot be negative", nil).
			WithContext("production_depth", layout.ProductionDepth)
	}
	return nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *Config, mode deployment.Mode) {
	if config.Companion.Interpreter == "" {
		config.Companion.Interpreter = launcher.DefaultInterpreter
	}

	defaults := serverpath.DefaultLayout()
	if config.Layout.ServerDir == "" {
		config.Layout.ServerDir = defaults.ServerDir
	}
	if config.Layout.EntryFile == "" {
		config.Layout.EntryFile = defaults.EntryFile
	}
	if config.Layout.ResourcesDir == "" {
		config.Layout.ResourcesDir = defaults.ResourcesDir
	}
	// A depth of zero would put the entry next to the executable itself,
	// which neither packaged layout does
	if config.Layout.DevelopmentDepth == 0 {
		config.Layout.DevelopmentDepth = defaults.DevelopmentDepth
	}
	if config.Layout.ProductionDepth == 0 {
		config.Layout.ProductionDepth = defaults.ProductionDepth
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Encoding == "" {
		if mode == deployment.Production {
			config.Logging.Encoding = zaplogging.EncodingJSON
		} else {
			config.Logging.Encoding = zaplogging.EncodingConsole
		}
	}

	if config.Metrics.Address == "" {
		config.Metrics.Address = DefaultMetricsAddress
	}
}

// Summary returns a one-line description for startup logs
func (c *Config) Summary() string {
	return fmt.Sprintf("interpreter: %s, entry: %s/%s, development_depth: %d, production_depth: %d, exit_wait_timeout: %v, metrics: %t",
		c.Companion.Interpreter, c.Layout.ServerDir, c.Layout.EntryFile,
		c.Layout.DevelopmentDepth, c.Layout.ProductionDepth,
		c.Shutdown.ExitWaitTimeout.Round(time.Millisecond), c.Metrics.Enabled)
}
