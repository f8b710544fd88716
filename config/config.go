package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/analyzer"
	"github.com/awion/stadion360/public/simulator"
	"github.com/awion/stadion360/public/store"
	"github.com/awion/stadion360/ui"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

// ErrNotFound is returned by LoadConfig when the file does not exist
var ErrNotFound = errors.New("configuration file does not exist")

// Config represents the application configuration
type Config struct {
	General struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Version     string `yaml:"version"`
	} `yaml:"general"`

	Logging struct {
		Level   string `yaml:"level"`
		File    string `yaml:"file"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"logging"`

	Store store.StoreConfig `yaml:"store"`

	Trash struct {
		Bands []analyzer.BandConfig `yaml:"bands"`
	} `yaml:"trash"`

	Security  analyzer.SecurityConfig    `yaml:"security"`
	Scenarios []simulator.ScenarioConfig `yaml:"scenarios"`

	API struct {
		Enabled         bool   `yaml:"enabled"`
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Metrics         bool   `yaml:"metrics"`
		Realtime        bool   `yaml:"realtime"`
		ShutdownTimeout int    `yaml:"shutdownTimeout"`
	} `yaml:"api"`

	CLI ui.Config `yaml:"cli"`
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, fills defaults and validates it
func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// setDefaults fills in default values for missing configuration
func setDefaults(config *Config) {
	if config.General.Name == "" {
		config.General.Name = "Stadion 360°"
	}
	if config.General.Version == "" {
		config.General.Version = "0.1.0"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	if config.Store.Type == "" {
		config.Store.Type = "memory"
	}
	if config.Store.TrashLocation == "" {
		config.Store.TrashLocation = model.TrackedBin
	}

	if len(config.Trash.Bands) == 0 {
		config.Trash.Bands = analyzer.DefaultBands()
	}

	if config.Security.SweepInterval == 0 {
		config.Security.SweepInterval = 1
	}
	if config.Security.Operator == "" {
		config.Security.Operator = "Sistem"
	}

	if config.API.Host == "" {
		config.API.Host = "127.0.0.1"
	}
	if config.API.Port == 0 {
		config.API.Port = 8080
	}
	if config.API.ShutdownTimeout == 0 {
		config.API.ShutdownTimeout = 5
	}

	if config.CLI.Operator == "" {
		config.CLI.Operator = ui.DefaultOperator
	}
	if config.CLI.HistorySize == 0 {
		config.CLI.HistorySize = 50
	}
}

// validateConfig checks if the configuration is valid
func validateConfig(config *Config) error {
	if _, err := zapcore.ParseLevel(config.Logging.Level); err != nil {
		return fmt.Errorf("unknown log level: %s", config.Logging.Level)
	}

	if config.Store.Type != "memory" {
		return fmt.Errorf("unknown store type: %s", config.Store.Type)
	}

	seen := make(map[string]bool, len(config.Trash.Bands))
	hasFloor := false
	for i, band := range config.Trash.Bands {
		if band.ID == "" {
			return fmt.Errorf("trash band #%d is missing an id", i+1)
		}
		if seen[band.ID] {
			return fmt.Errorf("duplicate trash band id: %s", band.ID)
		}
		seen[band.ID] = true

		if band.Min < 0 || band.Min > 100 {
			return fmt.Errorf("trash band %s has min %d outside 0-100", band.ID, band.Min)
		}
		if band.Min == 0 {
			hasFloor = true
		}
		switch band.Severity {
		case "success", "info", "warning", "error":
		default:
			return fmt.Errorf("trash band %s has unknown severity: %s", band.ID, band.Severity)
		}
		if band.Message == "" {
			return fmt.Errorf("trash band %s is missing a message", band.ID)
		}
	}
	if !hasFloor {
		return fmt.Errorf("trash bands must include one with min 0")
	}

	if config.Security.DangerThreshold < 0 {
		return fmt.Errorf("security dangerThreshold must not be negative")
	}
	if config.Security.AutoResetAfter < 0 {
		return fmt.Errorf("security autoResetAfter must not be negative")
	}
	if config.Security.SweepInterval < 0 {
		return fmt.Errorf("security sweepInterval must not be negative")
	}

	for i, scenario := range config.Scenarios {
		switch scenario.Type {
		case simulator.ScenarioSecurity, simulator.ScenarioTrash, simulator.ScenarioVisitors:
		case "":
			return fmt.Errorf("scenario #%d is missing a type", i+1)
		default:
			return fmt.Errorf("scenario #%d has unknown type: %s", i+1, scenario.Type)
		}

		if scenario.Interval <= 0 {
			return fmt.Errorf("scenario #%d has a non-positive interval", i+1)
		}

		switch scenario.Type {
		case simulator.ScenarioTrash:
			if _, _, err := simulator.ScenarioLevel(scenario); err != nil {
				return fmt.Errorf("scenario #%d: %w", i+1, err)
			}
		case simulator.ScenarioSecurity:
			if _, err := simulator.ScenarioExtended(scenario); err != nil {
				return fmt.Errorf("scenario #%d: %w", i+1, err)
			}
		}
	}

	if config.API.Enabled && (config.API.Port < 1 || config.API.Port > 65535) {
		return fmt.Errorf("api port out of range: %d", config.API.Port)
	}

	return nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	config := &Config{}

	config.General.Name = "Stadion 360°"
	config.General.Description = "Simulated stadium operations dashboard"
	config.General.Version = "0.1.0"

	config.Logging.Level = "info"
	config.Logging.File = "stadion360.log"

	config.Store.Type = "memory"
	config.Store.Gates = append([]string(nil), model.DefaultGates...)
	config.Scenarios = []simulator.ScenarioConfig{}

	config.API.Enabled = true
	config.API.Metrics = true
	config.API.Realtime = true

	config.CLI.LiveFeed = true
	config.CLI.ShowBanner = true

	setDefaults(config)
	return config
}

// SaveConfig writes the configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	return nil
}

// CreateDefaultConfig generates a default configuration file
func CreateDefaultConfig(path string) error {
	return SaveConfig(Default(), path)
}
