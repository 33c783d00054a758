package logger

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// loggingFile is the on-disk layout of a logging config file
type loggingFile struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/citygen.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig loads logging configuration from a YAML file and applies
// CITYGEN_LOG_* environment overrides. A missing file yields the defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return config, fmt.Errorf("failed to read logging config: %w", err)
		default:
			// Keys absent from the file keep their default values.
			file := loggingFile{Logging: config}
			if err := yaml.Unmarshal(data, &file); err != nil {
				return config, fmt.Errorf("failed to parse logging config: %w", err)
			}
			config = file.Logging
		}
	}

	applyEnv(&config)
	return config, nil
}

func applyEnv(config *Config) {
	if level := os.Getenv("CITYGEN_LOG_LEVEL"); level != "" {
		config.Level = level
	}
	if format := os.Getenv("CITYGEN_LOG_FORMAT"); format != "" {
		config.ConsoleFormat = format
	}
	if enabled := os.Getenv("CITYGEN_LOG_FILE_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			config.FileEnabled = v
		}
	}
	if path := os.Getenv("CITYGEN_LOG_FILE_PATH"); path != "" {
		config.FilePath = path
	}
}
