package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// LoadOrDefault loads configPath when it exists and falls back to defaults
// when it does not. Other read errors are returned.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(configPath)
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Export.Directory = expandEnvVar(cfg.Export.Directory)
	cfg.Host.Fixture = expandEnvVar(cfg.Host.Fixture)
	cfg.Catalog.Directory = expandEnvVar(cfg.Catalog.Directory)
	cfg.Catalog.OverridesFile = expandEnvVar(cfg.Catalog.OverridesFile)

	cfg.History.Database.Host = expandEnvVar(cfg.History.Database.Host)
	cfg.History.Database.User = expandEnvVar(cfg.History.Database.User)
	cfg.History.Database.Password = expandEnvVar(cfg.History.Database.Password)
	cfg.History.Database.Database = expandEnvVar(cfg.History.Database.Database)

	cfg.Metrics.Listen = expandEnvVar(cfg.Metrics.Listen)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, outputDir string, intervalSeconds int) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if outputDir != "" {
		c.Export.Directory = outputDir
	}
	if intervalSeconds > 0 {
		c.Export.IntervalSeconds = intervalSeconds
	}
}
