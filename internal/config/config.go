// Package config provides configuration structures and loading for questexport.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Layout  LayoutConfig  `yaml:"layout" mapstructure:"layout"`
	Host    HostConfig    `yaml:"host" mapstructure:"host"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ExportConfig controls what is collected and where the snapshot is written.
type ExportConfig struct {
	Directory       string `yaml:"directory" mapstructure:"directory"`     // overrides the Documents-derived location
	SaveFolder      string `yaml:"save_folder" mapstructure:"save_folder"` // "My Games/<save_folder>"
	Filename        string `yaml:"filename" mapstructure:"filename"`
	IntervalSeconds int    `yaml:"interval_seconds" mapstructure:"interval_seconds"`
	AtomicWrite     bool   `yaml:"atomic_write" mapstructure:"atomic_write"`
	RecordKind      string `yaml:"record_kind" mapstructure:"record_kind"`
	NamePrefix      string `yaml:"name_prefix" mapstructure:"name_prefix"`
	Placeholder     string `yaml:"placeholder" mapstructure:"placeholder"`
}

// LayoutConfig describes the assumed host record layout.
type LayoutConfig struct {
	Version     string `yaml:"version" mapstructure:"version"`
	StageOffset int    `yaml:"stage_offset" mapstructure:"stage_offset"`
}

// HostConfig describes the host the exporter attaches to.
type HostConfig struct {
	Fixture          string `yaml:"fixture" mapstructure:"fixture"` // YAML registry fixture for the standalone host
	MinimumRuntime   string `yaml:"minimum_runtime" mapstructure:"minimum_runtime"`
	SupportedRuntime string `yaml:"supported_runtime" mapstructure:"supported_runtime"`
	Strict           bool   `yaml:"strict" mapstructure:"strict"`
}

// CatalogConfig points at the quest catalog and the manual overrides file.
type CatalogConfig struct {
	Directory     string `yaml:"directory" mapstructure:"directory"`           // empty disables status reporting
	OverridesFile string `yaml:"overrides_file" mapstructure:"overrides_file"` // defaults to quest_overrides.yaml next to the snapshot
}

// HistoryConfig controls the optional MySQL stage history.
type HistoryConfig struct {
	Enabled  bool           `yaml:"enabled" mapstructure:"enabled"`
	Table    string         `yaml:"table" mapstructure:"table"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"` // empty disables the endpoint
	Path   string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			SaveFolder:      "Oblivion Remastered",
			Filename:        "quest_progress.json",
			IntervalSeconds: 45,
			AtomicWrite:     true,
			RecordKind:      "quest",
			NamePrefix:      "LOC_FN_",
			Placeholder:     "<unnamed>",
		},
		Layout: LayoutConfig{
			Version:     "obse64-1",
			StageOffset: 0xB8,
		},
		Host: HostConfig{
			MinimumRuntime:   "0.411.140.0",
			SupportedRuntime: "0.411.140.0",
			Strict:           true,
		},
		History: HistoryConfig{
			Enabled: false,
			Table:   "quest_stage_history",
			Database: DatabaseConfig{
				Port:               3306,
				TLS:                "preferred",
				MaxConnections:     2,
				MaxIdleConnections: 1,
			},
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Interval returns the pass interval as a duration.
func (e ExportConfig) Interval() time.Duration {
	return time.Duration(e.IntervalSeconds) * time.Second
}
