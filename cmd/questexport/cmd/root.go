package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/questexport/internal/config"
	"github.com/dbsmedya/questexport/internal/logger"
	"github.com/dbsmedya/questexport/internal/plugin"
)

// Version information (set via ldflags at build time)
var (
	Version = plugin.Version
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile         string
	logLevel        string
	logFormat       string
	outputDir       string
	intervalSeconds int
)

var rootCmd = &cobra.Command{
	Use:   "questexport",
	Short: "Quest progress exporter",
	Long: `questexport walks a host's record registry on a fixed interval and
writes the progress of every quest to a JSON snapshot file that companion
tools can read.

Features:
  - Periodic collection independent of the host's own update cycle
  - Versioned, configurable record layout contract
  - Atomic snapshot writes (temporary file and rename)
  - Quest catalog status with manual completion overrides
  - Optional MySQL stage history and Prometheus metrics`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "questexport.yaml",
		"Path to configuration file (defaults are used when it does not exist)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "",
		"Override the snapshot directory")
	rootCmd.PersistentFlags().IntVar(&intervalSeconds, "interval", 0,
		"Override seconds between export passes")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel        string
	LogFormat       string
	OutputDir       string
	IntervalSeconds int
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		OutputDir:       outputDir,
		IntervalSeconds: intervalSeconds,
	}
}

// loadConfig loads the config file, applies flag overrides and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	o := GetCLIOverrides()
	cfg.ApplyOverrides(o.LogLevel, o.LogFormat, o.OutputDir, o.IntervalSeconds)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigAndLogger is loadConfig plus the configured logger.
func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}
