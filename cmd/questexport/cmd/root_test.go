package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigFile(t *testing.T) {
	// Save original value and restore after test
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "default config file",
			cfgValue: "",
			want:     "",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
		{
			name:     "config file with spaces",
			cfgValue: "/path/to/my config.yaml",
			want:     "/path/to/my config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	originalLogLevel := logLevel
	originalLogFormat := logFormat
	originalOutputDir := outputDir
	originalInterval := intervalSeconds
	defer func() {
		logLevel = originalLogLevel
		logFormat = originalLogFormat
		outputDir = originalOutputDir
		intervalSeconds = originalInterval
	}()

	tests := []struct {
		name      string
		logLevel  string
		logFormat string
		outputDir string
		interval  int
		want      CLIOverrides
	}{
		{
			name: "empty overrides",
			want: CLIOverrides{},
		},
		{
			name:      "all overrides set",
			logLevel:  "debug",
			logFormat: "text",
			outputDir: "/tmp/quests",
			interval:  10,
			want: CLIOverrides{
				LogLevel:        "debug",
				LogFormat:       "text",
				OutputDir:       "/tmp/quests",
				IntervalSeconds: 10,
			},
		},
		{
			name:     "interval only",
			interval: 90,
			want:     CLIOverrides{IntervalSeconds: 90},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logLevel = tt.logLevel
			logFormat = tt.logFormat
			outputDir = tt.outputDir
			intervalSeconds = tt.interval

			assert.Equal(t, tt.want, GetCLIOverrides())
		})
	}
}

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "questexport", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.True(t, rootCmd.SilenceUsage)

	for _, name := range []string{"config", "log-level", "log-format", "output-dir", "interval"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	cfgFile = t.TempDir() + "/missing.yaml"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "quest_progress.json", cfg.Export.Filename)
	assert.Equal(t, 45, cfg.Export.IntervalSeconds)
}

func TestLoadConfig_AppliesOverrides(t *testing.T) {
	env := newTestEnv(t, testFixture)

	originalInterval := intervalSeconds
	defer func() { intervalSeconds = originalInterval }()

	outputDir = env.dir
	intervalSeconds = 5

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, env.dir, cfg.Export.Directory)
	assert.Equal(t, 5, cfg.Export.IntervalSeconds)
}
