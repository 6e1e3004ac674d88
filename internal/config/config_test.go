package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Export.SaveFolder != "Oblivion Remastered" {
		t.Errorf("expected save folder 'Oblivion Remastered', got %s", cfg.Export.SaveFolder)
	}
	if cfg.Export.Filename != "quest_progress.json" {
		t.Errorf("expected filename 'quest_progress.json', got %s", cfg.Export.Filename)
	}
	if cfg.Export.IntervalSeconds != 45 {
		t.Errorf("expected interval 45, got %d", cfg.Export.IntervalSeconds)
	}
	if !cfg.Export.AtomicWrite {
		t.Error("expected atomic writes by default")
	}
	if cfg.Export.NamePrefix != "LOC_FN_" {
		t.Errorf("expected name prefix 'LOC_FN_', got %s", cfg.Export.NamePrefix)
	}
	if cfg.Export.Placeholder != "<unnamed>" {
		t.Errorf("expected placeholder '<unnamed>', got %s", cfg.Export.Placeholder)
	}

	if cfg.Layout.StageOffset != 0xB8 {
		t.Errorf("expected stage offset 0xB8, got 0x%X", cfg.Layout.StageOffset)
	}

	if !cfg.Host.Strict {
		t.Error("expected strict runtime matching by default")
	}
	if cfg.Host.MinimumRuntime != cfg.Host.SupportedRuntime {
		t.Errorf("expected minimum and supported runtime to match, got %s and %s",
			cfg.Host.MinimumRuntime, cfg.Host.SupportedRuntime)
	}

	if cfg.History.Enabled {
		t.Error("history should be disabled by default")
	}
	if cfg.History.Database.Port != 3306 {
		t.Errorf("expected history port 3306, got %d", cfg.History.Database.Port)
	}

	if cfg.Metrics.Listen != "" {
		t.Errorf("metrics endpoint should be off by default, got %s", cfg.Metrics.Listen)
	}

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestExportConfigInterval(t *testing.T) {
	e := ExportConfig{IntervalSeconds: 45}
	if got := e.Interval(); got != 45*time.Second {
		t.Errorf("expected 45s, got %s", got)
	}
}
