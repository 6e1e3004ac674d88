package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverrides_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quest_overrides.yaml")

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, path, o.Path())
	assert.Equal(t, 0, o.Len())
	assert.False(t, o.Completed("anything"))
}

func TestOverrides_NilHasNone(t *testing.T) {
	var o *Overrides
	assert.False(t, o.Completed("Intro"))
}

func TestOverrides_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "quest_overrides.yaml")
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	o.Set("Intro", true, now)
	o.Set("Escape", true, now)
	require.NoError(t, o.Save())

	reloaded, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Escape", "Intro"}, reloaded.Keys())
	assert.True(t, reloaded.Completed("Intro"))

	ov, ok := reloaded.Get("Intro")
	require.True(t, ok)
	assert.True(t, ov.UpdatedAt.Equal(now))
	assert.Equal(t, time.UTC, ov.UpdatedAt.Location())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOverrides_ClearRemovesEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quest_overrides.yaml")

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	o.Set("Intro", true, time.Now())
	o.Set("Intro", false, time.Now())
	o.Set("Never", false, time.Now())
	assert.Equal(t, 0, o.Len())
	_, ok := o.Get("Intro")
	assert.False(t, ok)

	require.NoError(t, o.Save())
	reloaded, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Keys())
}

func TestLoadOverrides_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quest_overrides.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	o.Set("Intro", true, time.Now())
	assert.True(t, o.Completed("Intro"))
}

func TestLoadOverrides_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quest_overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o644))

	_, err := LoadOverrides(path)
	assert.Error(t, err)
}

func TestLoadOverrides_HandWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quest_overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Intro:\n  completed: true\nEscape:\n  completed: false\n"), 0o644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.True(t, o.Completed("Intro"))
	assert.False(t, o.Completed("Escape"))
}
