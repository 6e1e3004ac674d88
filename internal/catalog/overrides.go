package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultOverridesFile is the overrides file name used next to the snapshot.
const DefaultOverridesFile = "quest_overrides.yaml"

// Override marks a quest completed by hand.
type Override struct {
	Completed bool      `yaml:"completed"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Overrides is the set of manual completions, keyed by Quest.Key.
type Overrides struct {
	path    string
	entries map[string]Override
}

// LoadOverrides reads the overrides file at path. A missing file is an
// empty set that Save will create.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{path: path, entries: make(map[string]Override)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return o, nil
		}
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}
	if err := yaml.Unmarshal(data, &o.entries); err != nil {
		return nil, fmt.Errorf("failed to parse overrides %s: %w", path, err)
	}
	if o.entries == nil {
		o.entries = make(map[string]Override)
	}
	return o, nil
}

// Path returns the file the overrides are saved to.
func (o *Overrides) Path() string {
	return o.path
}

// Completed reports whether key is marked completed. A nil set has no
// overrides.
func (o *Overrides) Completed(key string) bool {
	if o == nil {
		return false
	}
	return o.entries[key].Completed
}

// Get returns the override for key.
func (o *Overrides) Get(key string) (Override, bool) {
	ov, ok := o.entries[key]
	return ov, ok
}

// Set marks key completed at now, or removes its override.
func (o *Overrides) Set(key string, completed bool, now time.Time) {
	if !completed {
		delete(o.entries, key)
		return
	}
	o.entries[key] = Override{Completed: true, UpdatedAt: now.UTC()}
}

// Keys returns the overridden keys in sorted order.
func (o *Overrides) Keys() []string {
	keys := make([]string, 0, len(o.entries))
	for k := range o.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of overrides.
func (o *Overrides) Len() int {
	return len(o.entries)
}

// Save writes the overrides atomically, creating the parent directory.
func (o *Overrides) Save() (err error) {
	data, err := yaml.Marshal(o.entries)
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}

	dir := filepath.Dir(o.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create overrides directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".overrides-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp overrides file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return multierr.Append(fmt.Errorf("failed to write overrides: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close overrides: %w", err)
	}
	if err = os.Rename(tmp.Name(), o.path); err != nil {
		return fmt.Errorf("failed to replace overrides: %w", err)
	}
	return nil
}
