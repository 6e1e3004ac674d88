// Package paths resolves where the snapshot file lives.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultSubdir is the exporter's folder under the save folder.
var DefaultSubdir = filepath.Join("OBSE", "OBRQuestCompanion")

// Resolver builds the snapshot path. An explicit Directory wins; otherwise
// the path is <Documents>/My Games/<SaveFolder>/OBSE/OBRQuestCompanion.
type Resolver struct {
	Directory  string
	SaveFolder string
	Filename   string

	// HomeDir defaults to os.UserHomeDir.
	HomeDir func() (string, error)
}

// Dir returns the snapshot directory.
func (r *Resolver) Dir() (string, error) {
	if r.Directory != "" {
		return filepath.Clean(r.Directory), nil
	}

	docs, err := r.documentsDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve Documents path: %w", err)
	}
	return filepath.Join(docs, "My Games", r.SaveFolder, DefaultSubdir), nil
}

// Path returns the full snapshot file path.
func (r *Resolver) Path() (string, error) {
	if r.Filename == "" {
		return "", errors.New("snapshot filename is not set")
	}
	dir, err := r.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, r.Filename), nil
}

func (r *Resolver) documentsDir() (string, error) {
	homeDir := r.HomeDir
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	if home == "" {
		return "", errors.New("home directory is empty")
	}
	return filepath.Join(home, "Documents"), nil
}
