package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/dbsmedya/questexport/internal/logger"
)

// ErrEmptySnapshot is returned when there is nothing to write. The existing
// file is left untouched.
var ErrEmptySnapshot = errors.New("snapshot is empty")

// Writer persists snapshots to disk.
type Writer struct {
	atomic bool
	now    func() time.Time
	logger *logger.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithAtomicRename writes to a temporary file in the target directory and
// renames it into place, so readers never observe a partial document.
func WithAtomicRename(enabled bool) WriterOption {
	return func(w *Writer) { w.atomic = enabled }
}

// WithClock overrides the clock used for generated_at_utc.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// NewWriter creates a Writer. A nil logger uses the default logger.
func NewWriter(log *logger.Logger, opts ...WriterOption) *Writer {
	if log == nil {
		log = logger.NewDefault()
	}
	w := &Writer{
		now:    time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Persist writes snap to path and reports whether a document was written.
// Failures are logged, never returned.
func (w *Writer) Persist(snap Snapshot, path string) bool {
	if err := w.WriteFile(snap, path); err != nil {
		if errors.Is(err, ErrEmptySnapshot) {
			w.logger.Debugw("Nothing to export, keeping previous snapshot", "path", path)
			return false
		}
		w.logger.Errorw("Failed to write snapshot", "path", path, "error", err)
		return false
	}
	w.logger.Debugw("Snapshot written", "path", path, "entries", len(snap))
	return true
}

// WriteFile writes snap to path. An empty snapshot returns ErrEmptySnapshot
// without touching the filesystem.
func (w *Writer) WriteFile(snap Snapshot, path string) error {
	if snap.Empty() {
		return ErrEmptySnapshot
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	generatedAt := w.now()
	if w.atomic {
		return writeAtomic(snap, path, generatedAt)
	}
	return writeTruncate(snap, path, generatedAt)
}

// writeTruncate rewrites path in place within one open session.
func writeTruncate(snap Snapshot, path string, generatedAt time.Time) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := Encode(f, snap, generatedAt); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// writeAtomic encodes into a sibling temporary file and renames it over path.
func writeAtomic(snap Snapshot, path string, generatedAt time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if err := Encode(tmp, snap, generatedAt); err != nil {
		return multierr.Combine(
			fmt.Errorf("failed to encode snapshot: %w", err),
			tmp.Close(),
			os.Remove(tmpName),
		)
	}
	if err := tmp.Close(); err != nil {
		return multierr.Combine(
			fmt.Errorf("failed to close temporary snapshot file: %w", err),
			os.Remove(tmpName),
		)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return multierr.Combine(
			fmt.Errorf("failed to set snapshot permissions: %w", err),
			os.Remove(tmpName),
		)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return multierr.Combine(
			fmt.Errorf("failed to move snapshot into place: %w", err),
			os.Remove(tmpName),
		)
	}
	return nil
}
