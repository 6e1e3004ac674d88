// Package history records quest stage transitions into MySQL.
//
// The recorder is a pass observer: it diffs each pass against the previous
// one it saw and inserts one row per changed quest. The first pass after
// start records every quest with a NULL previous stage.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-sql-driver/mysql"

	"github.com/dbsmedya/questexport/internal/logger"
	"github.com/dbsmedya/questexport/internal/scheduler"
	"github.com/dbsmedya/questexport/internal/snapshot"
	"github.com/dbsmedya/questexport/internal/sqlutil"
)

// nameColumnWidth is the width of the name column in characters.
const nameColumnWidth = 255

// MySQL errors that abort the whole transaction rather than one statement.
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// Recorder writes stage changes to a history table.
type Recorder struct {
	db     *sql.DB
	table  string // quoted
	logger *logger.Logger
	now    func() time.Time

	mu   sync.Mutex
	last snapshot.Snapshot
}

// NewRecorder creates a Recorder for table. The name must be a plain
// identifier.
func NewRecorder(db *sql.DB, table string, log *logger.Logger) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("history database is nil")
	}
	quoted, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return nil, fmt.Errorf("history table: %w", err)
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Recorder{
		db:     db,
		table:  quoted,
		logger: log,
		now:    time.Now,
	}, nil
}

// EnsureSchema creates the history table if it does not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  form_id INT UNSIGNED NOT NULL,
  name VARCHAR(%d) NOT NULL,
  change_kind VARCHAR(16) NOT NULL,
  previous_stage SMALLINT UNSIGNED NULL,
  stage SMALLINT UNSIGNED NOT NULL,
  observed_at DATETIME NOT NULL,
  KEY idx_form_observed (form_id, observed_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, r.table, nameColumnWidth)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}

// Record stores the changes between the last recorded snapshot and snap.
// It returns the number of rows inserted. An empty snapshot is ignored so
// that a host that is still loading does not register every quest as removed.
// Rows the server rejects are logged and skipped; any other failure rolls
// back and leaves the baseline in place so the changes are retried.
func (r *Recorder) Record(ctx context.Context, snap snapshot.Snapshot) (int, error) {
	if snap.Empty() {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	changes := snapshot.Diff(r.last, snap)
	if len(changes) == 0 {
		r.last = snap
		return 0, nil
	}

	n, err := r.insert(ctx, changes)
	if err != nil {
		return 0, err
	}

	r.last = snap
	return n, nil
}

func (r *Recorder) insert(ctx context.Context, changes []snapshot.Change) (inserted int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Warnf("Failed to roll back history transaction: %v", rbErr)
			}
		}
	}()

	query := fmt.Sprintf(
		"INSERT INTO %s (form_id, name, change_kind, previous_stage, stage, observed_at) VALUES (?, ?, ?, ?, ?, ?)",
		r.table,
	)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	observedAt := r.now().UTC()
	for _, c := range changes {
		var previous sql.NullInt64
		if c.Previous != nil {
			previous = sql.NullInt64{Int64: int64(*c.Previous), Valid: true}
		}
		formID := snapshot.FormatFormID(c.FormID)

		_, execErr := stmt.ExecContext(ctx, c.FormID, columnName(c.Name), string(c.Kind), previous, c.Stage, observedAt)
		if execErr == nil {
			inserted++
			continue
		}
		if rowRejected(execErr) {
			r.logger.Warnw("Skipping history row rejected by the server", "form_id", formID, "error", execErr)
			continue
		}
		err = fmt.Errorf("failed to insert history row for %s: %w", formID, execErr)
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit history: %w", err)
	}
	return inserted, nil
}

// columnName makes name storable in the name column: invalid UTF-8 is
// replaced and the result is cut to the column width.
func columnName(name string) string {
	name = strings.ToValidUTF8(name, "\uFFFD")
	if utf8.RuneCountInString(name) <= nameColumnWidth {
		return name
	}
	runes := []rune(name)
	return string(runes[:nameColumnWidth])
}

// rowRejected reports whether the server refused a single row. Such a row
// would fail the same way on every retry. Deadlocks and lock wait timeouts
// roll back the transaction and are retried instead.
func rowRejected(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number != errDeadlock && myErr.Number != errLockWaitTimeout
}

// Observe is a scheduler.Observer. Errors are logged; the previous snapshot
// is kept so the same changes are retried on the next pass.
func (r *Recorder) Observe(ctx context.Context, res scheduler.PassResult) {
	n, err := r.Record(ctx, res.Snapshot)
	if err != nil {
		r.logger.Errorw("Failed to record stage history", "pass", res.ID, "error", err)
		return
	}
	if n > 0 {
		r.logger.Infow("Recorded stage history", "pass", res.ID, "changes", n)
	}
}
