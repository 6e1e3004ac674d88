// Package lock guards the stage history table with a MySQL advisory lock so
// that only one exporter records history into it.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrLockTimeout is returned when another exporter holds the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// GET_LOCK wait times in seconds.
const (
	TimeoutImmediate = 0
	TimeoutShort     = 1
)

const historyLockPrefix = "questexport:history:"

// AdvisoryLock is a named GET_LOCK() lock. MySQL drops it with the session,
// so an exporter that dies never leaves the history table locked.
type AdvisoryLock struct {
	db       *sql.DB
	conn     *sql.Conn
	lockName string
	held     bool
}

// NewAdvisoryLock returns an unacquired lock called lockName.
func NewAdvisoryLock(db *sql.DB, lockName string) *AdvisoryLock {
	return &AdvisoryLock{db: db, lockName: lockName}
}

// HistoryLockName maps a history table to its lock name. Anything outside
// [A-Za-z0-9_-] becomes an underscore.
func HistoryLockName(table string) string {
	var b strings.Builder
	b.WriteString(historyLockPrefix)
	for _, r := range table {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NewHistoryLock returns the lock guarding table.
func NewHistoryLock(db *sql.DB, table string) *AdvisoryLock {
	return NewAdvisoryLock(db, HistoryLockName(table))
}

// LockName returns the advisory lock name.
func (a *AdvisoryLock) LockName() string {
	return a.lockName
}

// IsHeld reports whether this instance holds the lock.
func (a *AdvisoryLock) IsHeld() bool {
	return a.held
}

// AcquireLock waits up to timeoutSeconds for the lock. It reports false
// without error when someone else holds it. The session that took the lock
// stays pinned until ReleaseLock.
func (a *AdvisoryLock) AcquireLock(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.held {
		return true, nil
	}

	if a.conn == nil {
		conn, err := a.db.Conn(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to reserve connection for lock: %w", err)
		}
		a.conn = conn
	}

	ok, err := a.query(ctx, "GET_LOCK", "SELECT GET_LOCK(?, ?)", a.lockName, timeoutSeconds)
	if err != nil || !ok {
		a.closeConn()
		return false, err
	}
	a.held = true
	return true, nil
}

// AcquireOrFail takes the lock with TimeoutShort and wraps ErrLockTimeout
// when another exporter already records into the table.
func (a *AdvisoryLock) AcquireOrFail(ctx context.Context) error {
	ok, err := a.AcquireLock(ctx, TimeoutShort)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	}
	return nil
}

// ReleaseLock gives the lock back and returns the pinned session to the
// pool. Releasing a lock that is not held is a no-op.
func (a *AdvisoryLock) ReleaseLock(ctx context.Context) (bool, error) {
	if !a.held {
		return false, nil
	}
	defer a.closeConn()
	a.held = false

	return a.query(ctx, "RELEASE_LOCK", "SELECT RELEASE_LOCK(?)", a.lockName)
}

// query runs a GET_LOCK/RELEASE_LOCK style statement on the pinned session.
// Both return 1 on success, 0 on refusal and NULL on error.
func (a *AdvisoryLock) query(ctx context.Context, fn, stmt string, args ...any) (bool, error) {
	var result sql.NullInt64
	if err := a.conn.QueryRowContext(ctx, stmt, args...).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to execute %s: %w", fn, err)
	}
	if !result.Valid {
		return false, fmt.Errorf("%s returned NULL for lock %q", fn, a.lockName)
	}

	switch result.Int64 {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected %s return value: %d", fn, result.Int64)
	}
}

func (a *AdvisoryLock) closeConn() {
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
}
