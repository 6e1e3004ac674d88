package lock

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	getLockSQL     = regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")
	releaseLockSQL = regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")
)

func TestHistoryLockName(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"quest_stage_history", "questexport:history:quest_stage_history"},
		{"stages-v2", "questexport:history:stages-v2"},
		{"bad table;drop", "questexport:history:bad_table_drop"},
		{"", "questexport:history:"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, HistoryLockName(tt.table))
		})
	}
}

func TestAcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockSQL).
		WithArgs("questexport:history:h", TimeoutShort).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
	mock.ExpectQuery(releaseLockSQL).
		WithArgs("questexport:history:h").
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(1))

	l := NewHistoryLock(db, "h")
	require.NoError(t, l.AcquireOrFail(context.Background()))
	assert.True(t, l.IsHeld())

	// A second acquire is a no-op while held.
	ok, err := l.AcquireLock(context.Background(), TimeoutShort)
	require.NoError(t, err)
	assert.True(t, ok)

	released, err := l.ReleaseLock(context.Background())
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, l.IsHeld())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireOrFail_HeldElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(0))

	l := NewHistoryLock(db, "h")
	err = l.AcquireOrFail(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockTimeout))
	assert.False(t, l.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireLock_NullResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(nil))

	l := NewAdvisoryLock(db, "x")
	ok, err := l.AcquireLock(context.Background(), TimeoutImmediate)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "NULL")
}

func TestAcquireLock_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockSQL).WillReturnError(errors.New("connection reset"))

	l := NewAdvisoryLock(db, "x")
	ok, err := l.AcquireLock(context.Background(), TimeoutImmediate)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection reset")
}

func TestReleaseLock_NotHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	l := NewAdvisoryLock(db, "x")
	released, err := l.ReleaseLock(context.Background())
	assert.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseLock_OwnedByAnotherSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(getLockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
	mock.ExpectQuery(releaseLockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(0))

	l := NewAdvisoryLock(db, "x")
	ok, err := l.AcquireLock(context.Background(), TimeoutImmediate)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := l.ReleaseLock(context.Background())
	assert.NoError(t, err)
	assert.False(t, released)
	assert.False(t, l.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}
