package sqlir

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsDriverRecordsQueriesAndExecs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sd := NewStatsDriver(OpenDB(db))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows, err := sd.Query(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	mock.ExpectExec("INSERT INTO todos").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, sd.Exec(context.Background(), "INSERT INTO todos (title) VALUES ($1)", []any{"x"}))

	snap := sd.QueryStats().Stats()
	assert.EqualValues(t, 1, snap.TotalQueries)
	assert.EqualValues(t, 1, snap.TotalExecs)
	assert.EqualValues(t, 0, snap.Errors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsDriverCountsErrorsAndSlowQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var hookCalls int
	sd := NewStatsDriver(OpenDB(db),
		WithSlowThreshold(-1*time.Nanosecond),
		WithSlowQueryHook(func(context.Context, string, []any, time.Duration) { hookCalls++ }),
	)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows, err := sd.Query(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	mock.ExpectExec("INSERT").WillReturnError(assertErr)

	_ = sd.Exec(context.Background(), "INSERT INTO todos DEFAULT VALUES", nil)

	snap := sd.QueryStats().Stats()
	assert.EqualValues(t, 1, snap.Errors)
	assert.EqualValues(t, 2, snap.SlowQueries)
	assert.Equal(t, 2, hookCalls)
}

func TestQueryStatsResetZeroesCounters(t *testing.T) {
	stats := &QueryStats{}
	stats.TotalQueries.Store(5)
	stats.Errors.Store(2)
	stats.Reset()
	snap := stats.Stats()
	assert.Zero(t, snap.TotalQueries)
	assert.Zero(t, snap.Errors)
}

func TestStatsSnapshotAvgQueryDuration(t *testing.T) {
	snap := StatsSnapshot{TotalQueries: 2, TotalExecs: 2, TotalDuration: 40 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, snap.AvgQueryDuration())

	empty := StatsSnapshot{}
	assert.Zero(t, empty.AvgQueryDuration())
}

func TestDebugDriverLogsBeforeDelegating(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var logged []string
	dd := NewDebugDriver(OpenDB(db), DebugWithLog(func(_ context.Context, v ...any) {
		logged = append(logged, v[0].(string))
	}))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows, err := dd.Query(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "query: SELECT 1")
}

func TestDebugTxLogsLifecycleEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var logged []string
	dd := NewDebugDriver(OpenDB(db), DebugWithLog(func(_ context.Context, v ...any) {
		logged = append(logged, v[0].(string))
	}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO todos").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := dd.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO todos DEFAULT VALUES", nil))
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"begin transaction", "tx exec: INSERT INTO todos DEFAULT VALUES args: []", "commit transaction"}, logged)
}

var assertErr = &mockError{"constraint failed"}

type mockError struct{ s string }

func (e *mockError) Error() string { return e.s }
