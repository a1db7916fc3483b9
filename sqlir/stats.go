package sqlir

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// QueryStats holds query execution statistics for a Driver, surfaced to
// operators through a /metrics-style endpoint or periodic logging (spec
// SPEC_FULL.md ambient stack: structured logging via log/slog).
type QueryStats struct {
	TotalQueries  atomic.Int64
	TotalExecs    atomic.Int64
	TotalDuration atomic.Int64 // nanoseconds
	SlowQueries   atomic.Int64
	Errors        atomic.Int64
}

// Stats returns a point-in-time snapshot.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset zeroes all counters.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is an immutable copy of QueryStats.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration is the mean duration across queries and execs.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is invoked whenever a statement exceeds the configured
// slow-query threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps a Driver, recording QueryStats for every statement it
// executes, so a caller can log slow statements without each operation
// having to thread timing logic through itself. Package resolver does
// not use it; it runs on a plain *Driver.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow-query threshold (default 100ms).
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.slowThreshold = d }
}

// WithSlowQueryHook installs a custom slow-query callback.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) { s.slowHook = hook }
}

// WithSlowQueryLog logs slow queries via log/slog at warn level.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, args []any, duration time.Duration) {
		slog.Warn("slow query", "duration", duration, "query", query, "args", args)
	})
}

// NewStatsDriver wraps drv with statistics collection.
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}, slowThreshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the live counters.
func (d *StatsDriver) QueryStats() *QueryStats { return d.stats }

// SlowThreshold returns the current threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the threshold at runtime.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a rendered query, recording statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	start := time.Now()
	rows, err := d.Driver.Conn.Query(ctx, query, args)
	d.record(ctx, query, args, start, err, true)
	return rows, err
}

// Exec executes a rendered statement, recording statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args []any) error {
	start := time.Now()
	err := d.Driver.Conn.Exec(ctx, query, args)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args []any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold, hook := d.slowThreshold, d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

// Tx starts a transaction whose statements also feed these statistics.
func (d *StatsDriver) Tx(ctx context.Context) (*StatsTx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx is a transaction wrapped for statistics collection.
type StatsTx struct {
	*Tx
	driver *StatsDriver
}

// Query executes within the transaction, recording statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	start := time.Now()
	rows, err := tx.Tx.Conn.Query(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err, true)
	return rows, err
}

// Exec executes within the transaction, recording statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args []any) error {
	start := time.Now()
	err := tx.Tx.Conn.Exec(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err, false)
	return err
}

// DebugDriver wraps a Driver, logging every statement it executes.
type DebugDriver struct {
	*Driver
	log func(context.Context, ...any)
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog installs a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) { d.log = logFunc }
}

// NewDebugDriver wraps drv, logging every statement via log/slog by
// default.
func NewDebugDriver(drv *Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(_ context.Context, v ...any) {
			slog.Info(fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query logs then executes a rendered query.
func (d *DebugDriver) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.Conn.Query(ctx, query, args)
}

// Exec logs then executes a rendered statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args []any) error {
	d.log(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return d.Driver.Conn.Exec(ctx, query, args)
}

// Tx starts a transaction that also logs its statements.
func (d *DebugDriver) Tx(ctx context.Context) (*DebugTx, error) {
	d.log(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx is a transaction wrapped for statement logging.
type DebugTx struct {
	*Tx
	log func(context.Context, ...any)
}

// Query logs then executes within the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	tx.log(ctx, fmt.Sprintf("tx query: %s args: %v", query, args))
	return tx.Tx.Conn.Query(ctx, query, args)
}

// Exec logs then executes within the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args []any) error {
	tx.log(ctx, fmt.Sprintf("tx exec: %s args: %v", query, args))
	return tx.Tx.Conn.Exec(ctx, query, args)
}

// Commit commits and logs the transaction boundary.
func (tx *DebugTx) Commit() error {
	tx.log(context.Background(), "commit transaction")
	return tx.Tx.Tx.Commit()
}

// Rollback rolls back and logs the transaction boundary.
func (tx *DebugTx) Rollback() error {
	tx.log(context.Background(), "rollback transaction")
	return tx.Tx.Tx.Rollback()
}
