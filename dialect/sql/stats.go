package sql

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsSession wraps a Session with query statistics collection. Statements
// prepared through it are counted too, so query builders running on a
// StatsSession are measured.
type StatsSession struct {
	Session
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsSession.
type StatsOption func(*StatsSession)

// WithSlowThreshold sets the threshold for slow query detection.
// Queries taking longer than this duration will be counted as slow queries.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsSession) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
// The hook is called whenever a query exceeds the slow threshold.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsSession) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries to the session logger.
// This is a convenience wrapper around WithSlowQueryHook.
func WithSlowQueryLog() StatsOption {
	return func(s *StatsSession) {
		s.slowHook = func(ctx context.Context, query string, args []any, duration time.Duration) {
			s.Logger().WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", args)
		}
	}
}

// NewStatsSession wraps a Session with statistics collection.
//
// Example:
//
//	sess, _ := sql.Open(ctx, "postgres://localhost/app")
//	stats := sql.NewStatsSession(sess,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	q, _ := sql.NewSelect(stats, "users")
//
//	// Later, check statistics:
//	fmt.Println(stats.QueryStats().Stats())
func NewStatsSession(s Session, opts ...StatsOption) *StatsSession {
	ss := &StatsSession{
		Session:       s,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(ss)
	}
	return ss
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (s *StatsSession) QueryStats() *QueryStats {
	return s.stats
}

// SlowThreshold returns the current slow query threshold.
func (s *StatsSession) SlowThreshold() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (s *StatsSession) SetSlowThreshold(threshold time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (s *StatsSession) Query(ctx context.Context, query string, args ...any) (Resultset, error) {
	start := time.Now()
	rs, err := s.Session.Query(ctx, query, args...)
	s.record(ctx, query, args, start, err, true)
	return rs, err
}

// Exec executes a statement and records statistics.
func (s *StatsSession) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	start := time.Now()
	res, err := s.Session.Exec(ctx, query, args...)
	s.record(ctx, query, args, start, err, false)
	return res, err
}

// Prepare prepares a statement whose executions record statistics.
func (s *StatsSession) Prepare(ctx context.Context, query string) (Statement, error) {
	st, err := s.Session.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return &statsStatement{Statement: st, session: s}, nil
}

func (s *StatsSession) record(ctx context.Context, query string, args []any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		s.stats.TotalQueries.Add(1)
	} else {
		s.stats.TotalExecs.Add(1)
	}
	s.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		s.stats.Errors.Add(1)
	}

	s.mu.RLock()
	threshold := s.slowThreshold
	hook := s.slowHook
	s.mu.RUnlock()

	if duration > threshold {
		s.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

// statsStatement wraps a statement with statistics collection.
type statsStatement struct {
	Statement
	session *StatsSession
}

func (st *statsStatement) Query(ctx context.Context) (Resultset, error) {
	start := time.Now()
	rs, err := st.Statement.Query(ctx)
	st.session.record(ctx, st.SQL(), nil, start, err, true)
	return rs, err
}

func (st *statsStatement) Exec(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := st.Statement.Exec(ctx)
	st.session.record(ctx, st.SQL(), nil, start, err, false)
	return res, err
}

// DebugSession wraps a Session with debug logging.
type DebugSession struct {
	Session
	log func(context.Context, ...any)
}

// DebugOption configures the DebugSession.
type DebugOption func(*DebugSession)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugSession) {
		d.log = logFunc
	}
}

// NewDebugSession wraps a Session with debug logging. By default entries
// go to the session logger at info level.
//
// Example:
//
//	sess := sql.NewDebugSession(conn, sql.DebugWithLog(func(ctx context.Context, v ...any) {
//	    log.Println(v...)
//	}))
func NewDebugSession(s Session, opts ...DebugOption) *DebugSession {
	d := &DebugSession{Session: s}
	d.log = func(ctx context.Context, v ...any) {
		d.Logger().InfoContext(ctx, fmt.Sprint(v...))
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query executes a query and logs it.
func (d *DebugSession) Query(ctx context.Context, query string, args ...any) (Resultset, error) {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Session.Query(ctx, query, args...)
}

// Exec executes a statement and logs it.
func (d *DebugSession) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	d.log(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return d.Session.Exec(ctx, query, args...)
}

// Prepare prepares a statement whose executions are logged.
func (d *DebugSession) Prepare(ctx context.Context, query string) (Statement, error) {
	d.log(ctx, fmt.Sprintf("prepare: %s", query))
	st, err := d.Session.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return &debugStatement{Statement: st, log: d.log}, nil
}

// Transaction returns a transaction controller that logs state changes.
func (d *DebugSession) Transaction() Transaction {
	return &debugTx{Transaction: d.Session.Transaction(), log: d.log}
}

type debugStatement struct {
	Statement
	log func(context.Context, ...any)
}

func (st *debugStatement) Query(ctx context.Context) (Resultset, error) {
	st.log(ctx, fmt.Sprintf("stmt query: %s", st.SQL()))
	return st.Statement.Query(ctx)
}

func (st *debugStatement) Exec(ctx context.Context) (Result, error) {
	st.log(ctx, fmt.Sprintf("stmt exec: %s", st.SQL()))
	return st.Statement.Exec(ctx)
}

// debugTx wraps a transaction with debug logging.
type debugTx struct {
	Transaction
	log func(context.Context, ...any)
}

func (tx *debugTx) Start(ctx context.Context) error {
	tx.log(ctx, "begin transaction")
	return tx.Transaction.Start(ctx)
}

func (tx *debugTx) Commit(ctx context.Context) error {
	tx.log(ctx, "commit transaction")
	return tx.Transaction.Commit(ctx)
}

func (tx *debugTx) Rollback(ctx context.Context) error {
	tx.log(ctx, "rollback transaction")
	return tx.Transaction.Rollback(ctx)
}

// Ensure interfaces are implemented.
var (
	_ Session   = (*StatsSession)(nil)
	_ Session   = (*DebugSession)(nil)
	_ Statement = (*statsStatement)(nil)
	_ Statement = (*debugStatement)(nil)
)

// OpenWithStats opens a session with statistics collection enabled.
//
// Example:
//
//	sess, stats, err := sql.OpenWithStats(ctx, "postgres://localhost/app", nil,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//	log.Printf("Query stats: %s", stats.Stats())
func OpenWithStats(ctx context.Context, uri string, opts []Option, statsOpts ...StatsOption) (*StatsSession, *QueryStats, error) {
	c, err := Open(ctx, uri, opts...)
	if err != nil {
		return nil, nil, err
	}
	s := NewStatsSession(c, statsOpts...)
	return s, s.QueryStats(), nil
}
