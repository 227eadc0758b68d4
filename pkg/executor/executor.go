package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kasuganosora/tablerow/pkg/monitor"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
	"github.com/kasuganosora/tablerow/pkg/virtual"
)

// ErrClosed is returned by an executor after Close.
var ErrClosed = errors.New("executor is closed")

// Options 执行器配置
type Options struct {
	// DSN is the modernc.org/sqlite data source name. Defaults to ":memory:".
	DSN string
	// RowIDBase is the row id given to the first row of a scan that has no
	// explicit id.
	RowIDBase int64
	// SlowQueryThreshold enables the slow query log when positive.
	SlowQueryThreshold time.Duration
	// SlowQueryMaxEntries bounds the slow query log.
	SlowQueryMaxEntries int
	Metrics             *monitor.MetricsCollector
	Logger              *slog.Logger
}

// Executor runs SQL over virtual tables through SQLite. Each registered
// virtual table becomes a SQLite virtual table whose rows are pulled through
// the TableRow contract on every scan.
//
// An executor owns exactly one connection: its module is attached to that
// connection only, and an in-memory database lives and dies with it.
type Executor struct {
	id        string
	module    string
	db        *sql.DB
	conn      *sql.Conn
	registry  *virtual.Registry
	metrics   *monitor.MetricsCollector
	slow      *monitor.SlowQueryAnalyzer
	logger    *slog.Logger
	rowIDBase int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	// stmtMu serializes statements on conn; cursorErr holds the first error
	// a virtual table cursor hit during the running statement.
	stmtMu    sync.Mutex
	errMu     sync.Mutex
	cursorErr error
}

// Open 创建执行器
func Open(opts Options) (*Executor, error) {
	if opts.DSN == "" {
		opts.DSN = ":memory:"
	}
	if opts.RowIDBase == 0 {
		opts.RowIDBase = 1
	}
	if opts.SlowQueryMaxEntries <= 0 {
		opts.SlowQueryMaxEntries = 100
	}
	if opts.Metrics == nil {
		opts.Metrics = monitor.NewMetricsCollector()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		id:        id,
		registry:  virtual.NewRegistry(),
		metrics:   opts.Metrics,
		slow:      monitor.NewSlowQueryAnalyzer(opts.SlowQueryThreshold, opts.SlowQueryMaxEntries),
		logger:    opts.Logger.With("executor", id),
		rowIDBase: opts.RowIDBase,
		ctx:       ctx,
		cancel:    cancel,
	}
	if err := e.connect(opts.DSN); err != nil {
		cancel()
		return nil, err
	}
	executors.Store(e.id, e)
	e.logger.Debug("executor opened", "dsn", opts.DSN, "module", e.module)
	return e, nil
}

// connect registers the executor's module and pins the connection that
// carries it.
func (e *Executor) connect(dsn string) error {
	openMu.Lock()
	defer openMu.Unlock()

	name, err := registerModule(e.id)
	if err != nil {
		return fmt.Errorf("register sqlite module: %w", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(e.ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("connect sqlite %s: %w", dsn, err)
	}
	e.module, e.db, e.conn = name, db, conn
	return nil
}

// ID returns the executor id used in logs
func (e *Executor) ID() string {
	return e.id
}

// Module returns the name of the SQLite module the executor's tables use
func (e *Executor) Module() string {
	return e.module
}

// RowIDBase returns the id given to the first row of a scan without
// explicit ids
func (e *Executor) RowIDBase() int64 {
	return e.rowIDBase
}

// Metrics returns the executor's metrics collector
func (e *Executor) Metrics() *monitor.MetricsCollector {
	return e.metrics
}

// SlowQueries returns the slow query log
func (e *Executor) SlowQueries() *monitor.SlowQueryAnalyzer {
	return e.slow
}

// Tables returns the names of the registered tables
func (e *Executor) Tables() []string {
	return e.registry.ListVirtualTables()
}

// Table returns a registered table by name
func (e *Executor) Table(name string) (virtual.VirtualTable, error) {
	return e.registry.GetVirtualTable(name)
}

func (e *Executor) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// Register exposes table to SQL under its own name.
func (e *Executor) Register(ctx context.Context, table virtual.VirtualTable) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if table != nil && len(table.GetSchema()) == 0 {
		return fmt.Errorf("table %s has no columns", table.GetName())
	}
	if err := e.registry.Register(table); err != nil {
		return err
	}

	name := table.GetName()
	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE %s USING %s(%s)",
		quoteIdent(name), e.module, quoteLiteral(name))
	if _, err := e.exec(ctx, stmt); err != nil {
		e.registry.Unregister(name)
		return fmt.Errorf("create virtual table %s: %w", name, err)
	}
	e.logger.Info("virtual table registered", "table", name, "columns", len(table.GetSchema()))
	return nil
}

// Unregister drops a registered table
func (e *Executor) Unregister(ctx context.Context, name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	table, err := e.registry.GetVirtualTable(name)
	if err != nil {
		return err
	}
	if _, err := e.exec(ctx, "DROP TABLE "+quoteIdent(table.GetName())); err != nil {
		return fmt.Errorf("drop virtual table %s: %w", name, err)
	}
	e.registry.Unregister(name)
	return nil
}

func (e *Executor) exec(ctx context.Context, stmt string) (sql.Result, error) {
	e.stmtMu.Lock()
	defer e.stmtMu.Unlock()
	return e.conn.ExecContext(ctx, stmt)
}

// noteCursorErr keeps the first cursor error of the running statement and
// returns err unchanged.
func (e *Executor) noteCursorErr(err error) error {
	if err == nil {
		return nil
	}
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if e.cursorErr == nil {
		e.cursorErr = err
	}
	return err
}

func (e *Executor) takeCursorErr() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	err := e.cursorErr
	e.cursorErr = nil
	return err
}

// Query runs a SQL query and returns every row in canonical text. When the
// statement fails inside a virtual table, the returned error carries the
// row-level cause along with the SQLite error.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (*domain.QueryResult, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	e.stmtMu.Lock()
	defer e.stmtMu.Unlock()
	e.takeCursorErr()

	mc := monitor.NewMonitorContext(ctx, e.metrics, e.slow, query)
	result, err := e.query(ctx, query, args...)
	if err != nil {
		if cerr := e.takeCursorErr(); cerr != nil {
			err = errors.Join(cerr, err)
		}
		mc.End(0, err)
		return nil, fmt.Errorf("query: %w", err)
	}
	duration := mc.End(result.Total, nil)
	e.logger.Debug("query executed", "sql", query, "rows", result.Total, "duration", duration)
	return result, nil
}

func (e *Executor) query(ctx context.Context, query string, args ...any) (*domain.QueryResult, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// QueryRows runs a SQL query and returns its rows as TableRows typed by the
// result columns, so query output can be fed back through the row contract.
func (e *Executor) QueryRows(ctx context.Context, query string, args ...any) ([]tablerow.TableRow, []domain.ColumnInfo, error) {
	result, err := e.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]tablerow.TableRow, len(result.Rows))
	for i, data := range result.Rows {
		rows[i] = tablerow.NewMapRow(result.Columns, data)
	}
	return rows, result.Columns, nil
}

// Close drops the executor's tables and closes the database.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	for _, name := range e.registry.ListVirtualTables() {
		if _, err := e.exec(context.Background(), "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
			e.logger.Warn("drop virtual table failed", "table", name, "error", err)
		}
		e.registry.Unregister(name)
	}
	e.cancel()
	executors.Delete(e.id)
	return errors.Join(e.conn.Close(), e.db.Close())
}
