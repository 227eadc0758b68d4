package api

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/kasuganosora/tablerow/pkg/config"
	"github.com/kasuganosora/tablerow/pkg/executor"
	"github.com/kasuganosora/tablerow/pkg/json"
	"github.com/kasuganosora/tablerow/pkg/monitor"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
	"github.com/kasuganosora/tablerow/pkg/virtual"
)

// DB is the entry point for registering virtual tables and querying them
type DB struct {
	mu       sync.RWMutex
	executor *executor.Executor
	logger   Logger
	config   *config.Config
}

// DumpStats reports the outcome of a JSON dump
type DumpStats struct {
	Rows   int64 // rows written
	Failed int64 // rows skipped because they could not be serialized
}

// NewDB opens a DB. A nil cfg uses config.DefaultConfig(); a nil logger
// logs to stderr as the config says.
func NewDB(cfg *config.Config, logger Logger) (*DB, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = NewLoggerFromConfig(os.Stderr, cfg.Log)
	}

	slogger := slog.Default()
	if p, ok := logger.(SlogProvider); ok {
		slogger = p.Slog()
	}

	exec, err := executor.Open(executor.Options{
		DSN:                 cfg.Executor.DSN,
		RowIDBase:           cfg.Executor.RowIDBase,
		SlowQueryThreshold:  cfg.Monitor.SlowQuery.Threshold,
		SlowQueryMaxEntries: cfg.Monitor.SlowQuery.MaxEntries,
		Logger:              slogger,
	})
	if err != nil {
		return nil, WrapError(err, ErrCodeInternal, "open executor")
	}

	return &DB{
		executor: exec,
		logger:   logger,
		config:   cfg,
	}, nil
}

// RegisterTable exposes a virtual table to SQL
func (db *DB) RegisterTable(ctx context.Context, table virtual.VirtualTable) error {
	if table == nil {
		return NewError(ErrCodeInvalidParam, "table cannot be nil", nil)
	}
	if table.GetName() == "" {
		return NewError(ErrCodeInvalidParam, "table name cannot be empty", nil)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.executor.Register(ctx, table); err != nil {
		return db.wrap(err, "register table '"+table.GetName()+"'")
	}
	db.logger.Debug("Registered table: %s", table.GetName())
	return nil
}

// UnregisterTable removes a registered table
func (db *DB) UnregisterTable(ctx context.Context, name string) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.executor.Unregister(ctx, name); err != nil {
		return db.wrap(err, "unregister table '"+name+"'")
	}
	db.logger.Debug("Unregistered table: %s", name)
	return nil
}

// Tables returns the registered table names in order
func (db *DB) Tables() []string {
	return db.executor.Tables()
}

// Query runs a SQL query over the registered tables
func (db *DB) Query(ctx context.Context, query string, args ...any) (*domain.QueryResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result, err := db.executor.Query(ctx, query, args...)
	if err != nil {
		return nil, db.wrap(err, "query failed")
	}
	return result, nil
}

// QueryRows runs a SQL query and returns its rows as TableRows
func (db *DB) QueryRows(ctx context.Context, query string, args ...any) ([]tablerow.TableRow, []domain.ColumnInfo, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	rows, columns, err := db.executor.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, nil, db.wrap(err, "query failed")
	}
	return rows, columns, nil
}

// DumpJSON writes every row of a registered table to w as one JSON object
// per line. Rows that fail to serialize are skipped and counted.
func (db *DB) DumpJSON(ctx context.Context, tableName string, w io.Writer) (DumpStats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	table, err := db.executor.Table(tableName)
	if err != nil {
		return DumpStats{}, db.wrap(err, "dump table '"+tableName+"'")
	}

	cursor := virtual.NewCursor(table,
		virtual.WithMetrics(db.executor.Metrics()),
		virtual.WithRowIDBase(db.rowIDBase()),
	)
	if err := cursor.Open(ctx); err != nil {
		return DumpStats{}, WrapError(err, ErrCodeInternal, "dump table '"+tableName+"'")
	}
	defer cursor.Close()

	var stats DumpStats
	bw := bufio.NewWriter(w)
	for ; !cursor.Eof(); cursor.Next() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		doc := json.NewDocument()
		if err := cursor.Serialize(doc.Root()); err != nil {
			stats.Failed++
			db.logger.Warn("Skipping row %d of %s: %v", cursor.Position(), table.GetName(), err)
			continue
		}
		if err := writeLine(bw, doc); err != nil {
			return stats, WrapError(err, ErrCodeInternal, "write dump")
		}
		stats.Rows++
	}
	if err := bw.Flush(); err != nil {
		return stats, WrapError(err, ErrCodeInternal, "write dump")
	}
	return stats, nil
}

// DumpQueryJSON runs a query and writes each result row to w as a JSON line
func (db *DB) DumpQueryJSON(ctx context.Context, w io.Writer, query string, args ...any) (DumpStats, error) {
	rows, _, err := db.QueryRows(ctx, query, args...)
	if err != nil {
		return DumpStats{}, err
	}

	var stats DumpStats
	bw := bufio.NewWriter(w)
	for i, row := range rows {
		doc, err := tablerow.SerializeDocument(row)
		if err != nil {
			stats.Failed++
			db.logger.Warn("Skipping result row %d: %v", i, err)
			continue
		}
		if err := writeLine(bw, doc); err != nil {
			return stats, WrapError(err, ErrCodeInternal, "write dump")
		}
		stats.Rows++
	}
	if err := bw.Flush(); err != nil {
		return stats, WrapError(err, ErrCodeInternal, "write dump")
	}
	return stats, nil
}

// rowIDBase is the base the executor settled on, which may differ from
// the configured one.
func (db *DB) rowIDBase() int64 {
	return db.executor.RowIDBase()
}

func writeLine(w *bufio.Writer, doc *json.Document) error {
	data, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// Metrics returns the DB's metrics collector
func (db *DB) Metrics() *monitor.MetricsCollector {
	return db.executor.Metrics()
}

// SlowQueries returns the slow query log
func (db *DB) SlowQueries() *monitor.SlowQueryAnalyzer {
	return db.executor.SlowQueries()
}

// SetLogger 设置日志
func (db *DB) SetLogger(logger Logger) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.logger = logger
}

// GetLogger 获取日志
func (db *DB) GetLogger() Logger {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.logger
}

// Close closes the DB and drops every registered table
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.executor.Close(); err != nil {
		return WrapError(err, ErrCodeInternal, "close")
	}
	db.logger.Info("DB closed")
	return nil
}

// wrap tags err with the code Classify picks for it.
func (db *DB) wrap(err error, message string) error {
	return WrapError(err, Classify(err), message)
}
