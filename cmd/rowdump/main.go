// Command rowdump loads workbook sheets and CSV files as virtual tables and
// queries them through SQLite.
//
//	rowdump -xlsx book.xlsx -query "SELECT name FROM Sheet1 WHERE pid > 100"
//	rowdump -xlsx book.xlsx -sheet users -json
//	rowdump -csv procs.csv -query "SELECT count(*) FROM procs"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kasuganosora/tablerow/pkg/api"
	"github.com/kasuganosora/tablerow/pkg/config"
	"github.com/kasuganosora/tablerow/pkg/resource/csv"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/resource/excel"
	"github.com/kasuganosora/tablerow/pkg/virtual"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "rowdump: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	query  string
	asJSON bool
}

func mainImpl() error {
	configPath := flag.String("config", "", "Config file, JSON or YAML (default $"+config.EnvConfigPath+" or ./tablerow.yaml)")
	xlsx := flag.String("xlsx", "", "Workbook to load")
	csvPath := flag.String("csv", "", "Delimited file to load, named after the file")
	delimiter := flag.String("delimiter", ",", "Field delimiter for -csv")
	sheet := flag.String("sheet", "", "Sheet to load; empty loads every sheet")
	query := flag.String("query", "", "SQL to run; empty dumps every loaded table")
	asJSON := flag.Bool("json", false, "Print one JSON object per row")
	watch := flag.Bool("watch", false, "Run again whenever a loaded file changes")
	logLevel := flag.String("log-level", "", "Override the configured log level (debug, info, warn, error)")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}
	if *xlsx == "" && *csvPath == "" {
		return errors.New("-xlsx or -csv is required")
	}

	cfg := config.LoadConfigOrDefault()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	logger := api.NewLoggerFromConfig(os.Stderr, cfg.Log)
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	db, err := api.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var tables []source
	var paths []string
	if *xlsx != "" {
		sheets, err := loadWorkbook(*xlsx, *sheet)
		if err != nil {
			return err
		}
		for _, t := range sheets {
			tables = append(tables, t)
		}
		paths = append(paths, *xlsx)
	}
	if *csvPath != "" {
		d := []rune(*delimiter)
		if len(d) != 1 {
			return fmt.Errorf("-delimiter must be one character, got %q", *delimiter)
		}
		t, err := csv.Open(*csvPath, csv.WithDelimiter(d[0]))
		if err != nil {
			return err
		}
		tables = append(tables, t)
		paths = append(paths, *csvPath)
	}
	for _, t := range tables {
		if err := db.RegisterTable(ctx, t); err != nil {
			return err
		}
	}

	opts := options{query: *query, asJSON: *asJSON}
	if err := run(ctx, db, opts, os.Stdout); err != nil {
		return err
	}
	if !*watch {
		return nil
	}
	return watchFiles(ctx, paths, func() error {
		if err := reload(ctx, db, tables); err != nil {
			return err
		}
		return run(ctx, db, opts, os.Stdout)
	})
}

func loadWorkbook(path, sheet string) ([]*excel.Table, error) {
	if sheet == "" {
		return excel.OpenAll(path)
	}
	t, err := excel.Open(path, excel.WithSheet(sheet))
	if err != nil {
		return nil, err
	}
	return []*excel.Table{t}, nil
}

// source is a file-backed table that can be re-read.
type source interface {
	virtual.VirtualTable
	Reload() error
}

// reload re-reads every table. A table whose header changed is registered
// again so SQLite sees the new columns.
func reload(ctx context.Context, db *api.DB, tables []source) error {
	for _, t := range tables {
		before := t.GetSchema()
		if err := t.Reload(); err != nil {
			return err
		}
		if slices.Equal(before, t.GetSchema()) {
			continue
		}
		slog.Info("schema changed", "table", t.GetName())
		if err := db.UnregisterTable(ctx, t.GetName()); err != nil {
			return err
		}
		if err := db.RegisterTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// run prints the query result, or every table when no query is given.
func run(ctx context.Context, db *api.DB, opts options, w io.Writer) error {
	if opts.query != "" {
		if opts.asJSON {
			_, err := db.DumpQueryJSON(ctx, w, opts.query)
			return err
		}
		result, err := db.Query(ctx, opts.query)
		if err != nil {
			return err
		}
		return printTable(w, result)
	}

	for _, name := range db.Tables() {
		if opts.asJSON {
			stats, err := db.DumpJSON(ctx, name, w)
			if err != nil {
				return err
			}
			if stats.Failed > 0 {
				slog.Warn("rows skipped", "table", name, "count", stats.Failed)
			}
			continue
		}
		result, err := db.Query(ctx, "SELECT rowid, * FROM "+quoteIdent(name))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "== %s ==\n", name)
		if err := printTable(w, result); err != nil {
			return err
		}
	}
	return nil
}

func printTable(w io.Writer, result *domain.QueryResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	names := make([]string, len(result.Columns))
	for i, c := range result.Columns {
		names[i] = c.Name
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	values := make([]string, len(names))
	for _, row := range result.Rows {
		for i, name := range names {
			values[i] = row[name]
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	return tw.Flush()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// watchFiles calls fn after any of paths changes, until ctx is done.
// Parent directories are watched since editors replace files on save.
func watchFiles(ctx context.Context, paths []string, fn func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return err
		}
		slog.Info("watching file", "path", abs)
	}

	// Saves arrive as bursts of events.
	const settle = 200 * time.Millisecond
	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if watched[event.Name] && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(settle)
			}
		case <-timer.C:
			if err := fn(); err != nil {
				slog.Warn("reload failed", "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("error watching files", "err", err)
		}
	}
}
