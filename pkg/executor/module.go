package executor

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"modernc.org/sqlite/vtab"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
	"github.com/kasuganosora/tablerow/pkg/virtual"
)

// ModulePrefix starts the name of every SQLite virtual table module an
// executor registers.
const ModulePrefix = "tablerow"

var (
	// openMu keeps module registration and the first connection of an
	// executor together. The driver attaches a newly registered module only to
	// the next connection it opens, so no other executor may open in between.
	openMu    sync.Mutex
	moduleSeq atomic.Uint64

	// executors maps an executor id to its executor, so a module can find the
	// tables a CREATE VIRTUAL TABLE refers to without keeping a closed
	// executor alive.
	executors sync.Map
)

// registerModule installs a fresh module for the executor with id execID and
// returns its name. The caller must hold openMu and open the executor's
// connection before releasing it.
func registerModule(execID string) (string, error) {
	name := fmt.Sprintf("%s_%d", ModulePrefix, moduleSeq.Add(1))
	if err := vtab.RegisterModule(nil, name, module{execID: execID}); err != nil {
		return "", err
	}
	return name, nil
}

// module implements vtab.Module for one executor.
// The module argument is ('<table name>').
type module struct {
	execID string
}

func (m module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Connect(ctx, args)
}

func (m module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	// args: module, database, table, module arguments...
	if len(args) < 4 {
		return nil, fmt.Errorf("%s: want a table name argument", args[0])
	}
	tableName := unquoteArg(args[3])

	v, ok := executors.Load(m.execID)
	if !ok {
		return nil, fmt.Errorf("%s: executor %s is not open", args[0], m.execID)
	}
	e := v.(*Executor)

	table, err := e.registry.GetVirtualTable(tableName)
	if err != nil {
		return nil, err
	}
	if err := ctx.Declare(declareSchema(table.GetSchema())); err != nil {
		return nil, fmt.Errorf("declare %s: %w", tableName, err)
	}
	return &vtable{exec: e, table: table}, nil
}

// declareSchema builds the CREATE TABLE statement a vtab declares. The table
// name in it is ignored by SQLite.
func declareSchema(columns []domain.ColumnInfo) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE x(")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col.Name))
		if col.Type != domain.ColumnTypeUnknown {
			b.WriteByte(' ')
			b.WriteString(col.Type.String())
		}
		if col.Hidden {
			b.WriteString(" HIDDEN")
		}
	}
	b.WriteString(")")
	return b.String()
}

// vtable implements vtab.Table over a virtual table. It is always a full scan.
type vtable struct {
	exec  *Executor
	table virtual.VirtualTable
}

func (t *vtable) BestIndex(info *vtab.IndexInfo) error {
	info.IdxNum = 0
	info.EstimatedCost = fullScanCost
	info.EstimatedRows = fullScanRows
	return nil
}

func (t *vtable) Open() (vtab.Cursor, error) {
	c := virtual.NewCursor(t.table,
		virtual.WithMetrics(t.exec.metrics),
		virtual.WithRowIDBase(t.exec.rowIDBase),
	)
	return &vcursor{exec: t.exec, cursor: c}, nil
}

func (t *vtable) Disconnect() error { return nil }
func (t *vtable) Destroy() error    { return nil }

const (
	fullScanCost = 1e6
	fullScanRows = 1000
)

// vcursor implements vtab.Cursor over virtual.Cursor. Errors are handed to
// the executor as well, since SQLite reports them only as a generic failure.
type vcursor struct {
	exec   *Executor
	cursor *virtual.Cursor
	sink   tablerow.ValueSink
}

func (c *vcursor) Filter(int, string, []vtab.Value) error {
	return c.exec.noteCursorErr(c.cursor.Open(c.exec.ctx))
}

func (c *vcursor) Next() error { return c.exec.noteCursorErr(c.cursor.Next()) }
func (c *vcursor) Eof() bool   { return c.cursor.Eof() }

func (c *vcursor) Column(col int) (vtab.Value, error) {
	c.sink.Reset()
	if err := c.cursor.Column(col, &c.sink); err != nil {
		return nil, c.exec.noteCursorErr(err)
	}
	return c.sink.Value, nil
}

func (c *vcursor) Rowid() (int64, error) {
	id, err := c.cursor.RowID()
	return id, c.exec.noteCursorErr(err)
}

func (c *vcursor) Close() error { return c.cursor.Close() }

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

// unquoteArg strips SQL quoting from a raw module argument.
func unquoteArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if len(arg) >= 2 {
		switch q := arg[0]; q {
		case '\'', '"':
			if arg[len(arg)-1] == q {
				inner := arg[1 : len(arg)-1]
				return strings.ReplaceAll(inner, string([]byte{q, q}), string(q))
			}
		}
	}
	return arg
}
