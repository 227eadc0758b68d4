package excel

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/resource/util"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
	"github.com/kasuganosora/tablerow/pkg/virtual"
)

// Option 配置 Excel 虚拟表
type Option func(*config)

type config struct {
	sheet     string
	tableName string
	infer     bool
}

// WithSheet 指定工作表，默认使用第一个工作表
func WithSheet(name string) Option {
	return func(c *config) { c.sheet = name }
}

// WithTableName 指定表名，默认使用工作表名
func WithTableName(name string) Option {
	return func(c *config) { c.tableName = name }
}

// WithTypeInference 控制是否为未声明类型的列推断类型，默认开启。
// 关闭时未声明类型的列为 TEXT。
func WithTypeInference(on bool) Option {
	return func(c *config) { c.infer = on }
}

// Table is a virtual table over one worksheet.
//
// The first row is the header. A header cell may declare its column type as
// "name:TYPE" (for example "pid:INTEGER"); other columns are TEXT, or
// inferred from the data when inference is on. Every further row becomes a
// MapRow; short rows are padded with empty cells.
type Table struct {
	mu      sync.RWMutex
	path    string
	cfg     config
	name    string
	columns []domain.ColumnInfo
	rows    []domain.Row
}

var _ virtual.VirtualTable = (*Table)(nil)

// Open loads a worksheet of the workbook at path
func Open(path string, opts ...Option) (*Table, error) {
	cfg := config{infer: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &Table{path: path, cfg: cfg}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// OpenAll loads every worksheet of the workbook as its own table
func OpenAll(path string, opts ...Option) ([]*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	sheets := f.GetSheetList()
	f.Close()

	tables := make([]*Table, 0, len(sheets))
	for _, sheet := range sheets {
		t, err := Open(path, append(slices.Clone(opts), WithSheet(sheet), WithTableName(sheet))...)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Reload re-reads the worksheet from disk
func (t *Table) Reload() error {
	f, err := excelize.OpenFile(t.path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", t.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets found in workbook %s", t.path)
	}
	sheet := t.cfg.sheet
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return fmt.Errorf("sheet not found: %s", sheet)
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(cells) == 0 {
		return fmt.Errorf("sheet is empty: %s", sheet)
	}

	grid := util.BuildGrid(cells[0], cells[1:], t.cfg.infer)

	name := t.cfg.tableName
	if name == "" {
		name = sheet
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
	t.columns = grid.Columns
	t.rows = grid.Rows
	return nil
}

// GetName returns the table name
func (t *Table) GetName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// GetSchema returns the header-derived schema
func (t *Table) GetSchema() []domain.ColumnInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.columns)
}

// Generate returns one MapRow per data row
func (t *Table) Generate(ctx context.Context) ([]tablerow.TableRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]tablerow.TableRow, len(t.rows))
	for i, data := range t.rows {
		rows[i] = tablerow.NewMapRow(t.columns, data)
	}
	return rows, nil
}
