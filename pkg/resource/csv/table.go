package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/resource/util"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
	"github.com/kasuganosora/tablerow/pkg/virtual"
)

// Option 配置 CSV 虚拟表
type Option func(*config)

type config struct {
	delimiter rune
	hasHeader bool
	tableName string
	infer     bool
}

// WithDelimiter 设置分隔符，默认逗号
func WithDelimiter(r rune) Option {
	return func(c *config) { c.delimiter = r }
}

// WithHeader 设置首行是否为表头，默认是。
// 没有表头时列名为 column_1, column_2, ...
func WithHeader(on bool) Option {
	return func(c *config) { c.hasHeader = on }
}

// WithTableName 指定表名，默认使用去掉扩展名的文件名
func WithTableName(name string) Option {
	return func(c *config) { c.tableName = name }
}

// WithTypeInference 控制是否为未声明类型的列推断类型，默认开启
func WithTypeInference(on bool) Option {
	return func(c *config) { c.infer = on }
}

// Table is a virtual table over a delimited text file. The header follows
// the same "name:TYPE" convention as workbook sheets.
type Table struct {
	mu      sync.RWMutex
	path    string
	cfg     config
	name    string
	columns []domain.ColumnInfo
	rows    []domain.Row
}

var _ virtual.VirtualTable = (*Table)(nil)

// Open loads the file at path
func Open(path string, opts ...Option) (*Table, error) {
	cfg := config{delimiter: ',', hasHeader: true, infer: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tableName == "" {
		base := filepath.Base(path)
		cfg.tableName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	t := &Table{path: path, cfg: cfg}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads the file from disk
func (t *Table) Reload() error {
	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file %q: %w", t.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = t.cfg.delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV file %q: %w", t.path, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("CSV file is empty: %s", t.path)
	}

	var header []string
	data := records
	if t.cfg.hasHeader {
		header, data = records[0], records[1:]
	} else {
		width := 0
		for _, r := range records {
			width = max(width, len(r))
		}
		header = make([]string, width)
		for i := range header {
			header[i] = "column_" + strconv.Itoa(i+1)
		}
	}
	grid := util.BuildGrid(header, data, t.cfg.infer)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = t.cfg.tableName
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

// Generate returns one MapRow per record
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
