package slice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/spf13/cast"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
	"github.com/kasuganosora/tablerow/pkg/virtual"
)

// Table 将 []T 结构体切片暴露为虚拟表，每个元素生成一个 StructRow。
// 列名与顺序由 T 的 json tag 决定。
type Table[T any] struct {
	mu     sync.RWMutex
	name   string
	schema *tablerow.Schema
	items  []T
}

var _ virtual.VirtualTable = (*Table[struct{}])(nil)

// New 创建结构体切片虚拟表。items 被引用而非复制；Generate 时每行各自深拷贝。
func New[T any](name string, items []T) (*Table[T], error) {
	if name == "" {
		return nil, errors.New("tableName cannot be empty")
	}
	schema, err := tablerow.SchemaOf[T]()
	if err != nil {
		return nil, fmt.Errorf("slice table %s: %w", name, err)
	}
	if schema.Len() == 0 {
		return nil, fmt.Errorf("slice table %s: %T has no exported columns", name, *new(T))
	}
	return &Table[T]{name: name, schema: schema, items: items}, nil
}

// GetName returns the table name
func (t *Table[T]) GetName() string {
	return t.name
}

// GetSchema returns the columns derived from T
func (t *Table[T]) GetSchema() []domain.ColumnInfo {
	return t.schema.Columns()
}

// Append 追加元素
func (t *Table[T]) Append(items ...T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, items...)
}

// Len 返回元素个数
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Generate wraps every element in a StructRow
func (t *Table[T]) Generate(ctx context.Context) ([]tablerow.TableRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]tablerow.TableRow, len(t.items))
	for i, item := range t.items {
		row, err := tablerow.NewStructRow(item)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// FromMaps builds an in-memory table from []map[string]any. Values are
// converted to text with cast; nil becomes the empty string. When columns is
// nil every key seen becomes a TEXT column, in sorted order.
func FromMaps(name string, columns []domain.ColumnInfo, data []map[string]any) (*virtual.MemoryTable, error) {
	if name == "" {
		return nil, errors.New("tableName cannot be empty")
	}

	rows := make([]domain.Row, len(data))
	keys := make(map[string]struct{})
	for i, item := range data {
		row := make(domain.Row, len(item))
		for k, v := range item {
			text, err := cast.ToStringE(v)
			if err != nil {
				return nil, fmt.Errorf("slice table %s row %d column %s: %w", name, i, k, err)
			}
			row[k] = text
			keys[k] = struct{}{}
		}
		rows[i] = row
	}

	if columns == nil {
		names := make([]string, 0, len(keys))
		for k := range keys {
			names = append(names, k)
		}
		slices.Sort(names)
		columns = make([]domain.ColumnInfo, len(names))
		for i, k := range names {
			columns[i] = domain.ColumnInfo{Name: k, Type: domain.ColumnTypeText}
		}
	}
	return virtual.NewMemoryTable(name, columns, rows...), nil
}
