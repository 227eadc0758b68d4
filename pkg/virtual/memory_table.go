package virtual

import (
	"context"
	"slices"
	"sync"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

// MemoryTable is a virtual table over rows held in memory. Each scan yields
// MapRows typed by the table schema.
type MemoryTable struct {
	mu      sync.RWMutex
	name    string
	columns []domain.ColumnInfo
	rows    []domain.Row
}

var _ VirtualTable = (*MemoryTable)(nil)

// NewMemoryTable 创建内存虚拟表
func NewMemoryTable(name string, columns []domain.ColumnInfo, rows ...domain.Row) *MemoryTable {
	t := &MemoryTable{
		name:    name,
		columns: slices.Clone(columns),
	}
	for _, row := range rows {
		t.rows = append(t.rows, row.Clone())
	}
	return t
}

// GetName returns the table name
func (t *MemoryTable) GetName() string {
	return t.name
}

// GetSchema returns the table schema
func (t *MemoryTable) GetSchema() []domain.ColumnInfo {
	return slices.Clone(t.columns)
}

// Insert appends a copy of row
func (t *MemoryTable) Insert(row domain.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, row.Clone())
}

// Len returns the number of stored rows
func (t *MemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Generate returns one MapRow per stored row
func (t *MemoryTable) Generate(ctx context.Context) ([]tablerow.TableRow, error) {
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
