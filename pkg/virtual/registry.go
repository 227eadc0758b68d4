package virtual

import (
	"errors"
	"slices"
	"sync"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

// Registry 虚拟表注册表，表名不区分大小写
type Registry struct {
	mu     sync.RWMutex
	tables map[string]VirtualTable
}

var _ VirtualTableProvider = (*Registry)(nil)

// NewRegistry 创建虚拟表注册表
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]VirtualTable),
	}
}

// Register 注册一个虚拟表，同名表已存在时返回 ErrTableAlreadyExists
func (r *Registry) Register(table VirtualTable) error {
	if table == nil || table.GetName() == "" {
		return errors.New("virtual table must have a name")
	}
	key := domain.FoldName(table.GetName())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tables[key]; exists {
		return domain.NewErrTableAlreadyExists(table.GetName())
	}
	r.tables[key] = table
	return nil
}

// Unregister 注销虚拟表
func (r *Registry) Unregister(name string) bool {
	key := domain.FoldName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[key]; !ok {
		return false
	}
	delete(r.tables, key)
	return true
}

// GetVirtualTable 获取虚拟表
func (r *Registry) GetVirtualTable(name string) (VirtualTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[domain.FoldName(name)]
	if !ok {
		return nil, domain.NewErrTableNotFound(name)
	}
	return table, nil
}

// ListVirtualTables 按名称排序列出所有已注册的虚拟表
func (r *Registry) ListVirtualTables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for _, table := range r.tables {
		names = append(names, table.GetName())
	}
	slices.Sort(names)
	return names
}

// HasTable 判断指定名称的虚拟表是否已注册
func (r *Registry) HasTable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[domain.FoldName(name)]
	return ok
}
