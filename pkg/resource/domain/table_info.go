package domain

import (
	"strconv"

	"golang.org/x/text/cases"
)

// FoldName returns the case-folded form of an identifier. SQL identifiers are
// case-insensitive, so column lookups compare folded names.
// A Caser is stateful and must not be shared between goroutines.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// UniqueColumnNames renames repeated column names in place by appending _2,
// _3, ... under case folding. A suffixed name never takes a name that
// appears elsewhere in columns.
func UniqueColumnNames(columns []ColumnInfo) {
	reserved := make(map[string]bool, len(columns))
	for _, col := range columns {
		reserved[FoldName(col.Name)] = true
	}

	used := make(map[string]bool, len(columns))
	for i := range columns {
		name := columns[i].Name
		key := FoldName(name)
		for n := 2; used[key]; n++ {
			candidate := name + "_" + strconv.Itoa(n)
			if k := FoldName(candidate); !reserved[k] && !used[k] {
				columns[i].Name, key = candidate, k
			}
		}
		used[key] = true
	}
}

// HasColumn checks if a column exists
func (t *TableInfo) HasColumn(columnName string) bool {
	return t.ColumnIndex(columnName) >= 0
}

// ColumnIndex returns the position of the named column, or -1.
func (t *TableInfo) ColumnIndex(columnName string) int {
	return ColumnIndex(t.Columns, columnName)
}

// GetColumn retrieves a column by name
func (t *TableInfo) GetColumn(columnName string) (ColumnInfo, bool) {
	i := t.ColumnIndex(columnName)
	if i < 0 {
		return ColumnInfo{}, false
	}
	return t.Columns[i], true
}

// GetColumnNames returns all column names
func (t *TableInfo) GetColumnNames() []string {
	return ColumnNames(t.Columns)
}

// Clone creates a deep copy of the TableInfo
func (t *TableInfo) Clone() *TableInfo {
	clone := &TableInfo{
		Name:    t.Name,
		Columns: make([]ColumnInfo, len(t.Columns)),
	}
	copy(clone.Columns, t.Columns)
	return clone
}

// ColumnIndex returns the position of the named column in columns, or -1.
func ColumnIndex(columns []ColumnInfo, columnName string) int {
	folded := FoldName(columnName)
	for i, col := range columns {
		if FoldName(col.Name) == folded {
			return i
		}
	}
	return -1
}

// ColumnNames returns the names of columns in schema order.
func ColumnNames(columns []ColumnInfo) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return names
}
