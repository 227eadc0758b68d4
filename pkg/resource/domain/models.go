package domain

import (
	"maps"
	"slices"
	"strings"
)

// ColumnType 列的声明类型，决定列值以哪种结果类型交付给查询引擎
type ColumnType int

const (
	// ColumnTypeUnknown 未知类型，按 TEXT 交付
	ColumnTypeUnknown ColumnType = iota
	// ColumnTypeInteger 32 位整数
	ColumnTypeInteger
	// ColumnTypeBigInt 64 位整数
	ColumnTypeBigInt
	// ColumnTypeDouble 浮点数
	ColumnTypeDouble
	// ColumnTypeText 文本
	ColumnTypeText
	// ColumnTypeBlob 二进制
	ColumnTypeBlob
)

// String 返回列类型的 SQL 名称
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeInteger:
		return "INTEGER"
	case ColumnTypeBigInt:
		return "BIGINT"
	case ColumnTypeDouble:
		return "DOUBLE"
	case ColumnTypeText:
		return "TEXT"
	case ColumnTypeBlob:
		return "BLOB"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 以 SQL 名称编码列类型
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 从 SQL 类型名解码列类型
func (t *ColumnType) UnmarshalText(text []byte) error {
	*t = ParseColumnType(string(text))
	return nil
}

// ParseColumnType maps a SQL type name to a ColumnType.
// Length and precision suffixes are ignored: "VARCHAR(255)" is TEXT.
func ParseColumnType(name string) ColumnType {
	base := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	switch base {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BOOL", "BOOLEAN":
		return ColumnTypeInteger
	case "BIGINT", "INT64", "UNSIGNED BIG INT":
		return ColumnTypeBigInt
	case "REAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT", "DECIMAL", "NUMERIC":
		return ColumnTypeDouble
	case "TEXT", "VARCHAR", "CHAR", "NCHAR", "NVARCHAR", "CLOB", "STRING", "DATE", "DATETIME", "TIMESTAMP":
		return ColumnTypeText
	case "BLOB", "BINARY", "VARBINARY", "BYTES":
		return ColumnTypeBlob
	default:
		return ColumnTypeUnknown
	}
}

// ColumnInfo 列信息
type ColumnInfo struct {
	Name   string     `json:"name" yaml:"name"`
	Type   ColumnType `json:"type" yaml:"type"`
	Hidden bool       `json:"hidden,omitempty" yaml:"hidden,omitempty"` // 隐藏列，SELECT * 不展开
}

// TableInfo 表信息
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// Row is the generic row: column name to canonical string value.
// Column order is not part of a Row; callers needing display order take it
// from the table schema.
type Row map[string]string

// Clone 返回行的独立副本
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Keys returns the column names in sorted order.
func (r Row) Keys() []string {
	return slices.Sorted(maps.Keys(r))
}

// Equal reports whether both rows hold the same columns and values.
func (r Row) Equal(other Row) bool {
	return maps.Equal(r, other)
}

// QueryResult 查询结果
type QueryResult struct {
	Columns []ColumnInfo `json:"columns"`
	Rows    []Row        `json:"rows"`
	Total   int64        `json:"total"`
}
