// Package util holds helpers shared by the file-backed virtual tables.
package util

import (
	"strconv"
	"strings"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

// SampleSize is how many data rows are inspected to infer an untyped column.
const SampleSize = 100

// Grid is a header plus data rows of text cells, as read from a sheet or a
// delimited file.
type Grid struct {
	Columns []domain.ColumnInfo
	Rows    []domain.Row
}

// BuildGrid types the header and turns every data row into a domain.Row.
//
// A header cell may declare its column type as "name:TYPE" (for example
// "pid:INTEGER"). Undeclared columns are inferred from the data when infer
// is set, and TEXT otherwise. Short rows are padded with empty cells.
func BuildGrid(header []string, data [][]string, infer bool) Grid {
	columns, declared := ParseHeader(header)
	data = PadRows(data, len(columns))
	if infer {
		for i := range columns {
			if !declared[i] {
				columns[i].Type = InferColumnType(data, i)
			}
		}
	}

	rows := make([]domain.Row, len(data))
	for r, values := range data {
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			row[col.Name] = NormalizeCell(values[i], col.Type)
		}
		rows[r] = row
	}
	return Grid{Columns: columns, Rows: rows}
}

// ParseHeader turns header cells into columns. declared[i] reports whether
// column i carried an explicit type. Column names come out unique under
// case folding: a repeated name gets the first free "_N" suffix, and names
// spelled out in the header are never taken by a suffix.
func ParseHeader(header []string) ([]domain.ColumnInfo, []bool) {
	columns := make([]domain.ColumnInfo, len(header))
	declared := make([]bool, len(header))

	for i, cell := range header {
		name, typ := strings.TrimSpace(cell), domain.ColumnTypeText
		if j := strings.LastIndexByte(name, ':'); j > 0 {
			if parsed := domain.ParseColumnType(name[j+1:]); parsed != domain.ColumnTypeUnknown {
				name, typ = strings.TrimSpace(name[:j]), parsed
				declared[i] = true
			}
		}
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		columns[i] = domain.ColumnInfo{Name: name, Type: typ}
	}

	// 重名列追加序号
	domain.UniqueColumnNames(columns)
	return columns, declared
}

// PadRows makes every row exactly width cells long.
func PadRows(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

// InferColumnType picks the narrowest type that fits every sampled non-empty
// cell of column col.
func InferColumnType(rows [][]string, col int) domain.ColumnType {
	var ints, floats, bools, seen int
	for _, row := range rows[:min(len(rows), SampleSize)] {
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		seen++
		switch DetectType(value) {
		case "int64":
			ints++
		case "float64":
			floats++
		case "bool":
			bools++
		default:
			return domain.ColumnTypeText
		}
	}

	switch {
	case seen == 0:
		return domain.ColumnTypeText
	case ints == seen:
		return domain.ColumnTypeBigInt
	case ints+floats == seen:
		return domain.ColumnTypeDouble
	case bools == seen:
		return domain.ColumnTypeInteger
	default:
		return domain.ColumnTypeText
	}
}

// DetectType 检测值的类型
func DetectType(value string) string {
	if IsBool(value) {
		return "bool"
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return "int64"
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return "float64"
	}
	return "string"
}

// IsBool reports whether value is true or false in any case.
func IsBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "false":
		return true
	}
	return false
}

// NormalizeCell makes a cell deliverable as its column type: numeric cells
// lose surrounding space, and boolean text in integer columns becomes 1/0.
func NormalizeCell(value string, typ domain.ColumnType) string {
	switch typ {
	case domain.ColumnTypeInteger, domain.ColumnTypeBigInt, domain.ColumnTypeDouble:
		value = strings.TrimSpace(value)
	default:
		return value
	}
	if typ == domain.ColumnTypeInteger && IsBool(value) {
		return tablerow.FormatBool(strings.EqualFold(value, "true"))
	}
	return value
}
