package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

func TestBuildGrid(t *testing.T) {
	grid := BuildGrid(
		[]string{"pid:INTEGER", "name", "alive"},
		[][]string{{"1", "init", "TRUE"}, {"x"}},
		true,
	)

	assert.Equal(t, []domain.ColumnInfo{
		{Name: "pid", Type: domain.ColumnTypeInteger},
		{Name: "name", Type: domain.ColumnTypeText},
		{Name: "alive", Type: domain.ColumnTypeInteger},
	}, grid.Columns)
	assert.Equal(t, []domain.Row{
		{"pid": "1", "name": "init", "alive": "1"},
		{"pid": "x", "name": "", "alive": ""},
	}, grid.Rows)
}

func TestParseHeader(t *testing.T) {
	columns, declared := ParseHeader([]string{" id ", "", "ID", "load:double", "a:b"})

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "column_2", "ID_2", "load", "a:b"}, names)
	assert.Equal(t, []bool{false, false, false, true, false}, declared)
	assert.Equal(t, domain.ColumnTypeDouble, columns[3].Type)
}

func TestParseHeader_SuffixNeverCollides(t *testing.T) {
	tests := []struct {
		header []string
		want   []string
	}{
		{[]string{"a", "a", "a_2"}, []string{"a", "a_3", "a_2"}},
		{[]string{"a", "A", "a"}, []string{"a", "A_2", "a_3"}},
		{[]string{"", "column_1"}, []string{"column_1", "column_1_2"}},
	}

	for _, tt := range tests {
		columns, _ := ParseHeader(tt.header)
		names := make([]string, len(columns))
		for i, c := range columns {
			names[i] = c.Name
		}
		assert.Equal(t, tt.want, names, "header %q", tt.header)
	}
}

func TestBuildGrid_PaddedNumbers(t *testing.T) {
	grid := BuildGrid([]string{"n", "x:DOUBLE", "label"}, [][]string{{" 42", "1.5 ", " a "}, {"7", "", ""}}, true)

	assert.Equal(t, domain.ColumnTypeBigInt, grid.Columns[0].Type)
	assert.Equal(t, domain.Row{"n": "42", "x": "1.5", "label": " a "}, grid.Rows[0])

	row := tablerow.NewMapRow(grid.Columns, grid.Rows[0])
	sink, err := tablerow.ColumnValue(row, 0)
	require.NoError(t, err)
	assert.Equal(t, tablerow.KindInt64, sink.Kind)
	assert.Equal(t, int64(42), sink.Value)
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   domain.ColumnType
	}{
		{"integers", []string{"1", "", "-3"}, domain.ColumnTypeBigInt},
		{"mixed numbers", []string{"1", "2.5"}, domain.ColumnTypeDouble},
		{"booleans", []string{"true", "False"}, domain.ColumnTypeInteger},
		{"text wins", []string{"1", "abc"}, domain.ColumnTypeText},
		{"bool and number", []string{"true", "1"}, domain.ColumnTypeText},
		{"all empty", []string{"", ""}, domain.ColumnTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, len(tt.values))
			for i, v := range tt.values {
				rows[i] = []string{v}
			}
			assert.Equal(t, tt.want, InferColumnType(rows, 0))
		})
	}
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "bool", DetectType("TRUE"))
	assert.Equal(t, "int64", DetectType("-42"))
	assert.Equal(t, "float64", DetectType("1e3"))
	assert.Equal(t, "string", DetectType("n/a"))
}
