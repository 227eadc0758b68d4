package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newProcessTable() *TableInfo {
	return &TableInfo{
		Name: "processes",
		Columns: []ColumnInfo{
			{Name: "pid", Type: ColumnTypeBigInt},
			{Name: "Name", Type: ColumnTypeText},
			{Name: "rowid", Type: ColumnTypeBigInt, Hidden: true},
		},
	}
}

func TestTableInfo_ColumnIndex(t *testing.T) {
	table := newProcessTable()

	assert.Equal(t, 0, table.ColumnIndex("pid"))
	assert.Equal(t, 1, table.ColumnIndex("name"), "lookup should be case-insensitive")
	assert.Equal(t, 1, table.ColumnIndex("NAME"))
	assert.Equal(t, 2, table.ColumnIndex("ROWID"))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
	assert.True(t, table.HasColumn("Pid"))
	assert.False(t, table.HasColumn("uid"))
}

func TestTableInfo_GetColumn(t *testing.T) {
	table := newProcessTable()

	col, ok := table.GetColumn("name")
	assert.True(t, ok)
	assert.Equal(t, "Name", col.Name)

	_, ok = table.GetColumn("missing")
	assert.False(t, ok)
}

func TestTableInfo_Clone(t *testing.T) {
	table := newProcessTable()
	clone := table.Clone()

	clone.Columns[0].Name = "changed"
	assert.Equal(t, "pid", table.Columns[0].Name)
	assert.Equal(t, []string{"pid", "Name", "rowid"}, table.GetColumnNames())
}

func TestUniqueColumnNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"distinct", []string{"pid", "name"}, []string{"pid", "name"}},
		{"repeat", []string{"name", "name", "name"}, []string{"name", "name_2", "name_3"}},
		{"case folded", []string{"Name", "NAME"}, []string{"Name", "NAME_2"}},
		{"suffix already taken", []string{"a", "a", "a_2"}, []string{"a", "a_3", "a_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			columns := make([]ColumnInfo, len(tt.in))
			for i, n := range tt.in {
				columns[i] = ColumnInfo{Name: n, Type: ColumnTypeText}
			}
			UniqueColumnNames(columns)

			got := make([]string, len(columns))
			for i, col := range columns {
				got[i] = col.Name
				assert.Equal(t, ColumnTypeText, col.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
