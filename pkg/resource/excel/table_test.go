package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

// createTestWorkbook 创建测试用的 Excel 文件
func createTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"pid:INTEGER", "name", "load", "on_disk", "note"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1, "init", 0.5, "true", "first"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{123, "sshd", 2, "FALSE"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"n/a", "cron"}))

	_, err := f.NewSheet("users")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("users", "A1", &[]any{"id", "", "ID"}))
	require.NoError(t, f.SetSheetRow("users", "A2", &[]any{7, "x", "y"}))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestOpen_FirstSheet(t *testing.T) {
	table, err := Open(createTestWorkbook(t))
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", table.GetName())
	assert.Equal(t, []domain.ColumnInfo{
		{Name: "pid", Type: domain.ColumnTypeInteger},
		{Name: "name", Type: domain.ColumnTypeText},
		{Name: "load", Type: domain.ColumnTypeDouble},
		{Name: "on_disk", Type: domain.ColumnTypeInteger},
		{Name: "note", Type: domain.ColumnTypeText},
	}, table.GetSchema())

	rows, err := table.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// ragged rows are padded
	assert.Equal(t, domain.Row{"pid": "n/a", "name": "cron", "load": "", "on_disk": "", "note": ""}, rows[2].ToRow())
	assert.Equal(t, "0", rows[1].ToRow()["on_disk"])

	sink, err := tablerow.ColumnValue(rows[1], 0)
	require.NoError(t, err)
	assert.Equal(t, int64(123), sink.Value)

	sink, err = tablerow.ColumnValue(rows[1], 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, sink.Value)

	// declared INTEGER that does not parse is NULL
	sink, err = tablerow.ColumnValue(rows[2], 0)
	require.NoError(t, err)
	assert.Equal(t, tablerow.KindNull, sink.Kind)
}

func TestOpen_WithoutInference(t *testing.T) {
	table, err := Open(createTestWorkbook(t), WithTypeInference(false), WithTableName("procs"))
	require.NoError(t, err)

	assert.Equal(t, "procs", table.GetName())
	schema := table.GetSchema()
	assert.Equal(t, domain.ColumnTypeInteger, schema[0].Type)
	assert.Equal(t, domain.ColumnTypeText, schema[2].Type)
}

func TestOpen_HeaderNames(t *testing.T) {
	table, err := Open(createTestWorkbook(t), WithSheet("users"))
	require.NoError(t, err)

	names := make([]string, 0)
	for _, c := range table.GetSchema() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "column_2", "ID_2"}, names)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)

	_, err = Open(createTestWorkbook(t), WithSheet("nope"))
	assert.ErrorContains(t, err, "sheet not found")
}

func TestOpenAll(t *testing.T) {
	tables, err := OpenAll(createTestWorkbook(t))
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "Sheet1", tables[0].GetName())
	assert.Equal(t, "users", tables[1].GetName())
}
