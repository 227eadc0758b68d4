package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kasuganosora/tablerow/pkg/api"
	"github.com/kasuganosora/tablerow/pkg/resource/csv"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

func writeWorkbook(t *testing.T, path string, rows ...[]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func setup(t *testing.T) (*api.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "procs.xlsx")
	writeWorkbook(t, path,
		[]any{"pid:INTEGER", "name"},
		[]any{1, "init"},
		[]any{123, "sshd"},
	)

	db, err := api.NewDB(nil, api.NewNoOpLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tables, err := loadWorkbook(path, "")
	require.NoError(t, err)
	for _, table := range tables {
		require.NoError(t, db.RegisterTable(context.Background(), table))
	}
	return db, path
}

func TestRun_QueryTable(t *testing.T) {
	db, _ := setup(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), db, options{query: "SELECT pid, name FROM Sheet1 WHERE pid > 1"}, &out))
	assert.Equal(t, "pid  name\n123  sshd\n", out.String())
}

func TestRun_QueryJSON(t *testing.T) {
	db, _ := setup(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), db, options{query: "SELECT name FROM Sheet1 ORDER BY pid", asJSON: true}, &out))
	assert.Equal(t, "{\"name\":\"init\"}\n{\"name\":\"sshd\"}\n", out.String())
}

func TestRun_DumpAllTables(t *testing.T) {
	db, _ := setup(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), db, options{asJSON: true}, &out))
	assert.Equal(t, "{\"pid\":\"1\",\"name\":\"init\"}\n{\"pid\":\"123\",\"name\":\"sshd\"}\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), db, options{}, &out))
	assert.Equal(t, "== Sheet1 ==\nrowid  pid  name\n1      1    init\n2      123  sshd\n", out.String())
}

func TestReload_SchemaChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path, []any{"a"}, []any{"x"})

	db, err := api.NewDB(nil, api.NewNoOpLogger())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	sheets, err := loadWorkbook(path, "Sheet1")
	require.NoError(t, err)
	require.NoError(t, db.RegisterTable(ctx, sheets[0]))

	writeWorkbook(t, path, []any{"a", "b"}, []any{"x", "y"})
	require.NoError(t, reload(ctx, db, []source{sheets[0]}))

	result, err := db.Query(ctx, "SELECT a, b FROM Sheet1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{"a": "x", "b": "y"}}, result.Rows)
}

func TestRun_JoinsWorkbookAndCSV(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "owners.csv")
	require.NoError(t, os.WriteFile(path, []byte("pid,owner\n123,root\n"), 0o644))
	owners, err := csv.Open(path)
	require.NoError(t, err)
	require.NoError(t, db.RegisterTable(ctx, owners))

	var out bytes.Buffer
	require.NoError(t, run(ctx, db, options{query: "SELECT s.name, o.owner FROM Sheet1 s JOIN owners o ON o.pid = s.pid"}, &out))
	assert.Equal(t, "name  owner\nsshd  root\n", out.String())
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"Sheet1"`, quoteIdent("Sheet1"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
