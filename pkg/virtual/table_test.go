package virtual

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

func processTable() *MemoryTable {
	return NewMemoryTable("processes",
		[]domain.ColumnInfo{
			{Name: "pid", Type: domain.ColumnTypeInteger},
			{Name: "name", Type: domain.ColumnTypeText},
		},
		domain.Row{"pid": "1", "name": "init"},
		domain.Row{"pid": "123", "name": "sshd"},
	)
}

func TestVirtualTableInterface(t *testing.T) {
	assert.Implements(t, (*VirtualTable)(nil), processTable())
}

func TestMemoryTable_Generate(t *testing.T) {
	table := processTable()
	rows, err := table.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	sink, err := tablerow.ColumnValue(rows[1], 0)
	require.NoError(t, err)
	assert.Equal(t, tablerow.KindInt, sink.Kind)
	assert.Equal(t, int64(123), sink.Value)
	assert.Equal(t, domain.Row{"pid": "123", "name": "sshd"}, rows[1].ToRow())
}

func TestMemoryTable_InsertCopies(t *testing.T) {
	table := processTable()
	row := domain.Row{"pid": "7", "name": "cron"}
	table.Insert(row)
	row["name"] = "changed"

	assert.Equal(t, 3, table.Len())
	rows, err := table.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cron", rows[2].ToRow()["name"])
}

func TestMemoryTable_GenerateHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processTable().Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
