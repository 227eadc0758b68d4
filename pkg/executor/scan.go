package executor

import (
	"database/sql"
	"fmt"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

// scanRows reads all rows from *sql.Rows into a QueryResult. Values are
// rendered in canonical text; NULL becomes "".
func scanRows(rows *sql.Rows) (*domain.QueryResult, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("get column types: %w", err)
	}

	columns := make([]domain.ColumnInfo, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = domain.ColumnInfo{
			Name: ct.Name(),
			Type: domain.ParseColumnType(ct.DatabaseTypeName()),
		}
	}
	// joins and "SELECT rowid, *" repeat names; rows are keyed by name
	domain.UniqueColumnNames(columns)

	result := &domain.QueryResult{Columns: columns, Rows: []domain.Row{}}
	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			row[col.Name] = tablerow.FormatValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	result.Total = int64(len(result.Rows))
	return result, nil
}
