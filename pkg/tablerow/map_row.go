package tablerow

import (
	"log/slog"
	"math"
	"slices"

	"github.com/kasuganosora/tablerow/pkg/json"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

// MapRow is a TableRow backed by a generic string map.
//
// Values are stored as text and converted on delivery according to the
// declared type of each column. A row without a schema treats every key as a
// TEXT column, in sorted key order.
type MapRow struct {
	noCopy noCopy

	columns []domain.ColumnInfo
	data    domain.Row
}

var _ TableRow = (*MapRow)(nil)

// NewMapRow creates a row owning copies of columns and data.
// columns may be nil.
func NewMapRow(columns []domain.ColumnInfo, data domain.Row) *MapRow {
	if data == nil {
		data = domain.Row{}
	}
	if columns == nil {
		keys := data.Keys()
		columns = make([]domain.ColumnInfo, len(keys))
		for i, k := range keys {
			columns[i] = domain.ColumnInfo{Name: k, Type: domain.ColumnTypeText}
		}
	} else {
		columns = slices.Clone(columns)
	}
	return &MapRow{columns: columns, data: data.Clone()}
}

// Columns returns the schema the row was built with
func (r *MapRow) Columns() []domain.ColumnInfo {
	return slices.Clone(r.columns)
}

// Get returns the stored text of a column by name
func (r *MapRow) Get(name string) (string, bool) {
	if v, ok := r.data[name]; ok {
		return v, true
	}
	folded := domain.FoldName(name)
	for k, v := range r.data {
		if domain.FoldName(k) == folded {
			return v, true
		}
	}
	return "", false
}

// RowID resolves the rowid column. An absent or empty rowid yields
// defaultValue; text that is not a base-10 int64 is an error.
func (r *MapRow) RowID(defaultValue int64) (int64, error) {
	text, ok := r.Get(RowIDColumn)
	if !ok || text == "" {
		return defaultValue, nil
	}
	id, ok := parseInteger(text)
	if !ok {
		return 0, domain.NewErrInvalidRowID(text, "not a base-10 64-bit integer")
	}
	return id, nil
}

// Column delivers column col converted to its declared type.
func (r *MapRow) Column(col int, sink ResultSink) error {
	if col < 0 || col >= len(r.columns) {
		sink.ResultNull()
		return nil
	}
	info := r.columns[col]
	text, ok := r.data[info.Name]
	if !ok {
		sink.ResultNull()
		return nil
	}

	switch info.Type {
	case domain.ColumnTypeText, domain.ColumnTypeUnknown:
		sink.ResultText(text)
		return nil
	case domain.ColumnTypeBlob:
		sink.ResultBlob([]byte(text))
		return nil
	}

	if text == "" {
		sink.ResultNull()
		return nil
	}
	switch info.Type {
	case domain.ColumnTypeInteger:
		v, ok := parseInteger(text)
		switch {
		case !ok:
			r.mismatch(sink, col, info, text)
		case v >= math.MinInt32 && v <= math.MaxInt32:
			sink.ResultInt(int32(v))
		default:
			sink.ResultInt64(v)
		}
	case domain.ColumnTypeBigInt:
		if v, ok := parseInteger(text); ok {
			sink.ResultInt64(v)
		} else {
			r.mismatch(sink, col, info, text)
		}
	case domain.ColumnTypeDouble:
		if v, ok := parseDouble(text); ok {
			sink.ResultDouble(v)
		} else {
			r.mismatch(sink, col, info, text)
		}
	default:
		r.mismatch(sink, col, info, text)
	}
	return nil
}

func (r *MapRow) mismatch(sink ResultSink, col int, info domain.ColumnInfo, text string) {
	slog.Debug("column value does not fit declared type, delivering NULL",
		"column", info.Name, "type", info.Type.String(), "value", text)
	deliverMismatch(sink, col, info.Type)
}

// Serialize writes every column as a JSON string: schema columns first in
// schema order, then any remaining keys sorted. A declared column with no
// stored value is written as "".
func (r *MapRow) Serialize(obj *json.Object) error {
	batch := obj.Stage()
	for _, key := range r.orderedKeys() {
		batch.AddString(key, r.data[key])
	}
	if err := batch.Commit(); err != nil {
		return domain.NewErrSerialize("", err)
	}
	return nil
}

func (r *MapRow) orderedKeys() []string {
	keys := make([]string, 0, len(r.data))
	seen := make(map[string]struct{}, len(r.data))
	for _, col := range r.columns {
		if _, dup := seen[col.Name]; dup {
			continue
		}
		seen[col.Name] = struct{}{}
		keys = append(keys, col.Name)
	}
	for _, k := range r.data.Keys() {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Clone returns a deep copy
func (r *MapRow) Clone() TableRow {
	return &MapRow{
		columns: slices.Clone(r.columns),
		data:    r.data.Clone(),
	}
}

// ToRow returns a copy of the stored map, with "" for declared columns that
// have no stored value.
func (r *MapRow) ToRow() domain.Row {
	row := r.data.Clone()
	for _, col := range r.columns {
		if _, ok := row[col.Name]; !ok {
			row[col.Name] = ""
		}
	}
	return row
}
