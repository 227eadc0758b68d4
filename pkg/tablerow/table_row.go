package tablerow

import (
	"github.com/kasuganosora/tablerow/pkg/json"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

// RowIDColumn is the column name a backend may use to carry an explicit row id.
const RowIDColumn = "rowid"

// TableRow is the interface the query engine uses to read one row.
// Implementations may be backed by a generic string map or by typed fields.
type TableRow interface {
	// RowID returns the row's id, or defaultValue if the backend has none.
	// An error means the explicit id could not be resolved; the returned id is
	// then 0 and must not be used.
	RowID(defaultValue int64) (int64, error)

	// Column delivers the value of column col into sink with exactly one
	// sink call. Out-of-range columns and values that do not fit the declared
	// column type are delivered as NULL.
	Column(col int, sink ResultSink) error

	// Serialize writes every column as a key/value pair into obj. On error
	// obj is left as it was.
	Serialize(obj *json.Object) error

	// Clone returns an independent copy with the same id and values.
	Clone() TableRow

	// ToRow converts the row to the generic column → string map.
	ToRow() domain.Row
}

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// SerializeDocument serializes row into a fresh document.
func SerializeDocument(row TableRow) (*json.Document, error) {
	doc := json.NewDocument()
	if err := row.Serialize(doc.Root()); err != nil {
		return nil, err
	}
	return doc, nil
}
