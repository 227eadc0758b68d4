// Package tablerow defines the row abstraction shared by virtual tables and
// the query engine that reads them.
//
// # Contract
//
// A [TableRow] is one result row. The engine asks it for a row id
// ([TableRow.RowID]), for the value of a column delivered through a
// [ResultSink] ([TableRow.Column]), for a JSON serialization
// ([TableRow.Serialize]), for an independent copy ([TableRow.Clone]) and for
// the generic string map ([TableRow.ToRow]).
//
// Two backends ship with the package: [MapRow], backed by a
// [domain.Row] plus the table's column schema, and [StructRow], backed by a
// typed Go struct whose schema is reflected from its json tags.
//
// # Ownership
//
// Rows are handled through pointers and are never shared implicitly. Every
// backend embeds a noCopy marker so that `go vet` reports value copies; a
// second owner must call Clone. Rows expose no mutation, so a clone can never
// observe another clone.
//
// # Canonical text
//
// ToRow renders typed values as:
//
//	integers   base-10, e.g. "-42"
//	floats     shortest exact decimal, never an exponent, e.g. "0.1", "1e21" → "1000000000000000000000"
//	booleans   "1" / "0"
//	blobs      standard base64 with padding
//	times      RFC 3339 with nanoseconds, UTC
//	NULL       ""
package tablerow
