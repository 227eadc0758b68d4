package tablerow

import (
	"database/sql/driver"
	"slices"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

// ResultSink receives one column value from a row. It mirrors the engine's
// closed set of result types; a row calls exactly one method per Column call.
type ResultSink interface {
	ResultInt(v int32)
	ResultInt64(v int64)
	ResultDouble(v float64)
	ResultText(v string)
	ResultBlob(v []byte)
	ResultNull()
}

// ValueKind identifies which sink method delivered a value.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindNull
	KindInt
	KindInt64
	KindDouble
	KindText
	KindBlob
)

// String 返回值类型名
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "none"
	}
}

// ValueSink records the delivered value as a driver.Value.
//
// It counts calls so that callers can check the one-delivery rule; when a row
// misbehaves the last delivery wins and Calls exceeds one.
type ValueSink struct {
	Value driver.Value
	Kind  ValueKind
	Calls int
}

// Reset clears the sink for reuse
func (s *ValueSink) Reset() {
	s.Value = nil
	s.Kind = KindNone
	s.Calls = 0
}

func (s *ValueSink) set(kind ValueKind, v driver.Value) {
	s.Kind = kind
	s.Value = v
	s.Calls++
}

func (s *ValueSink) ResultInt(v int32)      { s.set(KindInt, int64(v)) }
func (s *ValueSink) ResultInt64(v int64)    { s.set(KindInt64, v) }
func (s *ValueSink) ResultDouble(v float64) { s.set(KindDouble, v) }
func (s *ValueSink) ResultText(v string)    { s.set(KindText, v) }
func (s *ValueSink) ResultNull()            { s.set(KindNull, nil) }

// ResultBlob copies v; the caller may reuse its buffer.
func (s *ValueSink) ResultBlob(v []byte) {
	if v == nil {
		v = []byte{}
	}
	s.set(KindBlob, slices.Clone(v))
}

// ColumnValue fetches column col of row into a fresh ValueSink.
func ColumnValue(row TableRow, col int) (ValueSink, error) {
	var sink ValueSink
	err := row.Column(col, &sink)
	return sink, err
}

// MismatchObserver may be implemented by a ResultSink that wants to know when
// a NULL stands in for a value that does not fit its declared column type.
// It is a notification, not a delivery: ResultNull still follows.
type MismatchObserver interface {
	ObserveMismatch(col int, declared domain.ColumnType)
}

// deliverMismatch substitutes NULL for a value that does not fit its column.
func deliverMismatch(sink ResultSink, col int, declared domain.ColumnType) {
	if obs, ok := sink.(MismatchObserver); ok {
		obs.ObserveMismatch(col, declared)
	}
	sink.ResultNull()
}
